package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/bookwatch/bookwatch/pkg/model"
)

func (a *app) cmdSchedule(args []string) int {
	flags := flag.NewFlagSet("schedule", flag.ContinueOnError)
	days := flags.Int("days", 7, "number of days to show")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "bw: schedule: expected exactly one resource id")
		return 1
	}
	resourceID := flags.Arg(0)

	now := time.Now().UTC()
	bookings, err := a.client.FetchBookings(context.Background(), resourceID, now, now.AddDate(0, 0, *days))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bw: schedule: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(map[string]interface{}{"resource_id": resourceID, "bookings": bookings})
		return 0
	}

	if len(bookings) == 0 {
		fmt.Println("no bookings found for the specified resource")
		return 0
	}

	printWeekly(os.Stdout, bookings, now, *days)
	return 0
}

// printWeekly renders a grid with one column per day: each booking
// occupies one row, its window in the first column and its details in
// the column of its day. Rows are sorted by time of day.
func printWeekly(out *os.File, bookings []model.Booking, from time.Time, days int) {
	type row struct {
		window  string
		details string
		dayIdx  int
	}
	var rows []row
	fromDate := from.Truncate(24 * time.Hour)
	for _, b := range bookings {
		idx := int(b.Start.UTC().Truncate(24 * time.Hour).Sub(fromDate).Hours() / 24)
		if idx < 0 || idx >= days {
			continue
		}
		rows = append(rows, row{
			window:  formatTimeRange(b.Start, b.End),
			details: formatBookingInfo(b.PersonName, b.Title),
			dayIdx:  idx,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].window != rows[j].window {
			return rows[i].window < rows[j].window
		}
		return rows[i].dayIdx < rows[j].dayIdx
	})

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := "TIME"
	for i := 0; i < days; i++ {
		header += "\t" + fromDate.AddDate(0, 0, i).Format("2006-01-02")
	}
	fmt.Fprintln(w, header)

	for _, r := range rows {
		cols := make([]string, days+1)
		cols[0] = r.window
		cols[r.dayIdx+1] = r.details
		line := cols[0]
		for _, c := range cols[1:] {
			line += "\t" + c
		}
		fmt.Fprintln(w, line)
	}
	w.Flush()
}

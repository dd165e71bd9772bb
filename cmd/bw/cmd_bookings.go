package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

func (a *app) cmdBookings(args []string) int {
	flags := flag.NewFlagSet("bookings", flag.ContinueOnError)
	resource := flags.String("resource", "", "resource id to filter (empty: whole space)")
	days := flags.Int("days", 7, "number of days to fetch bookings for")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	now := time.Now().UTC()
	bookings, err := a.client.FetchBookings(context.Background(), *resource, now, now.AddDate(0, 0, *days))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bw: bookings: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(map[string]interface{}{"bookings": bookings, "count": len(bookings)})
		return 0
	}

	if len(bookings) == 0 {
		fmt.Println("no bookings found for the specified criteria")
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tNAME\tTITLE\tRESOURCE")
	for _, b := range bookings {
		name := b.PersonName
		if name == "" {
			name = "N/A"
		}
		title := b.Title
		if title == "" {
			title = "N/A"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			formatDate(b.Start), formatTimeRange(b.Start, b.End), name, title, b.ResourceID)
	}
	w.Flush()
	return 0
}

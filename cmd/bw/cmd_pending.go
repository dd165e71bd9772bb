package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

func (a *app) cmdPending(args []string) int {
	flags := flag.NewFlagSet("pending", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	entries, err := a.outbox.Pending("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "bw: pending: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(map[string]interface{}{"pending": entries, "count": len(entries)})
		return 0
	}

	if len(entries) == 0 {
		fmt.Println("no pending notifications")
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENQUEUED\tRESOURCE\tKIND\tBOOKING")
	for _, entry := range entries {
		b := entry.Event.Booking
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\n",
			entry.EnqueuedAt.UTC().Format(time.RFC3339), entry.ResourceID,
			entry.Event.Kind, formatDate(b.Start), formatBookingInfo(b.PersonName, b.Title))
	}
	w.Flush()
	return 0
}

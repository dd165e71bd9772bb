package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
)

func (a *app) cmdMonitor(args []string) int {
	flags := flag.NewFlagSet("monitor", flag.ContinueOnError)
	resource := flags.String("resource", "", "comma-separated resource ids (empty: whole space)")
	days := flags.Int("days", 7, "observation window in days")
	parallel := flags.Bool("parallel", false, "process resources concurrently")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	// A snapshot append in progress must finish or not happen at all;
	// cancelling the context stops the cycle between steps.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results := a.runner().Run(ctx, splitResources(*resource), *days, *parallel)

	if *jsonOut {
		printJSON(map[string]interface{}{"results": results})
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		total := 0
		for _, res := range results {
			if res.Err != nil {
				fmt.Fprintf(os.Stderr, "bw: monitor: %s: %v\n", res.ResourceID, res.Err)
				continue
			}
			for _, e := range res.Events {
				b := e.Booking
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					changeMarker(e.Kind), formatDate(b.Start),
					formatTimeRange(b.Start, b.End),
					formatBookingInfo(b.PersonName, b.Title), res.ResourceID)
				total++
			}
		}
		w.Flush()
		if total == 0 {
			fmt.Println("no changes detected")
		}
	}

	for _, res := range results {
		if res.Err != nil {
			return 2
		}
	}
	return 0
}

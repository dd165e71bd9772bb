package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bookwatch/bookwatch/pkg/model"
)

func (a *app) cmdHistory(args []string) int {
	flags := flag.NewFlagSet("history", flag.ContinueOnError)
	resource := flags.String("resource", model.AllResources, "resource id")
	limit := flags.Int("limit", 20, "max snapshots to show (0: all)")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	snapshots, err := a.snaps.History(*resource, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bw: history: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(map[string]interface{}{"snapshots": snapshots, "count": len(snapshots)})
		return 0
	}

	if len(snapshots) == 0 {
		fmt.Printf("no snapshots recorded for %s\n", *resource)
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OBSERVED\tRESOURCE\tBOOKINGS")
	for _, s := range snapshots {
		fmt.Fprintf(w, "%s\t%s\t%d\n",
			s.ObservedAt.UTC().Format(time.RFC3339), s.ResourceID, len(s.Bookings))
	}
	w.Flush()
	return 0
}

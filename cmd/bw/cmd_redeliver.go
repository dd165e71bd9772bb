package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func (a *app) cmdRedeliver(args []string) int {
	flags := flag.NewFlagSet("redeliver", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	delivered, failed, err := a.runner().Redeliver(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bw: redeliver: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(map[string]interface{}{"delivered": delivered, "failed": failed})
	} else {
		fmt.Printf("delivered %d, failed %d\n", delivered, failed)
	}
	if failed > 0 {
		return 1
	}
	return 0
}

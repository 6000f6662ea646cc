package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/depwatch/internal/config"
)

func executeCheck(cmd *cobra.Command, cfg *config.Config) error {
	return runChecks(cmd, cfg)
}

func runChecks(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	// One-off pass: a quiet monitor, no background loop.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	mon, err := buildMonitor(cfg, quiet)
	if err != nil {
		return err
	}

	results := mon.RunHealthChecks(context.Background())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tTYPE\tSTATUS\tLATENCY\tMESSAGE")
	failing := false
	for _, svc := range cfg.Services {
		res, ok := results[svc.Name]
		if !ok {
			continue
		}
		lat := "—"
		if res.Latency > 0 {
			lat = res.Latency.Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			svc.Name,
			svc.Type,
			res.Status,
			lat,
			res.Message,
		)
		if res.Status.Failing() {
			failing = true
		}
	}
	w.Flush()

	if failing {
		return fmt.Errorf("one or more services are failing")
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/depwatch/internal/config"
	"github.com/hazz-dev/depwatch/internal/retry"
)

// statusBaseURL derives the API base URL from the configured listen
// address (":8080" means the local instance).
func statusBaseURL(cfg *config.Config) string {
	addr := cfg.Server.Address
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

type statusResponse struct {
	Data struct {
		Status       string `json:"status"`
		ServiceCount int    `json:"service_count"`
		Services     map[string]struct {
			DisplayName string    `json:"display_name"`
			Status      string    `json:"status"`
			Message     string    `json:"message"`
			Timestamp   time.Time `json:"timestamp"`
			LatencyMs   int64     `json:"latency_ms"`
		} `json:"services"`
	} `json:"data"`
	Error string `json:"error"`
}

func executeStatus(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	url := statusBaseURL(cfg) + "/api/status"

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating status request: %w", err)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := retry.DoRequest(ctx, client, req, retryPolicy(cfg), quiet)
	if err != nil {
		return fmt.Errorf("querying %s (is 'depwatch serve' running?): %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return fmt.Errorf("decoding status response: %w", err)
	}
	if sr.Error != "" {
		return fmt.Errorf("status endpoint error: %s", sr.Error)
	}

	ids := make([]string, 0, len(sr.Data.Services))
	for id := range sr.Data.Services {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSTATUS\tLATENCY\tLAST CHECKED\tMESSAGE")
	for _, id := range ids {
		svc := sr.Data.Services[id]
		lat := "—"
		if svc.LatencyMs > 0 {
			lat = (time.Duration(svc.LatencyMs) * time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			id,
			svc.Status,
			lat,
			svc.Timestamp.Local().Format("2006-01-02 15:04:05"),
			svc.Message,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nOverall: %s (%d services)\n", sr.Data.Status, sr.Data.ServiceCount)
	return nil
}

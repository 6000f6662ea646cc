package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/depwatch/internal/config"
)

func httpConfig(targets ...string) *config.Config {
	cfg := &config.Config{}
	for i, url := range targets {
		name := "svc" + string(rune('1'+i))
		cfg.Services = append(cfg.Services, config.Service{
			Name:           name,
			DisplayName:    name,
			Type:           "http",
			Target:         url,
			Timeout:        config.Duration{Duration: 5 * time.Second},
			ExpectedStatus: 200,
		})
	}
	return cfg
}

func newOutCmd(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	return cmd
}

func TestRunChecks_AllHealthy_OutputFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	if err := runChecks(newOutCmd(&buf), httpConfig(srv.URL)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "SERVICE") {
		t.Errorf("expected header row with 'SERVICE', got:\n%s", output)
	}
	if !strings.Contains(output, "svc1") {
		t.Errorf("expected output to contain 'svc1', got:\n%s", output)
	}
	if !strings.Contains(output, "http") {
		t.Errorf("expected output to contain 'http', got:\n%s", output)
	}
	if !strings.Contains(output, "ok") {
		t.Errorf("expected output to contain 'ok', got:\n%s", output)
	}
}

func TestRunChecks_FailingServiceReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := runChecks(newOutCmd(&buf), httpConfig(srv.URL))
	if err == nil {
		t.Fatal("expected error when a service is failing")
	}
	if !strings.Contains(err.Error(), "failing") {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "error") {
		t.Errorf("expected 'error' status in output, got:\n%s", buf.String())
	}
}

func TestRunChecks_MultipleServices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	if err := runChecks(newOutCmd(&buf), httpConfig(srv.URL, srv.URL)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "svc1") {
		t.Errorf("expected 'svc1' in output, got:\n%s", output)
	}
	if !strings.Contains(output, "svc2") {
		t.Errorf("expected 'svc2' in output, got:\n%s", output)
	}
}

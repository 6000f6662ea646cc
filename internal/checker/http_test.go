package checker_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazz-dev/depwatch/internal/checker"
	"github.com/hazz-dev/depwatch/internal/config"
	"github.com/hazz-dev/depwatch/internal/health"
)

func httpService(target string) config.Service {
	return config.Service{
		Name:           "api",
		DisplayName:    "API Service",
		Type:           "http",
		Target:         target,
		Timeout:        config.Duration{Duration: 2 * time.Second},
		ExpectedStatus: 200,
	}
}

func TestHTTPChecker_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := checker.New(httpService(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	res := c.Check(context.Background())

	if res.Status != health.StatusOK {
		t.Errorf("expected ok, got %s (%s)", res.Status, res.Message)
	}
	if res.Latency <= 0 {
		t.Error("expected positive latency")
	}
	if res.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestHTTPChecker_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := checker.New(httpService(srv.URL))
	res := c.Check(context.Background())

	if res.Status != health.StatusError {
		t.Errorf("expected error, got %s", res.Status)
	}
	if !strings.Contains(res.Message, "500") {
		t.Errorf("expected status code in message, got %q", res.Message)
	}
}

func TestHTTPChecker_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := checker.New(httpService(url))
	res := c.Check(context.Background())

	if res.Status != health.StatusError {
		t.Errorf("expected error for refused connection, got %s", res.Status)
	}
}

func TestHTTPChecker_TimeoutIsWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	svc := httpService(srv.URL)
	svc.Timeout = config.Duration{Duration: 50 * time.Millisecond}
	c, _ := checker.New(svc)
	res := c.Check(context.Background())

	if res.Status != health.StatusWarning {
		t.Errorf("expected warning on timeout, got %s (%s)", res.Status, res.Message)
	}
	if !strings.Contains(res.Message, "timed out") {
		t.Errorf("expected timeout message, got %q", res.Message)
	}
}

func TestHTTPChecker_SendsConfiguredHeaders(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	svc := httpService(srv.URL)
	svc.Headers = map[string]string{"Authorization": "Bearer sekret"}
	c, _ := checker.New(svc)
	c.Check(context.Background())

	if got != "Bearer sekret" {
		t.Errorf("expected configured header to be sent, got %q", got)
	}
}

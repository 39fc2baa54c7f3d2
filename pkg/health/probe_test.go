package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/monshunter/ohmydeploy/pkg/errdefs"
)

func fastOptions(retries int) Options {
	return Options{Retries: retries, WaitMin: time.Millisecond, WaitMax: 5 * time.Millisecond, Timeout: time.Second}
}

func TestCheckRetriesUntilHealthy(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	if err := NewProber(server.URL, fastOptions(5)).Check(context.Background()); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestCheckGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewProber(server.URL, fastOptions(2)).Check(context.Background())
	if !errors.Is(err, errdefs.ErrHealthCheck) {
		t.Fatalf("expected ErrHealthCheck from an unhealthy service, got %v", err)
	}
}

func TestCheckClientError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	err := NewProber(server.URL, fastOptions(2)).Check(context.Background())
	if !errors.Is(err, errdefs.ErrHealthCheck) {
		t.Fatalf("expected ErrHealthCheck for a 404, got %v", err)
	}
}

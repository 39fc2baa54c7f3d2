package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"github.com/monshunter/ohmydeploy/pkg/log"
)

// Options tunes the health check
type Options struct {
	Retries int
	WaitMin time.Duration
	WaitMax time.Duration
	// Timeout bounds each attempt
	Timeout time.Duration
}

// DefaultOptions gives a freshly started service about half a minute
func DefaultOptions() Options {
	return Options{
		Retries: 8,
		WaitMin: 500 * time.Millisecond,
		WaitMax: 5 * time.Second,
		Timeout: 5 * time.Second,
	}
}

// Prober checks that a started service answers over HTTP
type Prober struct {
	url    string
	client *retryablehttp.Client
}

func NewProber(url string, opts Options) *Prober {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.Retries
	client.RetryWaitMin = opts.WaitMin
	client.RetryWaitMax = opts.WaitMax
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = nil
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			log.Debugf("Health check %s: retry %d", req.URL, attempt)
		}
	}
	return &Prober{url: url, client: client}
}

// Check succeeds once the URL answers with a 2xx status
func (p *Prober) Check(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	req.Header.Set("User-Agent", "ohmydeploy/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errdefs.ErrHealthCheck, p.url, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s: status %s", errdefs.ErrHealthCheck, p.url, resp.Status)
	}
	log.Infof("Health check %s passed (%s)", p.url, resp.Status)
	return nil
}

package stages

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

const (
	defaultUserAgent  = "uptimer-monitor/1"
	maxNetworkTimeout = 60 * time.Second
	maxResponseBytes  = 10 << 20
)

type httpStage struct {
	timeout time.Duration
	headers map[string]string
}

func newHTTPStage(opts map[string]any) (stage.Stage, error) {
	timeoutSec := optFloat(opts, "timeout", 10)
	if timeoutSec <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}
	timeout := capTimeout(timeoutSec)
	return &httpStage{timeout: timeout, headers: optStringMap(opts, "headers")}, nil
}

func capTimeout(seconds float64) time.Duration {
	d := time.Duration(seconds * float64(time.Second))
	if d > maxNetworkTimeout {
		return maxNetworkTimeout
	}
	return d
}

func (s *httpStage) Check(ctx context.Context, url string, verbose bool, run *stage.Context) (stage.Result, error) {
	start := time.Now()
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var redirects []map[string]any
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if req.Response != nil {
				redirects = append(redirects, map[string]any{
					"status":   req.Response.StatusCode,
					"location": req.URL.String(),
				})
			}
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return stage.Result{
			Status:    stage.StatusDown,
			Message:   "transport_error",
			ElapsedMs: stage.ElapsedSince(start),
			Details:   map[string]any{"error": err.Error()},
		}, nil
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return stage.Result{
			Status:    stage.StatusDown,
			Message:   "transport_error",
			ElapsedMs: stage.ElapsedSince(start),
			Details:   map[string]any{"error": err.Error()},
		}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return stage.Result{
			Status:    stage.StatusDown,
			Message:   "transport_error",
			ElapsedMs: stage.ElapsedSince(start),
			Details:   map[string]any{"error": err.Error()},
		}, nil
	}

	run.ResponseBody = body
	run.ResponseHeaders = stage.Headers(resp.Header)

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	run.Values["elapsed_ms"] = stage.ElapsedSince(start)
	run.Values["status_code"] = resp.StatusCode
	run.Values["final_url"] = finalURL
	run.Values["http_version"] = resp.Proto
	run.Values["server"] = resp.Header.Get("Server")
	run.Values["content_type"] = resp.Header.Get("Content-Type")

	status := stage.StatusUp
	if resp.StatusCode >= 400 {
		status = stage.StatusDegraded
	}

	return stage.Result{
		Status:    status,
		Message:   strconv.Itoa(resp.StatusCode),
		ElapsedMs: stage.ElapsedSince(start),
		Details: map[string]any{
			"status_code":  resp.StatusCode,
			"final_url":    finalURL,
			"http_version": resp.Proto,
			"server":       resp.Header.Get("Server"),
			"content_type": resp.Header.Get("Content-Type"),
			"redirects":    redirects,
		},
	}, nil
}

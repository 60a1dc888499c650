package stages

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

type dnsStage struct {
	expectedIP string
}

func newDNSStage(opts map[string]any) (stage.Stage, error) {
	return &dnsStage{expectedIP: optString(opts, "expected_ip", "")}, nil
}

func (s *dnsStage) Check(ctx context.Context, rawURL string, verbose bool, run *stage.Context) (stage.Result, error) {
	start := time.Now()

	host, err := hostname(rawURL)
	if err != nil {
		run.Values["elapsed_ms"] = stage.ElapsedSince(start)
		return stage.Result{Status: stage.StatusDown, Message: "invalid_url", ElapsedMs: stage.ElapsedSince(start)}, nil
	}

	ips, err := lookupHost(ctx, host)
	if err != nil {
		run.Values["elapsed_ms"] = stage.ElapsedSince(start)
		return stage.Result{
			Status:    stage.StatusDown,
			Message:   "resolution_failed",
			ElapsedMs: stage.ElapsedSince(start),
			Details:   map[string]any{"error": err.Error()},
		}, nil
	}

	details := map[string]any{"addresses": ips}
	run.Values["elapsed_ms"] = stage.ElapsedSince(start)
	run.Values["addresses"] = ips

	if s.expectedIP == "" {
		return stage.Result{Status: stage.StatusUp, Message: "resolved", ElapsedMs: stage.ElapsedSince(start), Details: details}, nil
	}

	for _, ip := range ips {
		if ip == s.expectedIP {
			return stage.Result{Status: stage.StatusUp, Message: "resolved", ElapsedMs: stage.ElapsedSince(start), Details: details}, nil
		}
	}
	return stage.Result{Status: stage.StatusDegraded, Message: "ip_mismatch", ElapsedMs: stage.ElapsedSince(start), Details: details}, nil
}

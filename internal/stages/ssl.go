package stages

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

const sslConnectTimeout = 5 * time.Second

type sslStage struct {
	warnDays int
}

func newSSLStage(opts map[string]any) (stage.Stage, error) {
	warnDays := optInt(opts, "warn_days", 30)
	if warnDays < 0 {
		return nil, fmt.Errorf("warn_days must be non-negative")
	}
	return &sslStage{warnDays: warnDays}, nil
}

func (s *sslStage) Check(ctx context.Context, rawURL string, verbose bool, run *stage.Context) (stage.Result, error) {
	start := time.Now()

	host, err := hostname(rawURL)
	if err != nil {
		run.Values["elapsed_ms"] = stage.ElapsedSince(start)
		return stage.Result{
			Status:    stage.StatusDown,
			Message:   "invalid_url",
			ElapsedMs: stage.ElapsedSince(start),
			Details:   map[string]any{"error": err.Error()},
		}, nil
	}
	addr := net.JoinHostPort(host, "443")
	if u, parseErr := url.Parse(rawURL); parseErr == nil && u.Port() != "" {
		addr = net.JoinHostPort(host, u.Port())
	}

	dialer := &net.Dialer{Timeout: sslConnectTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		run.Values["elapsed_ms"] = stage.ElapsedSince(start)
		return stage.Result{
			Status:    stage.StatusDown,
			Message:   "unreachable",
			ElapsedMs: stage.ElapsedSince(start),
			Details:   map[string]any{"error": err.Error()},
		}, nil
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		run.Values["elapsed_ms"] = stage.ElapsedSince(start)
		return stage.Result{
			Status:    stage.StatusDown,
			Message:   "no_certificate",
			ElapsedMs: stage.ElapsedSince(start),
		}, nil
	}
	cert := certs[0]
	now := time.Now()

	details := map[string]any{
		"subject":   cert.Subject.CommonName,
		"issuer":    cert.Issuer.CommonName,
		"not_after": cert.NotAfter,
	}

	run.Values["elapsed_ms"] = stage.ElapsedSince(start)
	run.Values["not_after"] = cert.NotAfter
	run.Values["subject"] = cert.Subject.CommonName

	if now.After(cert.NotAfter) {
		details["days_remaining"] = 0
		run.Values["days_remaining"] = 0
		return stage.Result{Status: stage.StatusDown, Message: "expired", ElapsedMs: stage.ElapsedSince(start), Details: details}, nil
	}

	daysRemaining := cert.NotAfter.Sub(now).Hours() / 24
	details["days_remaining"] = daysRemaining
	run.Values["days_remaining"] = daysRemaining

	if daysRemaining <= float64(s.warnDays) {
		return stage.Result{Status: stage.StatusDegraded, Message: "expiring_soon", ElapsedMs: stage.ElapsedSince(start), Details: details}, nil
	}
	return stage.Result{Status: stage.StatusUp, Message: "valid", ElapsedMs: stage.ElapsedSince(start), Details: details}, nil
}

package stages

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

const tcpConnectTimeout = 5 * time.Second

type tcpStage struct {
	port int
}

func newTCPStage(opts map[string]any) (stage.Stage, error) {
	raw, ok := opts["port"]
	if !ok {
		return nil, fmt.Errorf("port is required")
	}
	port, err := toFloat(raw)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("port must be a valid TCP port")
	}
	return &tcpStage{port: int(port)}, nil
}

func (s *tcpStage) Check(ctx context.Context, rawURL string, verbose bool, run *stage.Context) (stage.Result, error) {
	start := time.Now()

	host, err := hostname(rawURL)
	if err != nil {
		run.Values["elapsed_ms"] = stage.ElapsedSince(start)
		return stage.Result{Status: stage.StatusDown, Message: "invalid_url", ElapsedMs: stage.ElapsedSince(start)}, nil
	}

	addr := net.JoinHostPort(host, strconv.Itoa(s.port))
	dialer := &net.Dialer{Timeout: tcpConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		run.Values["elapsed_ms"] = stage.ElapsedSince(start)
		return stage.Result{
			Status:    stage.StatusDown,
			Message:   "connect_error",
			ElapsedMs: stage.ElapsedSince(start),
			Details:   map[string]any{"port": s.port, "error": err.Error()},
		}, nil
	}
	defer conn.Close()

	run.Values["elapsed_ms"] = stage.ElapsedSince(start)
	run.Values["port"] = s.port

	return stage.Result{
		Status:    stage.StatusUp,
		Message:   "connected",
		ElapsedMs: stage.ElapsedSince(start),
		Details:   map[string]any{"port": s.port},
	}, nil
}

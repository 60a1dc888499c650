package stages

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

func TestTCPStageConnects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	s, err := newTCPStage(map[string]any{"port": portStr})
	require.NoError(t, err)

	run := stage.NewContext()
	res, err := s.Check(context.Background(), "http://127.0.0.1", false, run)
	require.NoError(t, err)
	require.Equal(t, stage.StatusUp, res.Status)
}

func TestTCPStageRequiresPort(t *testing.T) {
	_, err := newTCPStage(map[string]any{})
	require.Error(t, err)
}

func TestDNSStageResolvedMatchesExpectedIP(t *testing.T) {
	restore := lookupHost
	lookupHost = func(ctx context.Context, host string) ([]string, error) {
		return []string{"93.184.216.34"}, nil
	}
	defer func() { lookupHost = restore }()

	s, err := newDNSStage(map[string]any{"expected_ip": "93.184.216.34"})
	require.NoError(t, err)

	run := stage.NewContext()
	res, err := s.Check(context.Background(), "https://example.com", false, run)
	require.NoError(t, err)
	require.Equal(t, stage.StatusUp, res.Status)
}

func TestDNSStageMismatchDegraded(t *testing.T) {
	restore := lookupHost
	lookupHost = func(ctx context.Context, host string) ([]string, error) {
		return []string{"10.0.0.1"}, nil
	}
	defer func() { lookupHost = restore }()

	s, err := newDNSStage(map[string]any{"expected_ip": "93.184.216.34"})
	require.NoError(t, err)

	run := stage.NewContext()
	res, err := s.Check(context.Background(), "https://example.com", false, run)
	require.NoError(t, err)
	require.Equal(t, stage.StatusDegraded, res.Status)
}

func TestDNSStageResolutionFailedDown(t *testing.T) {
	restore := lookupHost
	lookupHost = func(ctx context.Context, host string) ([]string, error) {
		return nil, errors.New("no such host")
	}
	defer func() { lookupHost = restore }()

	s, err := newDNSStage(map[string]any{})
	require.NoError(t, err)

	run := stage.NewContext()
	res, err := s.Check(context.Background(), "https://example.invalid", false, run)
	require.NoError(t, err)
	require.Equal(t, stage.StatusDown, res.Status)
}

func TestSSLStageUnreachableDown(t *testing.T) {
	s, err := newSSLStage(map[string]any{"warn_days": 30})
	require.NoError(t, err)

	run := stage.NewContext()
	res, err := s.Check(context.Background(), "https://127.0.0.1:1", false, run)
	require.NoError(t, err)
	require.Equal(t, stage.StatusDown, res.Status)
	require.Equal(t, "unreachable", res.Message)
}

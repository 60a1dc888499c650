package stages

import (
	"context"
	"net"
)

// lookupHost resolves host to its A-record (IPv4) addresses. It is a var so
// tests can stub DNS resolution without touching the network.
var lookupHost = func(ctx context.Context, host string) ([]string, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, ip.String())
	}
	return out, nil
}

package main

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/jpalmerr/pollwait"
)

// dialProbeTimeout bounds each individual connection attempt so a probe
// stays a quick check rather than a hang.
const dialProbeTimeout = time.Second

// fileProbe reports a path as ready once it exists. The payload is the
// path itself, so the zero string is the natural absence sentinel.
func fileProbe(path string) pollwait.ProbeFunc[string] {
	return pollwait.SentinelProbe(func(ctx context.Context) string {
		if _, err := os.Stat(path); err != nil {
			return ""
		}
		return path
	})
}

// tcpProbe reports an address as ready once a connection succeeds. The
// connection is closed immediately; the payload is the address.
func tcpProbe(addr string) pollwait.ProbeFunc[string] {
	return pollwait.SentinelProbe(func(ctx context.Context) string {
		d := net.Dialer{Timeout: dialProbeTimeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return ""
		}
		_ = conn.Close()
		return addr
	})
}

//go:build !linux

package wire

import (
	"fmt"
	"net"
)

// ApplyKeepalive enables TCP keepalive on conn using the portable
// net.TCPConn.SetKeepAliveConfig surface. x/sys/unix has no shared
// TCP_KEEPIDLE/TCP_KEEPINTVL/TCP_KEEPCNT sockopt names across non-Linux
// GOOS values, so non-Linux platforms use the stdlib's own
// struct-based config instead of a raw sockopt dispatch.
func ApplyKeepalive(conn net.Conn, cfg KeepaliveConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	err := tcpConn.SetKeepAliveConfig(net.KeepAliveConfig{
		Enable:   true,
		Idle:     cfg.Idle,
		Interval: cfg.Interval,
		Count:    cfg.Count,
	})
	if err != nil {
		return fmt.Errorf("wire: enable keepalive: %w", err)
	}
	return nil
}

package wire

import "time"

// KeepaliveConfig holds the TCP keepalive knobs the protocol mandates for
// both the request and notification sockets: long-lived TUI sessions would
// otherwise silently wedge across a network partition.
type KeepaliveConfig struct {
	// Idle is the time a connection must sit idle before the first probe.
	Idle time.Duration

	// Interval is the time between successive probes.
	Interval time.Duration

	// Count is the number of unacknowledged probes before the connection
	// is considered dead.
	Count int
}

// DefaultKeepalive matches the protocol's mandated knobs: idle >= 60s,
// 60s between probes, 5 probes before giving up.
var DefaultKeepalive = KeepaliveConfig{
	Idle:     60 * time.Second,
	Interval: 60 * time.Second,
	Count:    5,
}

package zino

import "log/slog"

// testLogger returns a logger that discards output, for tests in the zino
// package that need to construct a requestChannel/notifyChannel directly.
func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

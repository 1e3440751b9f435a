package wire

import "errors"

// -------------------------------------------------------------------------
// Sentinel Errors
// -------------------------------------------------------------------------

var (
	// ErrFraming indicates a response header could not be parsed as
	// "<code> <text>" with an integer code.
	ErrFraming = errors.New("wire: malformed response header")

	// ErrLostConnection indicates the peer closed the socket, either before
	// a response began or mid-response.
	ErrLostConnection = errors.New("wire: connection closed by peer")

	// ErrTimeout indicates a read or write did not complete before the
	// caller's deadline.
	ErrTimeout = errors.New("wire: i/o timed out")
)

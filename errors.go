package zino

import "errors"

// Error taxonomy. Library functions return one of these sentinels wrapped
// with fmt.Errorf("...: %w", ...) at the call site; callers match with
// errors.Is.
var (
	// ErrNotConnected indicates the socket is missing or closed; the
	// caller must reconnect.
	ErrNotConnected = errors.New("zino: not connected")

	// ErrLostConnection indicates the peer closed the socket mid-operation.
	// It is returned wrapped around ErrNotConnected, so
	// errors.Is(err, ErrNotConnected) also matches a lost connection.
	ErrLostConnection = errors.New("zino: lost connection")

	// ErrAuthentication indicates credentials were rejected, or
	// authentication was attempted on a broken channel.
	ErrAuthentication = errors.New("zino: authentication failed")

	// ErrProtocol indicates the server responded with something
	// structurally unparseable, or a 5xx this client does not translate
	// to a more specific error.
	ErrProtocol = errors.New("zino: protocol error")

	// ErrRetry indicates transient server-side malformation the caller
	// should retry the same operation for (a getattrs line without a
	// colon, a getlog timestamp that isn't an integer).
	ErrRetry = errors.New("zino: transient server error, retry")

	// ErrEventClosed indicates an attempt to reopen a closed case.
	ErrEventClosed = errors.New("zino: event is closed")

	// ErrTimeout indicates a socket read did not complete within the
	// configured timeout.
	ErrTimeout = errors.New("zino: operation timed out")

	// ErrValidation indicates an event payload from the server failed
	// field validation.
	ErrValidation = errors.New("zino: validation failed")

	// ErrUnknownEventType indicates the "type" attribute named no known
	// event variant.
	ErrUnknownEventType = errors.New("zino: unknown event type")
)

// newLostConnection wraps ErrLostConnection around ErrNotConnected so
// callers checking either sentinel with errors.Is succeed.
func newLostConnection(cause error) error {
	return &wrappedError{msg: "zino: lost connection", sentinels: []error{ErrLostConnection, ErrNotConnected}, cause: cause}
}

// wrappedError implements a single error value that answers errors.Is for
// more than one sentinel — used for ErrLostConnection, which the protocol
// explicitly treats as a subclass of ErrNotConnected.
type wrappedError struct {
	msg       string
	sentinels []error
	cause     error
}

func (e *wrappedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *wrappedError) Unwrap() []error {
	if e.cause == nil {
		return e.sentinels
	}
	return append(append([]error{}, e.sentinels...), e.cause)
}

package transport

import "errors"

var (
	// ErrClosed indicates the connection was closed by the caller.
	ErrClosed = errors.New("devtools connection closed")
	// ErrConnectionLost indicates a command could not be written to the endpoint.
	ErrConnectionLost = errors.New("devtools connection lost")
	// ErrNoTarget indicates the endpoint listed no attachable target.
	ErrNoTarget = errors.New("no devtools target available")
)

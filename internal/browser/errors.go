package browser

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid browser config")
	ErrBrowserNotFound = errors.New("browser executable not found")
	ErrConnectFailed   = errors.New("failed to connect to browser")
	ErrAlreadyStarted  = errors.New("runner already started")
	ErrNotConnected    = errors.New("runner is not connected")
	ErrStopped         = errors.New("runner stopped")
)

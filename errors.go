package outputgen

import (
	"errors"

	"github.com/joshp123/outputgen/internal/browser"
	"github.com/joshp123/outputgen/internal/cdp"
	"github.com/joshp123/outputgen/internal/console"
	"github.com/joshp123/outputgen/internal/fixture"
	"github.com/joshp123/outputgen/internal/transport"
)

var (
	// ErrGeneratorClosed indicates the generator was closed by the caller.
	ErrGeneratorClosed = errors.New("generator closed")
	// ErrNilContext indicates a required context argument was nil.
	ErrNilContext = errors.New("context is required")

	// ErrBrowserNotFound indicates no browser executable could be resolved.
	ErrBrowserNotFound = browser.ErrBrowserNotFound
	// ErrConnectFailed indicates the browser never accepted a debugging session.
	ErrConnectFailed = browser.ErrConnectFailed
	// ErrConnectionLost indicates a command could not be written to the browser.
	ErrConnectionLost = transport.ErrConnectionLost

	// ErrNoOutputMarker indicates fixture code without a following output block.
	ErrNoOutputMarker = fixture.ErrNoOutputMarker
	// ErrUnterminatedOutput indicates a fixture output block that is never closed.
	ErrUnterminatedOutput = fixture.ErrUnterminatedOutput

	// ErrUnrecognizedValue indicates console output the serializer has no rule for.
	ErrUnrecognizedValue = console.ErrUnrecognizedValue
)

// CommandError is returned when the browser rejects a devtools command.
type CommandError = cdp.Error

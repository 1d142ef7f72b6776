// Package cdp issues devtools commands by name. Any "Domain.method" string is
// accepted; the endpoint is the only authority on which methods exist.
package cdp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joshp123/outputgen/internal/rpc"
)

var defaultCommandTimeout = time.Second

// ErrInvalidMethod indicates a method name that is not of the form Domain.method.
var ErrInvalidMethod = errors.New("invalid devtools method name")

// Transport is the part of transport.Conn the client needs.
type Transport interface {
	Send(method string, params any) (int64, error)
	AwaitReply(id int64, timeout time.Duration) (*rpc.Frame, []rpc.Frame)
	Drain() []rpc.Frame
}

// Request is any typed command with a protocol method name, such as the
// command structs in github.com/go-rod/rod/lib/proto.
type Request interface {
	ProtoReq() string
}

// Error is a failed command reply.
type Error struct {
	RequestID int64
	Method    string
	Code      int
	Message   string
}

func (err *Error) Error() string {
	if err == nil {
		return ""
	}
	message := strings.TrimSpace(err.Message)
	if message == "" {
		message = "command failed"
	}
	return fmt.Sprintf("cdp %s (%d) failed: %s (code %d)", err.Method, err.RequestID, message, err.Code)
}

// Exchange is the outcome of one command round trip.
type Exchange struct {
	RequestID int64
	// Replied is false when the wait timed out.
	Replied bool
	Result  json.RawMessage
	// Interleaved holds frames that arrived while waiting, reply excluded.
	Interleaved []rpc.Frame
}

type Options struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

type Client struct {
	transport Transport
	timeout   time.Duration
	logger    *zap.Logger
}

func New(transport Transport, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{transport: transport, timeout: timeout, logger: logger}
}

// Do sends method with params after discarding stale frames, and waits for
// its reply. A timeout is not an error: the exchange reports Replied=false.
func (client *Client) Do(method string, params map[string]any) (Exchange, error) {
	if err := validateMethod(method); err != nil {
		return Exchange{}, err
	}
	if params == nil {
		params = map[string]any{}
	}

	if stale := client.transport.Drain(); len(stale) > 0 {
		client.logger.Debug("discarded stale frames", zap.String("method", method), zap.Int("count", len(stale)))
	}

	id, err := client.transport.Send(method, params)
	if err != nil {
		return Exchange{}, err
	}
	reply, drained := client.transport.AwaitReply(id, client.timeout)

	exchange := Exchange{RequestID: id}
	for _, frame := range drained {
		if frame.IsReplyTo(id) {
			continue
		}
		exchange.Interleaved = append(exchange.Interleaved, frame)
	}
	if reply == nil {
		client.logger.Debug("no reply before timeout", zap.String("method", method), zap.Int64("id", id))
		return exchange, nil
	}

	exchange.Replied = true
	if reply.Error != nil {
		return exchange, &Error{RequestID: id, Method: method, Code: reply.Error.Code, Message: reply.Error.Message}
	}
	exchange.Result = reply.Result
	return exchange, nil
}

// Invoke is Do for callers that only want the result payload, nil on timeout.
func (client *Client) Invoke(method string, params map[string]any) (json.RawMessage, error) {
	exchange, err := client.Do(method, params)
	if err != nil {
		return nil, err
	}
	return exchange.Result, nil
}

// Send dispatches a typed command; its exported fields become the params.
func (client *Client) Send(request Request) (Exchange, error) {
	params, err := paramsOf(request)
	if err != nil {
		return Exchange{}, err
	}
	return client.Do(request.ProtoReq(), params)
}

// Domain addresses the methods of one protocol domain.
func (client *Client) Domain(name string) Domain {
	return Domain{client: client, name: name}
}

type Domain struct {
	client *Client
	name   string
}

func (domain Domain) Name() string {
	return domain.name
}

// Call invokes domain.method, e.g. client.Domain("Page").Call("enable", nil).
func (domain Domain) Call(method string, params map[string]any) (json.RawMessage, error) {
	return domain.client.Invoke(domain.name+"."+method, params)
}

func validateMethod(method string) error {
	domain, name, ok := strings.Cut(method, ".")
	if !ok || strings.TrimSpace(domain) == "" || strings.TrimSpace(name) == "" || strings.Contains(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	return nil
}

func paramsOf(request Request) (map[string]any, error) {
	if request == nil {
		return nil, errors.New("request is required")
	}
	raw, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", request.ProtoReq(), err)
	}
	params := map[string]any{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("encode %s params: %w", request.ProtoReq(), err)
	}
	return params, nil
}

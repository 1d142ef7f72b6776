// Package transport owns the websocket link to a browser's remote-debugging
// endpoint and correlates command replies with the requests that caused them.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/joshp123/outputgen/internal/rpc"
)

var (
	defaultWriteTimeout = 5 * time.Second
	defaultCloseTimeout = time.Second
)

type Options struct {
	Logger       *zap.Logger
	Dialer       *websocket.Dialer
	WriteTimeout time.Duration
}

// Conn is one duplex channel to a devtools target. Every inbound message is
// decoded once by a reader goroutine and queued; waiters consume the queue.
// Sending and waiting are meant to be driven by a single caller.
type Conn struct {
	ws     *websocket.Conn
	logger *zap.Logger

	requests *RequestManager
	inbox    *inbox

	writeTimeout time.Duration
	writeLock    sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
	readDone  chan struct{}
}

func Dial(ctx context.Context, url string, options Options) (*Conn, error) {
	dialer := options.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, response, err := dialer.DialContext(ctx, url, nil)
	if response != nil && response.Body != nil {
		_ = response.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return newConn(ws, options), nil
}

func newConn(ws *websocket.Conn, options Options) *Conn {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	writeTimeout := options.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	conn := &Conn{
		ws:           ws,
		logger:       logger,
		requests:     NewRequestManager(ErrClosed),
		inbox:        newInbox(),
		writeTimeout: writeTimeout,
		closed:       make(chan struct{}),
		readDone:     make(chan struct{}),
	}
	go conn.readLoop()
	return conn
}

func (conn *Conn) readLoop() {
	defer close(conn.readDone)
	defer conn.inbox.close()
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if !conn.isClosed() {
				conn.logger.Debug("devtools read ended", zap.Error(err))
			}
			return
		}
		frame, err := rpc.DecodeFrame(data)
		if err != nil {
			conn.logger.Warn("undecodable devtools frame", zap.Error(err), zap.ByteString("raw", data))
			frame = rpc.Frame{Kind: rpc.FrameInvalid, Raw: append(json.RawMessage(nil), data...)}
		}
		conn.inbox.push(frame)
	}
}

// Send writes one command and returns its id. A write failure means the
// session is gone and is reported as ErrConnectionLost.
func (conn *Conn) Send(method string, params any) (int64, error) {
	if conn.isClosed() {
		return 0, ErrClosed
	}
	if params == nil {
		params = map[string]any{}
	}

	pending, err := conn.requests.Open(method, params)
	if err != nil {
		return 0, err
	}
	payload, err := json.Marshal(rpc.Request{ID: pending.ID, Method: method, Params: params})
	if err != nil {
		conn.requests.Drop(pending.ID)
		return 0, fmt.Errorf("encode %s: %w", method, err)
	}

	conn.writeLock.Lock()
	_ = conn.ws.SetWriteDeadline(time.Now().Add(conn.writeTimeout))
	writeErr := conn.ws.WriteMessage(websocket.TextMessage, payload)
	conn.writeLock.Unlock()
	if writeErr != nil {
		conn.requests.Drop(pending.ID)
		if conn.isClosed() {
			return 0, ErrClosed
		}
		return 0, fmt.Errorf("%w: write %s: %v", ErrConnectionLost, method, writeErr)
	}

	conn.logger.Debug("devtools command sent", zap.Int64("id", pending.ID), zap.String("method", method))
	return pending.ID, nil
}

// AwaitReply waits up to timeout for the reply to id. Every frame consumed
// while waiting, the reply included, is returned in drained. A closed or
// failed connection ends the wait with no match.
func (conn *Conn) AwaitReply(id int64, timeout time.Duration) (*rpc.Frame, []rpc.Frame) {
	reply, drained := conn.await(timeout, func(frame rpc.Frame) bool {
		return frame.IsReplyTo(id)
	})
	if reply == nil {
		conn.requests.Drop(id)
		return nil, drained
	}
	if pending, ok := conn.requests.Resolve(id); ok {
		conn.logger.Debug("devtools reply received",
			zap.Int64("id", id),
			zap.String("method", pending.Method),
			zap.Duration("latency", time.Since(pending.SentAt)),
		)
	}
	return reply, drained
}

// AwaitEvent waits up to timeout for the first event named method.
func (conn *Conn) AwaitEvent(method string, timeout time.Duration) (*rpc.Frame, []rpc.Frame) {
	return conn.await(timeout, func(frame rpc.Frame) bool {
		return frame.IsEvent(method)
	})
}

// Next waits up to timeout for any frame.
func (conn *Conn) Next(timeout time.Duration) (rpc.Frame, bool) {
	return conn.inbox.next(timeout)
}

// Drain returns every buffered frame without waiting.
func (conn *Conn) Drain() []rpc.Frame {
	return conn.inbox.drain()
}

// Alive reports whether the reader is still receiving.
func (conn *Conn) Alive() bool {
	return !conn.isClosed() && !conn.inbox.closed()
}

func (conn *Conn) Outstanding() int {
	return conn.requests.Outstanding()
}

func (conn *Conn) Close() error {
	var closeErr error
	conn.closeOnce.Do(func() {
		close(conn.closed)

		conn.writeLock.Lock()
		_ = conn.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closed"),
			time.Now().Add(defaultCloseTimeout),
		)
		conn.writeLock.Unlock()

		closeErr = conn.ws.Close()
		select {
		case <-conn.readDone:
		case <-time.After(defaultCloseTimeout):
		}

		if abandoned := conn.requests.Close(); len(abandoned) > 0 {
			conn.logger.Debug("devtools requests abandoned on close",
				zap.Int("count", len(abandoned)),
				zap.Int64("last_id", conn.requests.LastID()),
			)
		}
	})
	return closeErr
}

func (conn *Conn) isClosed() bool {
	select {
	case <-conn.closed:
		return true
	default:
		return false
	}
}

func (conn *Conn) await(timeout time.Duration, match func(rpc.Frame) bool) (*rpc.Frame, []rpc.Frame) {
	deadline := time.Now().Add(timeout)
	var drained []rpc.Frame
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, drained
		}
		frame, ok := conn.inbox.next(remaining)
		if !ok {
			return nil, drained
		}
		drained = append(drained, frame)
		if match(frame) {
			matched := frame
			return &matched, drained
		}
	}
}

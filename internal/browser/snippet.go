package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/joshp123/outputgen/internal/console"
	"github.com/joshp123/outputgen/internal/rpc"
)

const (
	eventConsoleAPICalled    = "Runtime.consoleAPICalled"
	eventExceptionThrown     = "Runtime.exceptionThrown"
	eventFrameStoppedLoading = "Page.frameStoppedLoading"

	// pollInterval bounds how long a wait goes without checking ctx.
	pollInterval = 100 * time.Millisecond
)

// RunSnippet loads code as the only script of a page and returns its console
// lines joined by newlines. Collection ends when the page finishes loading,
// when an uncaught exception is reported, or after EventTimeout without any
// event. A timeout is not an error.
func (runner *Runner) RunSnippet(ctx context.Context, code string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	runner.mu.Lock()
	if runner.state != StateConnected {
		state := runner.state
		runner.mu.Unlock()
		if state == StateStopped {
			return "", ErrStopped
		}
		return "", fmt.Errorf("%w: state %s", ErrNotConnected, state)
	}
	runner.state = StateRunning
	runner.staged = runner.config.StagingPath
	conn := runner.conn
	client := runner.client
	runner.mu.Unlock()
	defer runner.setState(StateConnected)

	page := "<script>" + code + "</script>"
	if err := os.WriteFile(runner.config.StagingPath, []byte(page), 0o644); err != nil {
		return "", fmt.Errorf("stage snippet: %w", err)
	}

	exchange, err := client.Send(proto.PageNavigate{URL: "file://" + runner.config.StagingPath})
	if err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}

	collector := &collector{logger: runner.logger}
	for _, frame := range exchange.Interleaved {
		// A load event that precedes the navigation reply belongs to the
		// previous page.
		if exchange.Replied && frame.IsEvent(eventFrameStoppedLoading) {
			runner.logger.Debug("skipping load event from previous page")
			continue
		}
		done, err := collector.handle(frame)
		if err != nil {
			return "", err
		}
		if done {
			return collector.output(), nil
		}
	}

	for {
		frame, ok, err := runner.nextFrame(ctx, conn)
		if err != nil {
			return "", err
		}
		if !ok {
			runner.logger.Debug("no more output", zap.Int("lines", len(collector.lines)))
			return collector.output(), nil
		}
		done, err := collector.handle(frame)
		if err != nil {
			return "", err
		}
		if done {
			return collector.output(), nil
		}
	}
}

type frameSource interface {
	Next(timeout time.Duration) (rpc.Frame, bool)
	Alive() bool
}

// nextFrame waits up to EventTimeout for one frame, giving up early when ctx
// ends or the connection drops.
func (runner *Runner) nextFrame(ctx context.Context, source frameSource) (rpc.Frame, bool, error) {
	deadline := time.Now().Add(runner.config.EventTimeout)
	for {
		if err := ctx.Err(); err != nil {
			return rpc.Frame{}, false, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return rpc.Frame{}, false, nil
		}
		frame, ok := source.Next(min(remaining, pollInterval))
		if ok {
			return frame, true, nil
		}
		if !source.Alive() {
			runner.logger.Warn("connection lost while collecting output")
			return rpc.Frame{}, false, nil
		}
	}
}

type collector struct {
	logger *zap.Logger
	lines  []string
}

func (collector *collector) output() string {
	return strings.Join(collector.lines, "\n")
}

// handle records what frame contributes to the output and reports whether
// the run is over.
func (collector *collector) handle(frame rpc.Frame) (bool, error) {
	if frame.Kind == rpc.FrameInvalid {
		collector.logger.Debug("ignoring invalid frame", zap.ByteString("raw", frame.Raw))
		return false, nil
	}
	if frame.Kind != rpc.FrameEvent {
		return false, nil
	}

	switch frame.Method {
	case eventConsoleAPICalled:
		var event proto.RuntimeConsoleAPICalled
		if err := frame.DecodeParams(&event); err != nil {
			return false, fmt.Errorf("%s: %w", frame.Method, err)
		}
		line, err := console.FormatArgs(event.Args)
		if err != nil {
			return false, fmt.Errorf("console.%s: %w", event.Type, err)
		}
		collector.lines = append(collector.lines, line)
		return false, nil
	case eventFrameStoppedLoading:
		return true, nil
	case eventExceptionThrown:
		var event proto.RuntimeExceptionThrown
		if err := frame.DecodeParams(&event); err != nil {
			return false, fmt.Errorf("%s: %w", frame.Method, err)
		}
		collector.lines = append(collector.lines, "Uncaught "+exceptionMessage(event.ExceptionDetails))
		return true, nil
	default:
		collector.logger.Debug("ignoring event", zap.String("method", frame.Method))
		return false, nil
	}
}

func exceptionMessage(details *proto.RuntimeExceptionDetails) string {
	if details == nil {
		return ""
	}
	if details.Exception != nil && details.Exception.Description != "" {
		return console.FirstLine(details.Exception.Description)
	}
	return details.Text
}

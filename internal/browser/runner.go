// Package browser runs code snippets in a headless browser and collects what
// they print to the console.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/joshp123/outputgen/internal/cdp"
	"github.com/joshp123/outputgen/internal/transport"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateRunning
	StateStopped
)

func (state State) String() string {
	switch state {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(state))
	}
}

// Runner owns one browser session. Snippets run one at a time.
type Runner struct {
	config Config
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	process *process
	conn    *transport.Conn
	client  *cdp.Client
	// staged is the page file written by the last snippet run.
	staged string

	stopOnce sync.Once
	stopErr  error
}

func NewRunner(config Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{config: config, logger: logger.Named("browser")}
}

func (runner *Runner) State() State {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	return runner.state
}

func (runner *Runner) setState(state State) {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.state == StateStopped {
		return
	}
	runner.state = state
}

// Start launches the browser (unless attaching), connects to its first page
// target and enables the domains snippets report through. Any failure leaves
// the runner stopped with the browser process gone.
func (runner *Runner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	config, err := normalizeConfig(runner.config)
	if err != nil {
		return err
	}

	runner.mu.Lock()
	switch runner.state {
	case StateDisconnected:
	case StateStopped:
		runner.mu.Unlock()
		return ErrStopped
	default:
		runner.mu.Unlock()
		return ErrAlreadyStarted
	}
	runner.config = config
	runner.state = StateConnecting
	runner.mu.Unlock()

	if err := runner.start(ctx); err != nil {
		return multierr.Append(err, runner.Stop())
	}
	runner.setState(StateConnected)
	return nil
}

func (runner *Runner) start(ctx context.Context) error {
	if !runner.config.Attach {
		path, err := resolveBrowser(runner.config.BrowserPath)
		if err != nil {
			return err
		}
		proc, err := startProcess(path, runner.config.launchArgs(), buildEnv(runner.config.Env), runner.logger)
		if err != nil {
			return err
		}
		runner.mu.Lock()
		runner.process = proc
		runner.mu.Unlock()
	}

	if err := runner.connectWithRetry(ctx); err != nil {
		return err
	}
	return runner.enableDomains()
}

func (runner *Runner) connectWithRetry(ctx context.Context) error {
	attempts := runner.config.ConnectAttempts
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := runner.processExited(); err != nil {
			return err
		}

		err := runner.connect(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		runner.logger.Debug("connect attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(runner.config.ConnectInterval):
		}
	}
	return runner.withStderr(fmt.Errorf("%w after %d attempts: %v", ErrConnectFailed, attempts, lastErr))
}

func (runner *Runner) connect(ctx context.Context) error {
	targets, err := transport.ListTargets(ctx, runner.config.Host, runner.config.Port)
	if err != nil {
		return err
	}
	target, err := transport.PageTarget(targets, runner.config.TargetIndex)
	if err != nil {
		return err
	}
	conn, err := transport.Dial(ctx, target.WebSocketDebuggerURL, transport.Options{Logger: runner.logger})
	if err != nil {
		return err
	}

	runner.mu.Lock()
	runner.conn = conn
	runner.client = cdp.New(conn, cdp.Options{Timeout: runner.config.CommandTimeout, Logger: runner.logger})
	runner.mu.Unlock()
	runner.logger.Info("connected to browser", zap.String("target", target.ID), zap.String("url", target.WebSocketDebuggerURL))
	return nil
}

func (runner *Runner) enableDomains() error {
	for _, request := range []cdp.Request{proto.NetworkEnable{}, proto.PageEnable{}, proto.RuntimeEnable{}} {
		exchange, err := runner.client.Send(request)
		if err != nil {
			return fmt.Errorf("%s: %w", request.ProtoReq(), err)
		}
		if !exchange.Replied {
			runner.logger.Warn("no reply to domain enable", zap.String("method", request.ProtoReq()))
		}
	}
	return nil
}

func (runner *Runner) processExited() error {
	runner.mu.Lock()
	proc := runner.process
	runner.mu.Unlock()
	if proc == nil {
		return nil
	}
	done, waitErr := proc.exited()
	if !done {
		return nil
	}
	err := fmt.Errorf("%w: browser exited during startup", ErrConnectFailed)
	if waitErr != nil {
		err = fmt.Errorf("%w: browser exited during startup: %v", ErrConnectFailed, waitErr)
	}
	return runner.withStderr(err)
}

func (runner *Runner) withStderr(err error) error {
	runner.mu.Lock()
	proc := runner.process
	runner.mu.Unlock()
	if proc == nil {
		return err
	}
	if tail := proc.stderrTail(); tail != "" {
		return fmt.Errorf("%w\nbrowser stderr:\n%s", err, tail)
	}
	return err
}

// Stop closes the session, terminates a launched browser and removes the
// staging page. It is safe to call more than once and without Start.
func (runner *Runner) Stop() error {
	runner.stopOnce.Do(func() {
		runner.mu.Lock()
		runner.state = StateStopped
		conn := runner.conn
		proc := runner.process
		staged := runner.staged
		runner.mu.Unlock()

		var err error
		if conn != nil {
			err = multierr.Append(err, conn.Close())
		}
		if proc != nil {
			err = multierr.Append(err, proc.terminate(runner.shutdownTimeout()))
		}
		if staged != "" {
			if removeErr := os.Remove(staged); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				err = multierr.Append(err, removeErr)
			}
		}
		runner.stopErr = err
		runner.logger.Debug("runner stopped", zap.Error(err))
	})
	return runner.stopErr
}

func (runner *Runner) shutdownTimeout() time.Duration {
	if runner.config.ShutdownTimeout > 0 {
		return runner.config.ShutdownTimeout
	}
	return defaultShutdownTimeout
}

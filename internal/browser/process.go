package browser

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

const stderrLimit = 4096

// process is one launched browser. Its stderr is kept for error reports.
type process struct {
	cmd    *exec.Cmd
	logger *zap.Logger

	stderr   tailBuffer
	waitDone chan struct{}
	waitErr  error
}

func resolveBrowser(path string) (string, error) {
	if path != "" {
		resolved, err := exec.LookPath(path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrBrowserNotFound, err)
		}
		return resolved, nil
	}
	found, ok := launcher.LookPath()
	if !ok {
		return "", fmt.Errorf("%w: no Chrome or Chromium installation found", ErrBrowserNotFound)
	}
	return found, nil
}

func startProcess(path string, args []string, env []string, logger *zap.Logger) (*process, error) {
	cmd := exec.Command(path, args...)
	cmd.Env = env
	proc := &process{cmd: cmd, logger: logger, waitDone: make(chan struct{})}
	cmd.Stderr = &proc.stderr
	// Browser helper processes inherit stderr and can outlive the parent.
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", path, err)
	}
	logger.Info("browser launched", zap.String("path", path), zap.Strings("args", args), zap.Int("pid", cmd.Process.Pid))
	go proc.wait()
	return proc, nil
}

func (proc *process) wait() {
	proc.waitErr = proc.cmd.Wait()
	close(proc.waitDone)
}

// exited reports whether the process is gone, and why.
func (proc *process) exited() (bool, error) {
	select {
	case <-proc.waitDone:
		return true, proc.waitErr
	default:
		return false, nil
	}
}

// terminate asks the browser to exit and kills it after timeout.
func (proc *process) terminate(timeout time.Duration) error {
	if done, _ := proc.exited(); done {
		return nil
	}
	_ = proc.cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-proc.waitDone:
		return nil
	case <-time.After(timeout):
		proc.logger.Warn("browser ignored SIGTERM, killing", zap.Int("pid", proc.cmd.Process.Pid))
		if err := proc.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("kill browser: %w", err)
		}
		<-proc.waitDone
		return nil
	}
}

func (proc *process) stderrTail() string {
	return strings.TrimSpace(proc.stderr.String())
}

// tailBuffer keeps the last stderrLimit bytes written to it.
type tailBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (tail *tailBuffer) Write(chunk []byte) (int, error) {
	tail.mu.Lock()
	defer tail.mu.Unlock()
	_, _ = tail.buffer.Write(chunk)
	if excess := tail.buffer.Len() - stderrLimit; excess > 0 {
		tail.buffer.Next(excess)
	}
	return len(chunk), nil
}

func (tail *tailBuffer) String() string {
	tail.mu.Lock()
	defer tail.mu.Unlock()
	return tail.buffer.String()
}

package testsupport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

// ArgsFileEnv names a file the helper browser writes its launch flags to.
const ArgsFileEnv = "FAKE_BROWSER_ARGS_FILE"

const portFlag = "--remote-debugging-port="

// RunBrowser is the body of a helper process standing in for a browser
// binary. It serves scenario on the port named by --remote-debugging-port
// until it is terminated.
func RunBrowser(scenario string, args []string) error {
	if path := os.Getenv(ArgsFileEnv); path != "" {
		if err := os.WriteFile(path, []byte(strings.Join(args, "\n")), 0o644); err != nil {
			return err
		}
	}

	port := ""
	for _, arg := range args {
		if value, ok := strings.CutPrefix(arg, portFlag); ok {
			port = value
		}
	}
	if port == "" {
		return fmt.Errorf("missing %s flag in %q", portFlag, args)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	if scenario == ScenarioSlowStart {
		select {
		case <-time.After(300 * time.Millisecond):
		case <-ctx.Done():
			return nil
		}
	}

	listener, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", port))
	if err != nil {
		return err
	}
	server := &http.Server{Handler: NewBrowser(scenario), ReadHeaderTimeout: time.Second}
	served := make(chan error, 1)
	go func() {
		served <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		return server.Close()
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// HelperArgs splits a helper process command line into the scenario that
// follows "--" and the flags passed after it.
func HelperArgs(args []string, fallback string) (string, []string) {
	for index, arg := range args {
		if arg == "--" && index+1 < len(args) {
			return args[index+1], args[index+2:]
		}
	}
	return fallback, nil
}

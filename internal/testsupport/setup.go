package testsupport

import (
	"fmt"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// HelperEnv switches a test binary into fake browser mode.
const HelperEnv = "GO_WANT_BROWSER_HELPER"

// SetupFakeBrowser writes an executable that re-runs the current test binary
// as a fake browser for scenario, and returns its path.
func SetupFakeBrowser(t *testing.T, scenario string) string {
	t.Helper()

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable failed: %v", err)
	}

	scriptPath := filepath.Join(t.TempDir(), "chrome")
	script := fmt.Sprintf("#!/usr/bin/env bash\nset -euo pipefail\n%s=1 exec %q -test.run '^TestHelperProcess$' -- %q \"$@\"\n", HelperEnv, exe, scenario)
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write fake browser: %v", err)
	}
	return scriptPath
}

// ServeBrowser runs an in-process fake browser endpoint for the duration of
// the test.
func ServeBrowser(t *testing.T, scenario string) (*Browser, string, int) {
	t.Helper()

	browser := NewBrowser(scenario)
	server := httptest.NewServer(browser)
	t.Cleanup(server.Close)

	host, port, err := net.SplitHostPort(server.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split test server address: %v", err)
	}
	number, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("parse test server port: %v", err)
	}
	return browser, host, number
}

// FreePort returns a local TCP port that was free when checked.
func FreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostPort(t *testing.T, server *httptest.Server) (string, int) {
	t.Helper()
	host, portText, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portText)
	require.NoError(t, err)
	return host, port
}

func TestListTargets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[
			{"id":"SW","type":"service_worker","url":"x","webSocketDebuggerUrl":"ws://h/devtools/page/SW"},
			{"id":"P1","type":"page","title":"about:blank","url":"about:blank","webSocketDebuggerUrl":"ws://h/devtools/page/P1"}
		]`))
	}))
	defer server.Close()

	host, port := hostPort(t, server)
	targets, err := ListTargets(context.Background(), host, port)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "P1", targets[1].ID)

	target, err := PageTarget(targets, 0)
	require.NoError(t, err)
	assert.Equal(t, "ws://h/devtools/page/P1", target.WebSocketDebuggerURL)
}

func TestListTargetsRejectsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "starting", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	host, port := hostPort(t, server)
	_, err := ListTargets(context.Background(), host, port)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestPageTargetFallsBackToAnyDebuggableTarget(t *testing.T) {
	targets := []Target{
		{ID: "B", Type: "browser"},
		{ID: "W", Type: "worker", WebSocketDebuggerURL: "ws://h/w"},
	}
	target, err := PageTarget(targets, 0)
	require.NoError(t, err)
	assert.Equal(t, "W", target.ID)
}

func TestPageTargetIndexOutOfRange(t *testing.T) {
	_, err := PageTarget(nil, 0)
	assert.True(t, errors.Is(err, ErrNoTarget))

	_, err = PageTarget([]Target{{Type: "page", WebSocketDebuggerURL: "ws://h/p"}}, 1)
	assert.True(t, errors.Is(err, ErrNoTarget))
}

package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Scenarios understood by Browser.
const (
	// ScenarioHappy replies to navigation, then plays the snippet's directives
	// and signals that the frame stopped loading.
	ScenarioHappy = "happy"
	// ScenarioEarlyEvents plays the directives before the navigation reply.
	ScenarioEarlyEvents = "early_events"
	// ScenarioNoStop never signals that loading finished.
	ScenarioNoStop = "no_stop"
	// ScenarioRejectEnable fails Runtime.enable with an error reply.
	ScenarioRejectEnable = "reject_enable"
	// ScenarioNoTargets lists no debuggable targets.
	ScenarioNoTargets = "no_targets"
	// ScenarioSlowStart delays listening; only meaningful for RunBrowser.
	ScenarioSlowStart = "slow_start"
)

// Snippet directives. A snippet line starting with ConsoleDirective carries a
// JSON array of remote values logged as one console call; ExceptionDirective
// throws an error with the rest of the line as its message and ends the
// script; TextExceptionDirective reports the rest of the line as exception
// text without an exception object.
const (
	ConsoleDirective       = "//>"
	ExceptionDirective     = "//!"
	TextExceptionDirective = "//~"
)

const (
	pagePath = "/devtools/page/fake-page"
	frameID  = "fake-frame"
)

type command struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Browser serves the subset of a browser's remote-debugging endpoint the
// session runner talks to: the GET /json listing and one page session.
type Browser struct {
	scenario string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	methods []string
}

func NewBrowser(scenario string) *Browser {
	return &Browser{scenario: scenario}
}

// Methods returns every command method received so far, in order.
func (browser *Browser) Methods() []string {
	browser.mu.Lock()
	defer browser.mu.Unlock()
	return append([]string(nil), browser.methods...)
}

func (browser *Browser) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/json" || r.URL.Path == "/json/list":
		browser.serveTargets(w, r)
	case r.URL.Path == pagePath:
		browser.serveSession(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (browser *Browser) serveTargets(w http.ResponseWriter, r *http.Request) {
	targets := []map[string]any{}
	if browser.scenario != ScenarioNoTargets {
		targets = append(targets,
			map[string]any{
				"id":                   "fake-worker",
				"type":                 "service_worker",
				"title":                "worker",
				"url":                  "about:blank",
				"webSocketDebuggerUrl": "ws://" + r.Host + "/devtools/worker/fake-worker",
			},
			map[string]any{
				"id":                   "fake-page",
				"type":                 "page",
				"title":                "about:blank",
				"url":                  "about:blank",
				"webSocketDebuggerUrl": "ws://" + r.Host + pagePath,
			},
		)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(targets)
}

func (browser *Browser) serveSession(w http.ResponseWriter, r *http.Request) {
	ws, err := browser.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	for {
		var incoming command
		if err := ws.ReadJSON(&incoming); err != nil {
			return
		}
		browser.mu.Lock()
		browser.methods = append(browser.methods, incoming.Method)
		browser.mu.Unlock()

		if err := browser.handle(ws, incoming); err != nil {
			return
		}
	}
}

func (browser *Browser) handle(ws *websocket.Conn, incoming command) error {
	switch incoming.Method {
	case "Page.navigate":
		return browser.navigate(ws, incoming)
	case "Runtime.enable":
		if browser.scenario == ScenarioRejectEnable {
			return ws.WriteJSON(map[string]any{
				"id":    incoming.ID,
				"error": map[string]any{"code": -32601, "message": "'Runtime.enable' wasn't found"},
			})
		}
	}
	return ws.WriteJSON(map[string]any{"id": incoming.ID, "result": map[string]any{}})
}

func (browser *Browser) navigate(ws *websocket.Conn, incoming command) error {
	var params struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(incoming.Params, &params); err != nil {
		return err
	}
	events, err := snippetEvents(params.URL)
	if err != nil {
		return ws.WriteJSON(map[string]any{
			"id":    incoming.ID,
			"error": map[string]any{"code": -32000, "message": err.Error()},
		})
	}

	reply := map[string]any{"id": incoming.ID, "result": map[string]any{"frameId": frameID, "loaderId": "fake-loader"}}
	frames := []any{event("Page.frameStartedLoading", map[string]any{"frameId": frameID})}
	if browser.scenario == ScenarioEarlyEvents {
		frames = append(frames, events...)
		frames = append(frames, reply)
	} else {
		frames = append([]any{reply}, frames...)
		frames = append(frames, events...)
	}
	if browser.scenario != ScenarioNoStop {
		frames = append(frames, event("Page.frameStoppedLoading", map[string]any{"frameId": frameID}))
	}

	for _, frame := range frames {
		if err := ws.WriteJSON(frame); err != nil {
			return err
		}
	}
	return nil
}

// snippetEvents loads the staged page at url and turns the directives of its
// script into the events a browser would emit while running it.
func snippetEvents(url string) ([]any, error) {
	path, ok := strings.CutPrefix(url, "file://")
	if !ok {
		return nil, fmt.Errorf("unsupported url %q", url)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	page := string(raw)
	script, ok := strings.CutPrefix(page, "<script>")
	if !ok {
		return nil, fmt.Errorf("page has no script: %q", page)
	}
	script, _, _ = strings.Cut(script, "</script>")

	var events []any
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, ConsoleDirective):
			var args []json.RawMessage
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, ConsoleDirective)), &args); err != nil {
				return nil, fmt.Errorf("console directive: %w", err)
			}
			events = append(events, event("Runtime.consoleAPICalled", map[string]any{
				"type":               "log",
				"args":               args,
				"executionContextId": 1,
				"timestamp":          1700000000000.5,
			}))
		case strings.HasPrefix(line, ExceptionDirective):
			message := strings.TrimSpace(strings.TrimPrefix(line, ExceptionDirective))
			events = append(events, exception("Uncaught", map[string]any{
				"type":        "object",
				"subtype":     "error",
				"className":   "Error",
				"description": message + "\n    at file:///__test_code.html:1:7",
			}))
			return events, nil
		case strings.HasPrefix(line, TextExceptionDirective):
			events = append(events, exception(strings.TrimSpace(strings.TrimPrefix(line, TextExceptionDirective)), nil))
			return events, nil
		}
	}
	return events, nil
}

func exception(text string, value map[string]any) any {
	details := map[string]any{
		"exceptionId":  1,
		"text":         text,
		"lineNumber":   0,
		"columnNumber": 6,
	}
	if value != nil {
		details["exception"] = value
	}
	return event("Runtime.exceptionThrown", map[string]any{
		"timestamp":        1700000000000.5,
		"exceptionDetails": details,
	})
}

func event(method string, params map[string]any) map[string]any {
	return map[string]any{"method": method, "params": params}
}

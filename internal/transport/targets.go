package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

var defaultDiscoveryTimeout = 2 * time.Second

// Target is one entry of the endpoint's GET /json listing.
type Target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// ListTargets fetches the target list from http://host:port/json.
func ListTargets(ctx context.Context, host string, port int) ([]Target, error) {
	endpoint := fmt.Sprintf("http://%s/json", net.JoinHostPort(host, strconv.Itoa(port)))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	request.Close = true

	client := &http.Client{Timeout: defaultDiscoveryTimeout}
	response, err := client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list targets: %s returned %s", endpoint, response.Status)
	}
	var targets []Target
	if err := json.NewDecoder(response.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("list targets: decode: %w", err)
	}
	return targets, nil
}

// PageTarget picks the index-th attachable target, counting page targets
// first and falling back to the raw listing when no page is present.
func PageTarget(targets []Target, index int) (Target, error) {
	candidates := make([]Target, 0, len(targets))
	for _, target := range targets {
		if target.Type == "page" && target.WebSocketDebuggerURL != "" {
			candidates = append(candidates, target)
		}
	}
	if len(candidates) == 0 {
		for _, target := range targets {
			if target.WebSocketDebuggerURL != "" {
				candidates = append(candidates, target)
			}
		}
	}
	if index < 0 || index >= len(candidates) {
		return Target{}, fmt.Errorf("%w: want index %d of %d", ErrNoTarget, index, len(candidates))
	}
	return candidates[index], nil
}

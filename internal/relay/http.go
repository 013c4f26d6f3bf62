package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

const maxResponseBytes = 8 << 20

// DefaultPaths maps targets to endpoints on the AI backend.
var DefaultPaths = map[Target]string{
	TargetTrend:   "/api/analyze-trends",
	TargetScoring: "/api/score-users",
	TargetSeyna:   "/api/seyna/command",
	TargetAgent:   "/api/agent/chat",
	TargetPixel:   "/api/vision",
}

// HTTPTransport POSTs the payload to BaseURL + path and returns the body.
type HTTPTransport struct {
	BaseURL string
	Paths   map[Target]string
	Client  *http.Client
}

// NewHTTPTransport returns a transport using the default endpoint layout.
// The relay deadline bounds each request, so the client has no timeout.
func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{BaseURL: baseURL, Paths: DefaultPaths, Client: &http.Client{}}
}

func (h *HTTPTransport) Name() string { return "http" }

func (h *HTTPTransport) Do(ctx context.Context, target Target, body []byte) ([]byte, error) {
	path, ok := h.Paths[target]
	if !ok {
		return nil, &Error{Kind: KindLaunch, Target: target, Transport: h.Name(), Err: fmt.Errorf("no endpoint for target %q", target)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindLaunch, Target: target, Transport: h.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		if kind, done := contextKind(ctx); done {
			return nil, &Error{Kind: kind, Target: target, Transport: h.Name(), Err: err}
		}
		return nil, &Error{Kind: KindLaunch, Target: target, Transport: h.Name(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if kind, done := contextKind(ctx); done {
			return nil, &Error{Kind: kind, Target: target, Transport: h.Name(), Err: err}
		}
		return nil, &Error{Kind: KindParse, Target: target, Transport: h.Name(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:       KindStatus,
			Target:     target,
			Transport:  h.Name(),
			StatusCode: resp.StatusCode,
			Diagnostic: truncate(raw),
		}
	}
	return raw, nil
}

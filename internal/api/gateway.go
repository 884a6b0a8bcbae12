package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/pscheid92/adminpulse/internal/credstore"
	"github.com/pscheid92/adminpulse/internal/platform/correlation"
)

// Gateway dispatches backend calls with credential attachment and one-shot
// renewal-and-retry on authorization failure.
//
// The retry budget is exactly one per request, regardless of how many
// renewal attempts happen elsewhere: a request that still gets a 401 after
// a successful renewal is returned as-is. The budget is tracked per call,
// so concurrent unrelated requests are unaffected by one request's retry.
type Gateway struct {
	baseURL string
	client  *http.Client
	store   credstore.Store
	renewer *Renewer
	metrics MetricsRecorder
}

// NewGateway builds a gateway for the backend at baseURL. The renewer is
// shared with the session manager so all renewal goes through one place.
func NewGateway(baseURL string, client *http.Client, store credstore.Store, renewer *Renewer, metrics MetricsRecorder) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &Gateway{
		baseURL: baseURL,
		client:  client,
		store:   store,
		renewer: renewer,
		metrics: metrics,
	}
}

// Do dispatches the request. Transport failures are returned unchanged as
// errors; every HTTP response, including errors and the post-renewal 401,
// is returned as a *Response for the typed clients to interpret.
func (g *Gateway) Do(ctx context.Context, req Request) (*Response, error) {
	resp, err := g.dispatch(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// One renewal, one replay. A renewal failure has already cleared the
	// credentials and raised the invalidation signal; the original 401 is
	// what the caller gets to see.
	if _, err := g.renewer.Renew(ctx); err != nil {
		slog.Warn("Token renewal failed, returning original response",
			"method", req.Method, "path", req.Path, "error", err)
		return resp, nil
	}

	if g.metrics != nil {
		g.metrics.RequestReplayed()
	}
	slog.Debug("Replaying request after token renewal", "method", req.Method, "path", req.Path)

	return g.dispatch(ctx, req)
}

// dispatch performs a single attach-and-send with no retry logic.
func (g *Gateway) dispatch(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, g.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if len(req.Query) > 0 {
		httpReq.URL.RawQuery = req.Query.Encode()
	}
	correlation.Propagate(ctx, httpReq)

	access, err := g.store.GetAccess(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read access token: %w", err)
	}
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %s %s failed: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s %s: %w", req.Method, req.Path, err)
	}

	if g.metrics != nil {
		g.metrics.RequestDispatched(req.Method, req.Path, httpResp.StatusCode)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pscheid92/adminpulse/internal/domain"
)

// StatsClient wraps the backend's dashboard statistics endpoint.
type StatsClient struct {
	gw *Gateway
}

func NewStatsClient(gw *Gateway) *StatsClient {
	return &StatsClient{gw: gw}
}

func (c *StatsClient) Get(ctx context.Context) (*domain.Stats, error) {
	resp, err := c.gw.Do(ctx, Request{Method: http.MethodGet, Path: "/stats"})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errorFromResponse(resp)
	}

	var stats domain.Stats
	if err := resp.Decode(&stats); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &stats, nil
}

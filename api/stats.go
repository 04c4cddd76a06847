package api

import (
	"context"
	"fmt"
	"net/url"
)

var (
	statsPeriods = map[string]bool{"1d": true, "7d": true, "30d": true, "90d": true}
	statsActions = map[string]bool{
		"all": true, "check": true, "download": true,
		"install": true, "success": true, "failed": true,
	}
)

// Stats returns the dashboard summary. Empty period and action use the
// server defaults (7d, all).
func (c *Client) Stats(ctx context.Context, period, action string) (*Stats, error) {
	q, err := periodQuery(period)
	if err != nil {
		return nil, err
	}
	if action != "" {
		if !statsActions[action] {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
		}
		q.Set("action", action)
	}
	var out Stats
	if err := c.get(ctx, "/stats", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VersionDistribution(ctx context.Context, period string) (Raw, error) {
	return c.distribution(ctx, "/stats/distribution", period)
}

func (c *Client) RegionDistribution(ctx context.Context, period string) (Raw, error) {
	return c.distribution(ctx, "/stats/regions", period)
}

func (c *Client) distribution(ctx context.Context, path, period string) (Raw, error) {
	q, err := periodQuery(period)
	if err != nil {
		return nil, err
	}
	var out Raw
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func periodQuery(period string) (url.Values, error) {
	q := url.Values{}
	if period == "" {
		return q, nil
	}
	if !statsPeriods[period] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	q.Set("period", period)
	return q, nil
}

package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/api"
	"github.com/MrEthical07/goAdmin/router"
)

// view loads the backend data shown by one route.
type view func(ctx context.Context, c *api.Client, q url.Values) (any, error)

type listing[T any] struct {
	Items      []T             `json:"items"`
	Pagination *api.Pagination `json:"pagination,omitempty"`
}

type statistics struct {
	Summary      *api.Stats `json:"summary"`
	Versions     api.Raw    `json:"versions"`
	Regions      api.Raw    `json:"regions"`
	Period       string     `json:"period"`
	ActionFilter string     `json:"action,omitempty"`
}

var views = map[string]view{
	router.RouteDashboard: func(ctx context.Context, c *api.Client, q url.Values) (any, error) {
		return c.Stats(ctx, q.Get("period"), q.Get("action"))
	},
	router.RouteApplications: func(ctx context.Context, c *api.Client, q url.Values) (any, error) {
		apps, p, err := c.Applications(ctx, pageOf(q))
		if err != nil {
			return nil, err
		}
		return listing[api.Application]{Items: apps, Pagination: p}, nil
	},
	router.RouteVersions: func(ctx context.Context, c *api.Client, q url.Values) (any, error) {
		versions, p, err := c.Versions(ctx, api.VersionFilter{
			Page:    pageOf(q),
			AppID:   q.Get("app_id"),
			Channel: q.Get("channel"),
		})
		if err != nil {
			return nil, err
		}
		return listing[api.Version]{Items: versions, Pagination: p}, nil
	},
	router.RouteChannels: func(ctx context.Context, c *api.Client, _ url.Values) (any, error) {
		channels, err := c.Channels(ctx)
		if err != nil {
			return nil, err
		}
		return listing[api.Channel]{Items: channels}, nil
	},
	router.RouteStatistics: func(ctx context.Context, c *api.Client, q url.Values) (any, error) {
		period := q.Get("period")
		if period == "" {
			period = "7d"
		}
		out := statistics{Period: period, ActionFilter: q.Get("action")}
		var err error
		if out.Summary, err = c.Stats(ctx, period, out.ActionFilter); err != nil {
			return nil, err
		}
		if out.Versions, err = c.VersionDistribution(ctx, period); err != nil {
			return nil, err
		}
		if out.Regions, err = c.RegionDistribution(ctx, period); err != nil {
			return nil, err
		}
		return out, nil
	},
	router.RouteDocs: func(ctx context.Context, c *api.Client, _ url.Values) (any, error) {
		return c.Docs(ctx)
	},
}

// render returns the data of the named route. The login route has no backend
// data and reports the session state instead.
func render(ctx context.Context, engine *goAdmin.Engine, route string, q url.Values) (any, error) {
	if route == router.RouteLogin {
		return map[string]any{
			"route":         route,
			"authenticated": engine.State() == goAdmin.StateAuthenticated,
		}, nil
	}
	v, ok := views[route]
	if !ok {
		return nil, fmt.Errorf("no view for route %q", route)
	}
	return v(ctx, engine.Admin(), q)
}

func pageOf(q url.Values) api.Page {
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return api.Page{Page: page, Limit: limit}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrEthical07/goAdmin/transport"
)

var (
	// ErrMissingID indicates a resource identifier was empty or zero.
	ErrMissingID = errors.New("api: missing resource id")
	// ErrInvalidPeriod indicates a statistics period outside 1d, 7d, 30d, 90d.
	ErrInvalidPeriod = errors.New("api: invalid statistics period")
	// ErrInvalidAction indicates an unknown statistics action filter.
	ErrInvalidAction = errors.New("api: invalid statistics action")
	// ErrMissingFile indicates an upload without a file body.
	ErrMissingFile = errors.New("api: missing upload file")
)

// Doer sends one request through an authenticated pipeline.
type Doer interface {
	Do(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

// Client is a thin typed layer over a Doer. It is safe for concurrent use when
// the Doer is.
type Client struct {
	doer Doer
}

// New returns a client sending every call through doer.
func New(doer Doer) *Client {
	return &Client{doer: doer}
}

// Page selects a page of a list endpoint. Zero values leave the server
// defaults in place.
type Page struct {
	Page  int
	Limit int
}

func (p Page) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// Pagination is the page metadata returned by list endpoints.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Deleted is the acknowledgement payload of delete endpoints.
type Deleted struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, req *transport.Request, out any) (*transport.Response, error) {
	if c == nil || c.doer == nil {
		return nil, errors.New("api: client has no doer")
	}
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := resp.Decode(out); err != nil {
		return resp, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.do(ctx, &transport.Request{Method: http.MethodGet, Path: path, Query: query}, out)
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	_, err := c.do(ctx, &transport.Request{Method: method, Path: path, Body: body}, out)
	return err
}

// list fetches a paginated collection. Missing pagination metadata yields a
// nil *Pagination.
func (c *Client) list(ctx context.Context, path string, query url.Values, out any) (*Pagination, error) {
	resp, err := c.do(ctx, &transport.Request{Method: http.MethodGet, Path: path, Query: query}, out)
	if err != nil {
		return nil, err
	}
	if len(resp.Pagination) == 0 {
		return nil, nil
	}
	var p Pagination
	if err := json.Unmarshal(resp.Pagination, &p); err != nil {
		return nil, fmt.Errorf("decode pagination: %w", err)
	}
	return &p, nil
}

func pathID(id string) (string, error) {
	if id == "" {
		return "", ErrMissingID
	}
	return url.PathEscape(id), nil
}

func numericID(id uint64) (string, error) {
	if id == 0 {
		return "", ErrMissingID
	}
	return strconv.FormatUint(id, 10), nil
}

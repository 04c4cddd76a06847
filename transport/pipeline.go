package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goAdmin/credential"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds every call, including reading the body.
	DefaultTimeout = 10 * time.Second

	defaultMaxResponseBytes = 8 << 20

	// HeaderRequestID carries the per-call correlation id.
	HeaderRequestID = "X-Request-ID"
)

// Config describes one pipeline.
type Config struct {
	// Name labels logs and hook events, e.g. "auth" or "admin".
	Name string
	// BaseURL is the absolute base, e.g. "https://updates.example.com/admin/api/v1".
	BaseURL          string
	Timeout          time.Duration
	UserAgent        string
	MaxResponseBytes int64
}

// Event is passed to hooks after every call.
type Event struct {
	Pipeline  string
	Method    string
	Path      string
	Status    int
	Kind      Kind
	Latency   time.Duration
	RequestID string
	Err       error
}

// Hook observes completed calls. Hooks run synchronously and must not block.
type Hook func(Event)

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithHTTPClient replaces the underlying client. Its Timeout is overwritten
// by Config.Timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) {
		if c != nil {
			cp := *c
			p.http = &cp
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.notifier = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithHook(h Hook) Option {
	return func(p *Pipeline) {
		if h != nil {
			p.hooks = append(p.hooks, h)
		}
	}
}

// Request describes one call. Body is JSON-encoded unless Multipart is set.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	Header    http.Header
	Body      any
	Multipart *Multipart
}

// Pipeline applies the outbound and inbound stages to every call. It is safe
// for concurrent use.
type Pipeline struct {
	name      string
	base      *url.URL
	userAgent string
	maxBytes  int64
	http      *http.Client
	tokens    credential.Reader
	notifier  Notifier
	logger    *zap.Logger
	hooks     []Hook
}

// New builds a pipeline reading access tokens from tokens. A nil reader sends
// every call without credentials.
func New(cfg Config, tokens credential.Reader, opts ...Option) (*Pipeline, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url: %q", cfg.BaseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	if cfg.Timeout < 0 {
		return nil, errors.New("negative timeout")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = defaultMaxResponseBytes
	}
	if cfg.Name == "" {
		cfg.Name = base.Path
	}

	p := &Pipeline{
		name:      cfg.Name,
		base:      base,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxResponseBytes,
		http:      &http.Client{},
		tokens:    tokens,
		notifier:  NoOpNotifier{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.http.Timeout = cfg.Timeout
	p.logger = p.logger.With(zap.String("pipeline", p.name))
	return p, nil
}

// Name returns the pipeline label.
func (p *Pipeline) Name() string {
	return p.name
}

// Get issues a GET and decodes the payload into out.
func (p *Pipeline) Get(ctx context.Context, path string, query url.Values, out any) error {
	return p.call(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with a JSON body and decodes the payload into out.
func (p *Pipeline) Post(ctx context.Context, path string, body, out any) error {
	return p.call(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a PUT with a JSON body and decodes the payload into out.
func (p *Pipeline) Put(ctx context.Context, path string, body, out any) error {
	return p.call(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Delete issues a DELETE and decodes the payload into out.
func (p *Pipeline) Delete(ctx context.Context, path string, out any) error {
	return p.call(ctx, &Request{Method: http.MethodDelete, Path: path}, out)
}

func (p *Pipeline) call(ctx context.Context, req *Request, out any) error {
	resp, err := p.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Do runs req through both stages. The error is an *ApplicationError, a
// *TransportError, or a plain error for requests that could not be built.
func (p *Pipeline) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := p.build(ctx, method, req)
	if err != nil {
		return nil, err
	}
	requestID := httpReq.Header.Get(HeaderRequestID)

	start := time.Now()
	resp, err := p.exchange(httpReq)
	latency := time.Since(start)

	ev := Event{
		Pipeline:  p.name,
		Method:    method,
		Path:      req.Path,
		Latency:   latency,
		RequestID: requestID,
	}
	if resp != nil {
		resp.RequestID = requestID
		ev.Status = resp.Status
		ev.Kind = resp.Kind
	}
	if err != nil {
		ev.Err = err
		var appErr *ApplicationError
		if errors.As(err, &appErr) {
			ev.Status = appErr.HTTPStatus
			ev.Kind = KindEnvelopeFailure
			p.notifier.Notify(SeverityError, appErr.Message)
			p.logger.Debug("request rejected",
				zap.String("method", method),
				zap.String("path", req.Path),
				zap.Int("status", appErr.HTTPStatus),
				zap.Int("code", appErr.Code),
				zap.String("request_id", requestID),
			)
		} else {
			ev.Kind = KindTransportFailure
			if !errors.Is(err, context.Canceled) {
				p.notifier.Notify(SeverityConnectivity, ConnectivityMessage)
			}
			p.logger.Warn("request failed",
				zap.String("method", method),
				zap.String("path", req.Path),
				zap.String("request_id", requestID),
				zap.Error(err),
			)
		}
	} else {
		p.logger.Debug("request completed",
			zap.String("method", method),
			zap.String("path", req.Path),
			zap.Int("status", resp.Status),
			zap.Stringer("kind", resp.Kind),
			zap.Duration("latency", latency),
			zap.String("request_id", requestID),
		)
	}
	for _, h := range p.hooks {
		h(ev)
	}
	return resp, err
}

func (p *Pipeline) build(ctx context.Context, method string, req *Request) (*http.Request, error) {
	target := p.resolve(req.Path, req.Query)

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Multipart != nil:
		r, ct, err := req.Multipart.reader()
		if err != nil {
			return nil, err
		}
		body, contentType = r, ct
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		if c, ok := body.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, fmt.Errorf("create http request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		httpReq.Header.Set("User-Agent", p.userAgent)
	}
	if httpReq.Header.Get(HeaderRequestID) == "" {
		httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if token := p.accessToken(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

// accessToken never fails the call: a store error means "no token".
func (p *Pipeline) accessToken(ctx context.Context) string {
	if p.tokens == nil {
		return ""
	}
	rec, err := p.tokens.Load(ctx)
	if err != nil {
		p.logger.Warn("credential read failed; sending without token", zap.Error(err))
		return ""
	}
	return rec.AccessToken
}

func (p *Pipeline) resolve(path string, query url.Values) string {
	u := *p.base
	path = strings.TrimSpace(path)
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = p.base.Path + path
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (p *Pipeline) exchange(httpReq *http.Request) (*Response, error) {
	resp, err := p.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "execute http request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return nil, &TransportError{Op: "read http response", Err: err}
	}
	if int64(len(body)) > p.maxBytes {
		return nil, &TransportError{Op: "read http response", Err: ErrResponseTooLarge}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		switch {
		case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent:
			return &Response{Kind: KindRawSuccess, Status: resp.StatusCode, Header: resp.Header}, nil
		case is2xx(resp.StatusCode):
			return nil, &TransportError{Op: "read http response", Err: ErrEmptyResponse}
		}
	}

	out, err := classify(resp.StatusCode, body)
	if err != nil {
		return nil, err
	}
	out.Header = resp.Header
	return out, nil
}

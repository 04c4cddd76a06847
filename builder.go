package goAdmin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goAdmin/api"
	"github.com/MrEthical07/goAdmin/credential"
	"github.com/MrEthical07/goAdmin/internal/audit"
	"github.com/MrEthical07/goAdmin/jwt"
	"github.com/MrEthical07/goAdmin/permission"
	"github.com/MrEthical07/goAdmin/transport"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an Engine. A Builder can be used once.
type Builder struct {
	config Config

	store      credential.Store
	redis      redis.UniversalClient
	httpClient *http.Client
	notifier   transport.Notifier
	logger     *zap.Logger
	auditSink  AuditSink
	policy     *permission.Policy
	now        func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore overrides the store selected by Config.Store.
func (b *Builder) WithStore(store credential.Store) *Builder {
	b.store = store
	return b
}

// WithRedis supplies the client used by the redis store backend and the
// redis audit sink. The engine does not close a client it did not create.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithNotifier routes user-facing messages. Defaults to a zap notifier.
func (b *Builder) WithNotifier(n transport.Notifier) *Builder {
	b.notifier = n
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithPolicy replaces the default two-tier role policy.
func (b *Builder) WithPolicy(p *permission.Policy) *Builder {
	b.policy = p
	return b
}

// WithClock replaces time.Now for expiry decisions.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, opens the store and loads the persisted
// record into memory. A store that cannot be read yields an anonymous
// session, not an error.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("goadmin")

	engine := &Engine{
		config:  cfg,
		logger:  logger,
		metrics: NewMetrics(cfg.Metrics),
		policy:  b.policy,
		now:     b.now,
	}
	if engine.policy == nil {
		engine.policy = permission.DefaultPolicy()
	}
	if engine.now == nil {
		engine.now = time.Now
	}

	redisFor := func() redis.UniversalClient {
		if b.redis == nil {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Store.RedisAddr,
				Password: cfg.Store.RedisPassword,
				DB:       cfg.Store.RedisDB,
			})
			b.redis = rdb
			engine.closers = append(engine.closers, rdb.Close)
		}
		return b.redis
	}

	store := b.store
	if store == nil {
		s, err := openStore(cfg.Store, redisFor)
		if err != nil {
			engine.runClosers()
			return nil, err
		}
		store = s
	}
	engine.store = store

	inspector, err := jwt.NewInspector(jwt.Config{
		SigningMethod: jwt.SigningMethod(strings.ToLower(cfg.JWT.SigningMethod)),
		VerifyKey:     []byte(cfg.JWT.VerifyKey),
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		engine.runClosers()
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	engine.inspector = inspector

	notifier := b.notifier
	if notifier == nil {
		notifier = transport.NewZapNotifier(logger)
	}
	opts := []transport.Option{
		transport.WithNotifier(notifier),
		transport.WithLogger(logger),
		transport.WithHook(engine.observeRequest),
	}
	if b.httpClient != nil {
		opts = append(opts, transport.WithHTTPClient(b.httpClient))
	}

	reader := credential.ReadOnly(store)
	engine.authAPI, err = transport.New(transport.Config{
		Name:      "auth",
		BaseURL:   cfg.authBaseURL(),
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	}, reader, opts...)
	if err != nil {
		engine.runClosers()
		return nil, err
	}
	engine.adminAPI, err = transport.New(transport.Config{
		Name:      "admin",
		BaseURL:   cfg.adminBaseURL(),
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	}, reader, opts...)
	if err != nil {
		engine.runClosers()
		return nil, err
	}

	engine.admin = api.New(engine)
	sink := b.auditSink
	if sink == nil && cfg.Audit.Enabled {
		switch cfg.Audit.Sink {
		case AuditSinkLog:
			sink = audit.NewLogSink(logger)
		case AuditSinkRedis:
			sink = audit.NewStreamSink(redisFor(), cfg.Audit.Stream, cfg.Audit.StreamMaxLen)
		}
	}
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, sink)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
	defer cancel()
	engine.restore(ctx)

	b.built = true
	return engine, nil
}

func openStore(cfg StoreConfig, redisFor func() redis.UniversalClient) (credential.Store, error) {
	switch cfg.Backend {
	case StoreMemory:
		return credential.NewMemoryStore(), nil
	case StoreFile:
		s, err := credential.NewFileStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return s, nil
	case StoreRedis:
		return credential.NewRedisStore(redisFor(), cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, cfg.Backend)
	}
}

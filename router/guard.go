package router

import (
	"context"
	"errors"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/credential"
	"go.uber.org/zap"
)

// Session is the part of the engine the guard consults.
type Session interface {
	InitAuth() goAdmin.State
	HasPermission(tag string) bool
	FetchProfile(ctx context.Context) (*credential.User, error)
}

// Recorder counts navigation outcomes. *goAdmin.Metrics satisfies it.
type Recorder interface {
	Inc(id goAdmin.MetricID)
}

// Outcome is the kind of a navigation decision.
type Outcome uint8

const (
	Allow Outcome = iota
	Redirect
	Denied
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Decision is the result of BeforeEach. For Allow, Match is the route to
// render; for Redirect, Location is where to go instead.
type Decision struct {
	Outcome  Outcome
	Location string
	Match    Match
	Reason   string
	// Err is the resolution error for Denied decisions on unknown paths.
	Err error
}

// Option configures a Guard.
type Option func(*Guard)

func WithLogger(l *zap.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(g *Guard) {
		g.metrics = r
	}
}

// Guard runs the navigation checks. It is safe for concurrent use when the
// Session is.
type Guard struct {
	table   *Table
	session Session
	logger  *zap.Logger
	metrics Recorder
	landing string
}

// NewGuard builds a guard over table. A nil table uses DefaultTable.
func NewGuard(session Session, table *Table, opts ...Option) (*Guard, error) {
	if session == nil {
		return nil, errors.New("router: nil session")
	}
	if table == nil {
		table = DefaultTable()
	}
	landing, err := table.Resolve(LandingPath)
	if err != nil {
		return nil, err
	}
	if _, err := table.Resolve(LoginPath); err != nil {
		return nil, err
	}

	g := &Guard{
		table:   table,
		session: session,
		logger:  zap.NewNop(),
		landing: landing.Path,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Guard) Table() *Table {
	return g.table
}

// BeforeEach decides whether navigating to p may proceed.
//
// Checks run in order: the login route is skipped for an authenticated
// session, auth-only routes send an anonymous session to login, an
// unsatisfied permission tag sends the session to the landing route (or
// denies when the target is the landing route), and finally the profile is
// refreshed. Only an expired authentication stops navigation at that last
// step; other profile errors are logged.
func (g *Guard) BeforeEach(ctx context.Context, p string) Decision {
	m, err := g.table.Resolve(p)
	if err != nil {
		return g.deny(Match{Requested: Normalize(p)}, "unresolved", err)
	}

	state := g.session.InitAuth()

	if m.Path == LoginPath {
		if state == goAdmin.StateAuthenticated {
			return g.redirect(m, LandingPath, "already authenticated")
		}
		return g.allow(m)
	}

	if !m.RequiresAuth() {
		return g.allow(m)
	}
	if state != goAdmin.StateAuthenticated {
		return g.redirect(m, LoginPath, "authentication required")
	}

	if tag := m.Route.Meta.Permission; tag != "" && !g.session.HasPermission(tag) {
		g.logger.Warn("access denied: insufficient permissions",
			zap.String("path", m.Path),
			zap.String("permission", tag),
		)
		if m.Path == g.landing {
			return g.deny(m, "insufficient permissions", nil)
		}
		return g.redirect(m, LandingPath, "insufficient permissions")
	}

	if _, err := g.session.FetchProfile(ctx); err != nil {
		if errors.Is(err, goAdmin.ErrAuthExpired) {
			return g.redirect(m, LoginPath, "authentication expired")
		}
		g.logger.Warn("profile refresh failed; continuing navigation",
			zap.String("path", m.Path),
			zap.Error(err),
		)
	}
	return g.allow(m)
}

func (g *Guard) allow(m Match) Decision {
	g.inc(goAdmin.MetricNavigationAllowed)
	return Decision{Outcome: Allow, Location: m.Path, Match: m}
}

func (g *Guard) redirect(m Match, to, reason string) Decision {
	g.inc(goAdmin.MetricNavigationRedirected)
	g.logger.Debug("navigation redirected",
		zap.String("from", m.Requested),
		zap.String("to", to),
		zap.String("reason", reason),
	)
	return Decision{Outcome: Redirect, Location: to, Match: m, Reason: reason}
}

func (g *Guard) deny(m Match, reason string, err error) Decision {
	g.inc(goAdmin.MetricNavigationDenied)
	return Decision{Outcome: Denied, Match: m, Reason: reason, Err: err}
}

func (g *Guard) inc(id goAdmin.MetricID) {
	if g.metrics != nil {
		g.metrics.Inc(id)
	}
}

package router

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	// LoginPath is the route anonymous navigation is sent to.
	LoginPath = "/login"
	// LandingPath is the default route after login or a permission miss.
	LandingPath = "/"

	catchAll     = "*"
	maxRedirects = 8
)

var (
	// ErrNotFound is returned when no route matches and the table has no
	// catch-all.
	ErrNotFound = errors.New("router: no route matches path")
	// ErrRedirectLoop is returned when static redirects do not settle.
	ErrRedirectLoop = errors.New("router: redirect loop")
)

// Meta is the static access declaration of a route.
type Meta struct {
	RequiresAuth bool
	// Permission is a tag checked with Session.HasPermission. Empty means no
	// check.
	Permission string
	Title      string
}

// Route declares one navigable path. Child paths are relative to the parent
// unless they start with "/". A Path of "*" matches anything not matched
// elsewhere.
type Route struct {
	Path     string
	Name     string
	Redirect string
	Meta     Meta
	Children []Route
}

// Match is a resolved navigation target.
type Match struct {
	// Requested is the normalized path asked for, before redirects.
	Requested string
	// Path is the final path after static redirects.
	Path  string
	Route *Route
	// Chain lists the matched route's ancestors, outermost first, ending with
	// the route itself.
	Chain []*Route
}

// RequiresAuth reports whether the route or any ancestor requires a session.
func (m Match) RequiresAuth() bool {
	for _, r := range m.Chain {
		if r.Meta.RequiresAuth {
			return true
		}
	}
	return false
}

type entry struct {
	route *Route
	chain []*Route
}

// Table is an immutable set of routes. It is safe for concurrent use.
type Table struct {
	exact    map[string]entry
	byName   map[string]string
	catchAll *entry
}

// NewTable flattens routes and rejects duplicate paths or names.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{
		exact:  map[string]entry{},
		byName: map[string]string{},
	}
	cp := cloneRoutes(routes)
	if err := t.add("/", cp, nil); err != nil {
		return nil, err
	}
	return t, nil
}

// MustTable is NewTable for static tables; it panics on error.
func MustTable(routes []Route) *Table {
	t, err := NewTable(routes)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) add(prefix string, routes []Route, parents []*Route) error {
	for i := range routes {
		r := &routes[i]
		chain := append(append([]*Route(nil), parents...), r)

		if r.Path == catchAll {
			if t.catchAll != nil {
				return errors.New("router: more than one catch-all route")
			}
			t.catchAll = &entry{route: r, chain: chain}
			continue
		}

		full := r.Path
		if !strings.HasPrefix(full, "/") {
			full = path.Join(prefix, full)
		}
		full = Normalize(full)
		if _, dup := t.exact[full]; dup {
			return fmt.Errorf("router: duplicate path %q", full)
		}
		t.exact[full] = entry{route: r, chain: chain}

		if r.Name != "" {
			if _, dup := t.byName[r.Name]; dup {
				return fmt.Errorf("router: duplicate route name %q", r.Name)
			}
			t.byName[r.Name] = full
		}
		if err := t.add(full, r.Children, chain); err != nil {
			return err
		}
	}
	return nil
}

func cloneRoutes(in []Route) []Route {
	if in == nil {
		return nil
	}
	out := make([]Route, len(in))
	for i, r := range in {
		r.Children = cloneRoutes(r.Children)
		out[i] = r
	}
	return out
}

// Normalize cleans p into an absolute path without a trailing slash. Query
// strings and fragments are dropped.
func Normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return path.Clean("/" + p)
}

// Resolve matches p and follows static redirects.
func (t *Table) Resolve(p string) (Match, error) {
	requested := Normalize(p)
	current := requested
	for hops := 0; hops <= maxRedirects; hops++ {
		e, ok := t.exact[current]
		if !ok {
			if t.catchAll == nil {
				return Match{}, fmt.Errorf("%w: %s", ErrNotFound, current)
			}
			e = *t.catchAll
		}
		if e.route.Redirect != "" {
			current = Normalize(e.route.Redirect)
			continue
		}
		return Match{Requested: requested, Path: current, Route: e.route, Chain: e.chain}, nil
	}
	return Match{}, fmt.Errorf("%w: %s", ErrRedirectLoop, requested)
}

// PathOf returns the full path of a named route.
func (t *Table) PathOf(name string) (string, bool) {
	p, ok := t.byName[name]
	return p, ok
}

// Routes returns the full paths of every named route, in no fixed order.
func (t *Table) Routes() map[string]string {
	out := make(map[string]string, len(t.byName))
	for k, v := range t.byName {
		out[k] = v
	}
	return out
}

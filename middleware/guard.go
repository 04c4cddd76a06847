package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/goAdmin/router"
)

type decisionContextKey struct{}

// DecisionFromContext returns the allow decision Guard attached to the
// request.
func DecisionFromContext(ctx context.Context) (router.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(router.Decision)
	return d, ok
}

// Guard runs guard.BeforeEach for every request under basePath. Allowed
// requests reach next with the decision in their context, redirects become
// 302 responses inside basePath, and denials become 403 (404 for unknown
// paths). Requests outside basePath pass through untouched.
func Guard(guard *router.Guard, basePath string) func(http.Handler) http.Handler {
	base := "/" + strings.Trim(basePath, "/") + "/"
	if base == "//" {
		base = "/"
	}
	bare := strings.TrimSuffix(base, "/")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if guard == nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
			if bare != "" && r.URL.Path == bare {
				http.Redirect(w, r, base, http.StatusFound)
				return
			}

			rel, ok := strings.CutPrefix(r.URL.Path, base)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			d := guard.BeforeEach(r.Context(), "/"+rel)
			switch d.Outcome {
			case router.Allow:
				ctx := context.WithValue(r.Context(), decisionContextKey{}, d)
				next.ServeHTTP(w, r.WithContext(ctx))
			case router.Redirect:
				http.Redirect(w, r, base+strings.TrimPrefix(d.Location, "/"), http.StatusFound)
			default:
				if errors.Is(d.Err, router.ErrNotFound) {
					http.NotFound(w, r)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}

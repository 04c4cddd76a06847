package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/metrics/export/prometheus"
	"github.com/MrEthical07/goAdmin/middleware"
	"github.com/MrEthical07/goAdmin/router"
	"github.com/MrEthical07/goAdmin/transport"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func cmdServe(ctx context.Context, a *app, args []string) error {
	cfg := a.engine.Config()
	fs := newFlagSet(a, "serve")
	addr := fs.String("addr", cfg.UI.ListenAddr, "listen address")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	guard, err := newGuard(a)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newHandler(a.engine, guard, cfg.UI.BasePath, a.logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("admin ui listening", zap.String("addr", *addr), zap.String("base_path", cfg.UI.BasePath))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// newHandler mounts /metrics and the guarded navigation surface under
// basePath. Every GET under basePath is a navigation; POST login and logout
// drive the session.
func newHandler(engine *goAdmin.Engine, guard *router.Guard, basePath string, logger *zap.Logger) http.Handler {
	base := "/" + strings.Trim(basePath, "/") + "/"

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Method(http.MethodGet, "/metrics", prometheus.New(engine).Handler())
	if base != "/" {
		r.Get(strings.TrimSuffix(base, "/"), func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, base, http.StatusFound)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Guard(guard, basePath))

		r.Post(base+"login", func(w http.ResponseWriter, req *http.Request) {
			if err := req.ParseForm(); err != nil {
				http.Error(w, "bad form", http.StatusBadRequest)
				return
			}
			res := engine.Login(req.Context(), req.PostFormValue("username"), req.PostFormValue("password"))
			if !res.Success {
				writeResponse(w, http.StatusUnauthorized, map[string]string{"message": res.Message})
				return
			}
			http.Redirect(w, req, base, http.StatusSeeOther)
		})
		r.Post(base+"logout", func(w http.ResponseWriter, req *http.Request) {
			engine.Logout(req.Context())
			http.Redirect(w, req, base+"login", http.StatusSeeOther)
		})

		r.Get(base+"*", func(w http.ResponseWriter, req *http.Request) {
			d, ok := middleware.DecisionFromContext(req.Context())
			if !ok {
				http.NotFound(w, req)
				return
			}
			data, err := render(req.Context(), engine, d.Match.Route.Name, req.URL.Query())
			if err != nil {
				status := http.StatusBadGateway
				if transport.IsUnauthorized(err) {
					status = http.StatusUnauthorized
				}
				logger.Warn("view failed",
					zap.String("route", d.Match.Route.Name),
					zap.String("request_id", chimw.GetReqID(req.Context())),
					zap.Error(err),
				)
				writeResponse(w, status, map[string]string{"message": transport.Message(err)})
				return
			}
			writeResponse(w, http.StatusOK, map[string]any{
				"route": d.Match.Route.Name,
				"title": d.Match.Route.Meta.Title,
				"path":  d.Match.Path,
				"data":  data,
			})
		})
	})

	return r
}

func writeResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = writeJSON(w, v)
}

// Package server exposes the probe over HTTP. One router serves health,
// on-demand checks, and a WebSocket stream of check progress.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andrew-woosnam/crossgrant/internal/config"
	"github.com/andrew-woosnam/crossgrant/internal/probe"
)

// CheckRunner is the slice of the probe runner the HTTP layer uses.
type CheckRunner interface {
	Run(ctx context.Context, name string) (probe.CheckResult, error)
	RunAll(ctx context.Context) *probe.Report
	RunAllStreaming(ctx context.Context, sink probe.EventSink) *probe.Report
}

// Router wires the probe runner into HTTP routes.
type Router struct {
	router *chi.Mux
	cfg    *config.Env
	runner CheckRunner
	log    *slog.Logger
}

// NewRouter creates a chi router with all probe routes configured.
func NewRouter(cfg *config.Env, runner CheckRunner, log *slog.Logger) *Router {
	r := &Router{
		router: chi.NewRouter(),
		cfg:    cfg,
		runner: runner,
		log:    log,
	}

	r.router.Use(r.requestIDMiddleware)
	if cfg.RequestTimeout > 0 {
		r.router.Use(requestTimeoutMiddleware(cfg.RequestTimeout))
	}

	r.router.Route("/api/v1", func(api chi.Router) {
		api.With(setContentTypeJSONMiddleware).Get("/health", r.handleHealth)

		api.Group(func(checks chi.Router) {
			if cfg.APIKey != "" {
				checks.Use(r.apiKeyMiddleware)
			}
			checks.With(setContentTypeJSONMiddleware).Get("/check", r.handleCheckAll)
			// The stream route upgrades to WebSocket, so no JSON content type.
			checks.Get("/check/stream", r.handleCheckStream)
			checks.With(setContentTypeJSONMiddleware).Get("/check/{name}", r.handleCheck)
		})
	})

	return r
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

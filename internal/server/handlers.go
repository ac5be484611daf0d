package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andrew-woosnam/crossgrant/internal/api"
	"github.com/andrew-woosnam/crossgrant/internal/constants"
)

// handleHealth handles GET /api/v1/health.
func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, api.HealthResponse{
		Status:  "ok",
		Version: *constants.GetVersion(),
	})
}

// handleCheckAll handles GET /api/v1/check: every configured check runs and
// the aggregated report is returned. Check failures are data, not errors, so
// the response is 200 even when checks fail.
func (r *Router) handleCheckAll(w http.ResponseWriter, req *http.Request) {
	report := r.runner.RunAll(req.Context())
	writeJSONResponse(w, http.StatusOK, report)
}

// handleCheck handles GET /api/v1/check/{name} for a single check.
func (r *Router) handleCheck(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	result, err := r.runner.Run(req.Context(), name)
	if err != nil {
		r.handleAndLogError(w, req, err, "run check "+name)
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

// internal/api/handler.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	custom_errors "github-commit-sync/internal/errors"
	"github-commit-sync/internal/syncer"
)

// Runner starts synchronization runs and reports the last one.
type Runner interface {
	Trigger(ctx context.Context) (string, error)
	LastResult() (syncer.Result, bool)
}

// Handler is the container for API dependencies.
type Handler struct {
	runner Runner
	// runCtx outlives the request that triggers a run.
	runCtx context.Context
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
// Runs triggered over HTTP are bound to runCtx.
func NewRouter(runCtx context.Context, runner Runner, logger *slog.Logger) http.Handler {
	h := &Handler{
		runner: runner,
		runCtx: runCtx,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/sync", h.triggerSync)
	})

	return r
}

type healthResponse struct {
	Status  string         `json:"status"`
	LastRun *syncer.Result `json:"last_run"`
}

// healthCheck reports liveness and the outcome of the last run.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if last, ok := h.runner.LastResult(); ok {
		resp.LastRun = &last
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// triggerSync starts a run in the background.
// POST /v1/sync
func (h *Handler) triggerSync(w http.ResponseWriter, r *http.Request) {
	runID, err := h.runner.Trigger(h.runCtx)
	if errors.Is(err, custom_errors.ErrRunInProgress) {
		respondWithError(w, http.StatusConflict, "A sync run is already in progress")
		return
	}
	if err != nil {
		h.logger.Error("Failed to trigger sync", "error", err, "request_id", middleware.GetReqID(r.Context()))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("Sync triggered over HTTP", "run_id", runID, "request_id", middleware.GetReqID(r.Context()))
	respondWithJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

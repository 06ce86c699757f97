// Package api serves stored runs over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/verte-zerg/keyload/internal/export"
	"github.com/verte-zerg/keyload/internal/model"
	"github.com/verte-zerg/keyload/internal/stats"
	"github.com/verte-zerg/keyload/internal/store"
)

const defaultListLimit = 50

// RunStore is the read side of the run history.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	GetRun(ctx context.Context, id string) (model.Run, error)
	ListChunkTotals(ctx context.Context, runID string) ([]model.ChunkTotal, error)
}

// RunResponse is the JSON shape of a stored run.
type RunResponse struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Strategy  string         `json:"strategy"`
	ChunkSize int            `json:"chunk_size"`
	Chunks    int            `json:"chunks"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
	Best      string         `json:"best"`
	Totals    model.Snapshot `json:"totals,omitempty"`
}

// ChunkResponse is one chunk's total for one layout.
type ChunkResponse struct {
	ChunkID int    `json:"chunk_id"`
	Layout  string `json:"layout"`
	Load    int    `json:"load"`
	Presses int    `json:"presses"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	store  RunStore
	router chi.Router
}

// New creates a Handler wired to st and registers all routes.
func New(st RunStore) http.Handler {
	h := &Handler{store: st, router: chi.NewRouter()}
	h.router.Use(middleware.Recoverer)
	h.router.Get("/api/v1/health", h.health)
	h.router.Route("/api/v1/runs", func(r chi.Router) {
		r.Get("/", h.listRuns)
		r.Get("/{id}", h.getRun)
		r.Get("/{id}/chunks", h.listChunks)
		r.Get("/{id}/metrics", h.metrics)
	})
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listRuns returns GET /api/v1/runs?limit=N, newest first and without totals.
func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonErr(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp := toRunResponse(run)
		resp.Totals = nil
		out = append(out, resp)
	}
	jsonResp(w, http.StatusOK, out)
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, toRunResponse(run))
}

func (h *Handler) listChunks(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}
	chunks, err := h.store.ListChunkTotals(r.Context(), run.ID)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]ChunkResponse, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, ChunkResponse(c))
	}
	jsonResp(w, http.StatusOK, out)
}

// metrics returns the run's totals in the Prometheus text format.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = export.WritePrometheus(w, run.Totals)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (model.Run, bool) {
	run, err := h.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonErr(w, http.StatusNotFound, "run not found")
		return model.Run{}, false
	case err != nil:
		jsonErr(w, http.StatusBadRequest, err.Error())
		return model.Run{}, false
	}
	return run, true
}

func toRunResponse(run model.Run) RunResponse {
	best := ""
	if ranks := stats.RankLayouts(run.Totals); len(ranks) > 0 {
		best = ranks[0].Layout
	}
	return RunResponse{
		ID:        run.ID,
		Source:    run.Source,
		Strategy:  run.Strategy,
		ChunkSize: run.ChunkSize,
		Chunks:    run.Chunks,
		StartedAt: run.StartedAt,
		EndedAt:   run.EndedAt,
		Best:      best,
		Totals:    run.Totals,
	}
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

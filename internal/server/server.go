// Package server exposes the enriched occurrence table as a read-only JSON
// API. The pipeline itself runs only through the CLI; no mutation endpoints
// exist.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/SoleneDerville/occurrence-atlas/internal/store"
	"github.com/SoleneDerville/occurrence-atlas/internal/summary"
)

// Server serves runs and records from the store.
type Server struct {
	store store.Store
}

// New creates a Server backed by the given store.
func New(st store.Store) *Server {
	return &Server{store: st}
}

// Routes returns the HTTP handler with all endpoints registered.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /runs/{id}/records", s.handleListRecords)
	mux.HandleFunc("GET /runs/{id}/summary", s.handleSummary)

	return mux
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		serverError(w, "list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		serverError(w, "get run", err)
		return
	}
	if run == nil {
		http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RecordFilter{Species: q.Get("species")}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	records, err := s.store.ListRecords(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		serverError(w, "list records", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	if by == "" {
		by = "species"
	}

	records, err := s.store.ListRecords(r.Context(), r.PathValue("id"), store.RecordFilter{})
	if err != nil {
		serverError(w, "list records", err)
		return
	}

	groups, err := summary.Elevation(records, by)
	if err != nil {
		http.Error(w, `{"error":"unknown grouping column"}`, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"by":     by,
		"groups": groups,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func serverError(w http.ResponseWriter, action string, err error) {
	zap.L().Error("server: "+action, zap.Error(err))
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}

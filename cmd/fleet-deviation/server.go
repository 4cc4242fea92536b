package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rshade/fleet-deviation/internal/history"
	"github.com/rshade/fleet-deviation/internal/report"
)

// Server exposes reports over HTTP. /report recomputes; the other report
// endpoints answer from the latest document.
type Server struct {
	runner   *Runner
	renderer report.Renderer
	history  *history.Store
	gatherer prometheus.Gatherer
	timeout  time.Duration
	logger   zerolog.Logger

	mu     sync.RWMutex
	latest *report.Document
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	router.HandleFunc("/report", s.getReport).Methods(http.MethodGet)
	router.HandleFunc("/summary", s.getSummary).Methods(http.MethodGet)
	router.HandleFunc("/vessels/{id}", s.getVessel).Methods(http.MethodGet)
	router.HandleFunc("/vessels/{id}/trend", s.getTrend).Methods(http.MethodGet)
	router.HandleFunc("/history", s.getHistory).Methods(http.MethodGet)
	router.HandleFunc("/history/{reportID}", s.getHistoricReport).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("ok\n")); err != nil {
		s.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	renderer := s.renderer
	if format := r.URL.Query().Get("format"); format != "" {
		var err error
		if renderer, err = report.NewRenderer(format); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	doc, err := s.refresh(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("report generation failed")
		http.Error(w, "report generation failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	if err := renderer.Render(w, doc); err != nil {
		s.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	doc, err := s.current(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("report generation failed")
		http.Error(w, "report generation failed", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"reportId":          doc.ReportID,
		"generatedAt":       doc.GeneratedAt,
		"summary":           doc.Summary,
		"issues":            len(doc.Issues),
		"unmappedEmissions": doc.UnmappedEmissions,
	})
}

func (s *Server) getVessel(w http.ResponseWriter, r *http.Request) {
	doc, err := s.current(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("report generation failed")
		http.Error(w, "report generation failed", http.StatusBadGateway)
		return
	}

	id := mux.Vars(r)["id"]
	entry, ok := doc.Vessel(id)
	if !ok {
		http.Error(w, "vessel not found in latest report", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) getTrend(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "report history is disabled", http.StatusNotFound)
		return
	}
	points, err := s.history.VesselTrend(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.logger.Error().Err(err).Msg("trend query failed")
		http.Error(w, "trend query failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, points)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "report history is disabled", http.StatusNotFound)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.history.Runs(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("history query failed")
		http.Error(w, "history query failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getHistoricReport(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "report history is disabled", http.StatusNotFound)
		return
	}

	doc, err := s.history.Document(r.Context(), mux.Vars(r)["reportID"])
	switch {
	case errors.Is(err, history.ErrNotFound):
		http.Error(w, "report not found", http.StatusNotFound)
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("history query failed")
		http.Error(w, "history query failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", s.renderer.ContentType())
	if err := s.renderer.Render(w, doc); err != nil {
		s.logger.Error().Err(err).Msg("failed to write response")
	}
}

// refresh computes a new report and makes it the latest unless a newer one
// finished first.
func (s *Server) refresh(ctx context.Context) (*report.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc, err := s.runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	s.keep(doc)
	return doc, nil
}

// keep stores doc as the latest report if it is newer than the stored one.
func (s *Server) keep(doc *report.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil || doc.GeneratedAt.After(s.latest.GeneratedAt) {
		s.latest = doc
	}
}

// current returns the latest report, computing one if none exists yet.
func (s *Server) current(ctx context.Context) (*report.Document, error) {
	s.mu.RLock()
	doc := s.latest
	s.mu.RUnlock()
	if doc != nil {
		return doc, nil
	}
	return s.refresh(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Error().Err(err).Msg("failed to write response")
	}
}

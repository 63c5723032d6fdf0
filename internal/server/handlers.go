package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fabolze/SoAWebApp-sub000/internal/balance"
	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
	"github.com/fabolze/SoAWebApp-sub000/internal/logger"
)

// errBadRequest marks request bodies that could not be decoded.
var errBadRequest = errors.New("bad request")

// simulateRequest is the body of POST /api/v1/simulate and of a /ws frame.
// Runs and Seed are floats so fractional or out-of-range values clamp instead
// of failing to decode.
type simulateRequest struct {
	SchemaName   string        `json:"schemaName"`
	Entity       entity.Record `json:"entity"`
	Scenario     string        `json:"scenario"`
	Runs         *float64      `json:"runs"`
	Seed         *float64      `json:"seed"`
	ForceRefresh bool          `json:"forceRefresh"`
}

type sweepRequest struct {
	Kinds     []string `json:"kinds"`
	Scenarios []string `json:"scenarios"`
	Runs      *float64 `json:"runs"`
	Seed      *float64 `json:"seed"`
}

type sweepResponse struct {
	Count   int              `json:"count"`
	Results []balance.Result `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	DatasetsLoaded bool   `json:"datasetsLoaded"`
	LoadedAt       string `json:"loadedAt,omitempty"`
	Sessions       int    `json:"sessions"`
	Clients        int    `json:"clients"`
}

func (s *Server) runsOrDefault(runs *float64) int {
	if runs == nil {
		return balance.ClampRuns(float64(s.cfg.Simulation.Runs))
	}
	return balance.ClampRuns(*runs)
}

func (s *Server) seedOrDefault(seed *float64) int64 {
	if seed == nil {
		return balance.ClampSeed(s.cfg.Simulation.Seed)
	}
	return balance.NormalizeSeed(*seed)
}

// simulate resolves request defaults, fetches datasets and runs one evaluation.
func (s *Server) simulate(ctx context.Context, req simulateRequest) (balance.Result, error) {
	if _, err := entity.ParseKind(req.SchemaName); err != nil {
		return balance.Result{}, err
	}
	bundle, err := s.cache.Get(ctx, req.ForceRefresh)
	if err != nil {
		return balance.Result{}, fmt.Errorf("load datasets: %w", err)
	}
	scenario := req.Scenario
	if scenario == "" {
		scenario = s.cfg.Simulation.DefaultScenario
	}
	return balance.Simulate(balance.Options{
		SchemaName: req.SchemaName,
		Entity:     req.Entity,
		Datasets:   bundle,
		ScenarioID: scenario,
		Runs:       s.runsOrDefault(req.Runs),
		Seed:       s.seedOrDefault(req.Seed),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "healthy",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	}
	if at := s.cache.LoadedAt(); !at.IsZero() {
		resp.DatasetsLoaded = true
		resp.LoadedAt = at.UTC().Format(time.RFC3339)
	}
	resp.Sessions, resp.Clients = s.connLimiter.Stats()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, balance.Scenarios())
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.simulate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	kinds := make([]entity.Kind, 0, len(req.Kinds))
	for _, name := range req.Kinds {
		k, err := entity.ParseKind(name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		kinds = append(kinds, k)
	}

	bundle, err := s.cache.Get(r.Context(), false)
	if err != nil {
		writeError(w, r, fmt.Errorf("load datasets: %w", err))
		return
	}
	results, err := balance.Sweep(r.Context(), balance.SweepOptions{
		Bundle:      bundle,
		Kinds:       kinds,
		ScenarioIDs: req.Scenarios,
		Runs:        s.runsOrDefault(req.Runs),
		Seed:        s.seedOrDefault(req.Seed),
		Workers:     s.cfg.Simulation.Workers,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sweepResponse{Count: len(results), Results: results})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.cache.Invalidate()
	bundle, err := s.cache.Get(r.Context(), true)
	if err != nil {
		writeError(w, r, fmt.Errorf("reload datasets: %w", err))
		return
	}
	logger.Always("Datasets refreshed",
		"client_ip", clientIP(r),
		"records", bundle.Count())
	writeJSON(w, http.StatusOK, map[string]any{
		"records":  bundle.Count(),
		"loadedAt": s.cache.LoadedAt().UTC().Format(time.RFC3339),
	})
}

// decode reads a JSON body no larger than the configured message size.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxMessageSize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, entity.ErrUnsupportedKind):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

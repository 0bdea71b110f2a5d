// Package advisory exposes the pit-crew HTTP surface: on-demand
// inference, race context control, decision history and model
// management.
package advisory

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aryanzkys/apatte-pitbox/core/advisor"
	"github.com/aryanzkys/apatte-pitbox/core/history"
	"github.com/aryanzkys/apatte-pitbox/core/logger"
	"github.com/aryanzkys/apatte-pitbox/core/model"
	"github.com/aryanzkys/apatte-pitbox/core/perf"
	"github.com/aryanzkys/apatte-pitbox/core/racectx"
	"github.com/aryanzkys/apatte-pitbox/pkg/export"
)

// Server bundles the handlers of the advisory API. Requests must include
// an Authorization header with "Bearer <token>" when token is non-empty;
// /health stays open for probes.
type Server struct {
	engine  *advisor.Engine
	ring    *history.Ring
	tracker *racectx.Tracker
	cycles  *perf.Tracker
	models  *perf.ModelTracker
	token   string
	log     logger.Logger
}

// NewServer wires the API server. The perf trackers may be nil when no
// statistics surface is wanted.
func NewServer(engine *advisor.Engine, ring *history.Ring, tracker *racectx.Tracker, cycles *perf.Tracker, models *perf.ModelTracker, token string, log logger.Logger) (*Server, error) {
	if engine == nil || ring == nil || tracker == nil || log == nil {
		return nil, fmt.Errorf("advisory: nil parameter provided to NewServer")
	}
	return &Server{
		engine:  engine,
		ring:    ring,
		tracker: tracker,
		cycles:  cycles,
		models:  models,
		token:   token,
		log:     log,
	}, nil
}

// Routes returns the HTTP handler for the advisory API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/infer", s.guard(s.handleInfer))
	mux.Handle("/context", s.guard(s.handleContext))
	mux.Handle("/context/pit", s.guard(s.handlePit))
	mux.Handle("/decisions", s.guard(s.handleDecisions))
	mux.Handle("/decisions/export", s.guard(s.handleExport))
	mux.Handle("/decisions/chart", s.guard(s.handleChart))
	mux.Handle("/statistics", s.guard(s.handleStatistics))
	mux.Handle("/models", s.guard(s.handleModels))
	mux.Handle("/models/", s.guard(s.handleModelSwitch))
	return mux
}

func (s *Server) guard(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+s.token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("encode response: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out := map[string]any{
		"status":    "healthy",
		"decisions": s.ring.Len(),
		"models":    s.engine.Scheduler().Predictors(),
	}
	s.writeJSON(w, out)
}

// handleInfer runs one advisory cycle on the posted telemetry sample.
func (s *Server) handleInfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var sample model.TelemetrySample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	decision := s.engine.RunCycle(r.Context(), sample)
	s.writeJSON(w, decision)
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.tracker.Snapshot())
}

type pitRequest struct {
	Reason     string `json:"reason"`
	ETASeconds int    `json:"eta_seconds"`
	Clear      bool   `json:"clear"`
}

// handlePit plans or clears a pit stop on the race context.
func (s *Server) handlePit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req pitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Clear {
		s.tracker.ClearPitStop()
	} else {
		if req.ETASeconds < 0 {
			http.Error(w, "eta_seconds must not be negative", http.StatusBadRequest)
			return
		}
		s.tracker.PlanPitStop(req.Reason, req.ETASeconds)
	}
	s.writeJSON(w, s.tracker.Snapshot())
}

// decisionsFromQuery applies the history filters shared by the list,
// export and chart endpoints.
func (s *Server) decisionsFromQuery(r *http.Request) ([]model.Decision, error) {
	q := r.URL.Query()
	var floor model.Severity
	hasFloor := false
	if v := q.Get("severity"); v != "" {
		if err := floor.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return nil, err
		}
		hasFloor = true
	}
	fallbackOnly := q.Get("fallback") == "true"

	decisions := s.ring.Filter(func(d model.Decision) bool {
		if hasFloor && d.Severity < floor {
			return false
		}
		if fallbackOnly && !d.Fallback {
			return false
		}
		return true
	})

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid limit %q", v)
		}
		if n < len(decisions) {
			decisions = decisions[:n]
		}
	}
	return decisions, nil
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	decisions, err := s.decisionsFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, decisions)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	decisions, err := s.decisionsFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	switch r.URL.Query().Get("format") {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="decisions.csv"`)
		if err := export.WriteCSV(w, decisions); err != nil {
			s.log.Errorf("export csv: %v", err)
		}
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		if err := export.WriteJSON(w, decisions); err != nil {
			s.log.Errorf("export json: %v", err)
		}
	default:
		http.Error(w, "unknown format", http.StatusBadRequest)
	}
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out := map[string]any{}
	if s.cycles != nil {
		out["cycles"] = s.cycles.Snapshot()
	}
	if s.models != nil {
		out["models"] = s.models.Snapshot()
	}
	out["history_len"] = s.ring.Len()
	s.writeJSON(w, out)
}

type modelState struct {
	ID     model.PredictorID `json:"id"`
	Active bool              `json:"active"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sched := s.engine.Scheduler()
	var out []modelState
	for _, id := range sched.Predictors() {
		out = append(out, modelState{ID: id, Active: sched.Active(id)})
	}
	s.writeJSON(w, out)
}

// handleModelSwitch serves POST /models/{id}/activate and
// /models/{id}/deactivate.
func (s *Server) handleModelSwitch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/models/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	id := model.PredictorID(parts[0])
	sched := s.engine.Scheduler()
	known := false
	for _, p := range sched.Predictors() {
		if p == id {
			known = true
			break
		}
	}
	if !known {
		http.Error(w, fmt.Sprintf("unknown model %q", parts[0]), http.StatusNotFound)
		return
	}
	switch parts[1] {
	case "activate":
		sched.SetActive(id, true)
	case "deactivate":
		sched.SetActive(id, false)
	default:
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, modelState{ID: id, Active: sched.Active(id)})
}

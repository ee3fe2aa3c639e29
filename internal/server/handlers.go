package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kanungos/fundgrid/internal/modules/portfolio"
)

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// writeError writes a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth reports process liveness, database health and whether a
// run has completed.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	latest := s.state.Latest()
	payload := map[string]interface{}{
		"time":  time.Now().UTC().Format(time.RFC3339),
		"ready": latest != nil,
	}
	if latest != nil {
		payload["last_run_id"] = latest.RunID
		payload["last_run_at"] = latest.StartedAt.UTC().Format(time.RFC3339)
	}

	status := "ok"
	if len(s.dbs) > 0 {
		checks := make(map[string]string, len(s.dbs))
		for _, db := range s.dbs {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			if err := db.HealthCheck(ctx); err != nil {
				s.log.Error().Err(err).Str("database", db.Name()).Msg("Database health check failed")
				checks[db.Name()] = "unhealthy"
				status = "degraded"
			} else {
				checks[db.Name()] = "ok"
			}
			cancel()
		}
		payload["databases"] = checks
	}
	payload["status"] = status

	s.writeJSON(w, http.StatusOK, payload)
}

// handleGrid serves the instrument grid from the latest run.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	latest := s.state.Latest()
	if latest == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no refresh cycle has completed yet")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": latest.RunID,
		"rows":   latest.Rows,
	})
}

// handlePortfolio serves the portfolio snapshot from the latest run.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	latest := s.state.Latest()
	if latest == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no refresh cycle has completed yet")
		return
	}
	if latest.Snapshot == nil {
		s.writeError(w, http.StatusNotFound, "no holdings configured")
		return
	}
	s.writeJSON(w, http.StatusOK, latest.Snapshot)
}

// handleAlerts serves the drop alert payloads from the latest run.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	latest := s.state.Latest()
	if latest == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no refresh cycle has completed yet")
		return
	}
	alerts := latest.Alerts
	if alerts == nil {
		alerts = []portfolio.AlertPayload{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": latest.RunID,
		"alerts": alerts,
	})
}

// handleSummary serves run metadata without the bulky grid rows.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	latest := s.state.Latest()
	if latest == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no refresh cycle has completed yet")
		return
	}

	payload := map[string]interface{}{
		"run_id":      latest.RunID,
		"started_at":  latest.StartedAt.UTC().Format(time.RFC3339),
		"duration_ms": latest.Duration.Milliseconds(),
		"fetched":     latest.Fetched,
		"failed":      latest.Failed,
		"failed_ids":  latest.FailedIDs,
		"rows":        len(latest.Rows),
		"alerts":      len(latest.Alerts),
	}
	if latest.Snapshot != nil {
		payload["total_invested"] = latest.Snapshot.TotalInvested
		payload["total_current_value"] = latest.Snapshot.TotalCurrentValue
		payload["net_gain_loss"] = latest.Snapshot.NetGainLoss
	}
	s.writeJSON(w, http.StatusOK, payload)
}

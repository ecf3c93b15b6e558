package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"mapscraper/internal/pipeline"

	"go.uber.org/zap"
)

// handleRunRequest triggers a scrape run immediately instead of waiting for
// the next poll. The run itself happens in the background; overlapping runs
// are refused.
func (s *Server) handleRunRequest(w http.ResponseWriter, r *http.Request) {
	go func() {
		if _, err := s.pipeline.RunOnce(context.Background()); err != nil {
			if errors.Is(err, pipeline.ErrRunInProgress) {
				return
			}
			s.logger.Error("triggered run failed", zap.Error(err))
		}
	}()

	s.respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "scrape run triggered"})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := make(map[string]string)
	healthy := true

	if s.pgStore != nil {
		if err := s.pgStore.Ping(ctx); err != nil {
			healthStatus["postgres"] = "unhealthy"
			healthy = false
			s.logger.Error("health check failed for postgres", zap.Error(err))
		} else {
			healthStatus["postgres"] = "healthy"
		}
	}

	if s.redisStore != nil {
		if err := s.redisStore.Ping(ctx); err != nil {
			healthStatus["redis"] = "unhealthy"
			healthy = false
			s.logger.Error("health check failed for redis", zap.Error(err))
		} else {
			healthStatus["redis"] = "healthy"
		}
	}

	if !healthy {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

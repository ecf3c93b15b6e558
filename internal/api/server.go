package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mapscraper/internal/config"
	"mapscraper/internal/pipeline"
	"mapscraper/internal/storage"

	"go.uber.org/zap"
)

// Server holds the dependencies for the HTTP front end.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	pipeline   *pipeline.Pipeline
	pgStore    *storage.PostgresStore
	redisStore *storage.RedisStore
	logger     *zap.Logger
}

func NewServer(cfg *config.Config, p *pipeline.Pipeline, ps *storage.PostgresStore, rs *storage.RedisStore, l *zap.Logger) *Server {
	s := &Server{
		config:     cfg,
		pipeline:   p,
		pgStore:    ps,
		redisStore: rs,
		logger:     l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

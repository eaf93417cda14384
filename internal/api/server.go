// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api exposes the evaluators, the ledger and the archive over HTTP
// for the browser front end.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/truthscore/internal/archive"
	"github.com/traylinx/truthscore/internal/config"
	"github.com/traylinx/truthscore/internal/logging"
	"github.com/traylinx/truthscore/internal/util"
	"github.com/traylinx/truthscore/internal/verify"
)

// Archive is the read side of the verification archive.
type Archive interface {
	IsEnabled() bool
	Path() string
	Recent(ctx context.Context, limit int) ([]archive.Entry, error)
	Stats(ctx context.Context) (map[string]interface{}, error)
}

// Dashboard serves the websocket push channel.
type Dashboard interface {
	http.Handler
	Sessions() int
}

// Options wires the server's collaborators. Archive, Dashboard and
// StateBox are optional.
type Options struct {
	Verifier   *verify.Verifier
	Archive    Archive
	Dashboard  Dashboard
	StateBox   *util.StateBox
	LedgerPath string
}

// Server is the HTTP front of truthscore.
type Server struct {
	cfg      *config.Config
	engine   *gin.Engine
	server   *http.Server
	verifier *verify.Verifier
	archive  Archive
	hub      Dashboard
}

// NewServer builds the gin engine and registers every route.
func NewServer(cfg *config.Config, opts Options) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logging.RequestLogger(), gin.Recovery(), corsMiddleware(cfg.CORS))

	s := &Server{
		cfg:      cfg,
		engine:   engine,
		verifier: opts.Verifier,
		archive:  opts.Archive,
		hub:      opts.Dashboard,
	}
	s.setupRoutes(opts)

	s.server = &http.Server{
		Addr:              cfg.Address(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(opts Options) {
	s.engine.GET("/healthz", s.healthz)

	api := s.engine.Group("/api")
	{
		verifyGroup := api.Group("/verify", rateLimitMiddleware(s.cfg.RateLimit))
		verifyGroup.POST("/news", s.verifyNews)
		verifyGroup.POST("/website", s.verifyWebsite)
		verifyGroup.POST("/company", s.verifyCompany)

		api.GET("/ledger", s.getLedger)
		if s.hub != nil {
			api.GET("/ledger/ws", gin.WrapH(s.hub))
		}
		api.GET("/archive", s.getArchive)
		api.GET("/stats", s.getStats)
		api.GET("/state-box/status", localOnly(), StateBoxStatusHandler(opts.StateBox, opts.LedgerPath, s.archivePath()))
	}
}

func (s *Server) archivePath() string {
	if s.archive == nil {
		return ""
	}
	return s.archive.Path()
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Start listens until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	log.Infof("truthscore API listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

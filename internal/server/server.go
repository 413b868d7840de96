// Package server exposes the HTTP API: the email sync trigger, ticket
// updates, per-user email settings, and the audit trail.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proflow/proflow/internal/audit"
	"github.com/proflow/proflow/internal/notify"
	"github.com/proflow/proflow/internal/settings"
	"github.com/proflow/proflow/internal/store"
	"github.com/proflow/proflow/internal/sync"
)

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	engine   *gin.Engine
	store    store.Store
	sync     *sync.Orchestrator
	notifier *notify.Notifier
	settings *settings.Service
	audit    *audit.Log
	logger   *slog.Logger
}

// New wires the router. Callers decide whether to serve it with Run or to
// mount Handler in a test server.
func New(
	s store.Store,
	orchestrator *sync.Orchestrator,
	notifier *notify.Notifier,
	settingsSvc *settings.Service,
	auditLog *audit.Log,
	logger *slog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	srv := &Server{
		engine:   engine,
		store:    s,
		sync:     orchestrator,
		notifier: notifier,
		settings: settingsSvc,
		audit:    auditLog,
		logger:   logger,
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	{
		api.POST("/email-sync", srv.handleEmailSync)
		api.GET("/tickets/:id", srv.handleGetTicket)
		api.PATCH("/tickets/:id", srv.handleUpdateTicket)
		api.GET("/settings/email", srv.handleGetEmailSettings)
		api.PUT("/settings/email", srv.handleSaveEmailSettings)
		api.GET("/audit", srv.handleAudit)
	}

	return srv
}

// Handler returns the underlying router, for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.engine.Run(addr)
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const apiVersion = "1.0.0"

// HealthChecker reports whether the database answers a ping.
type HealthChecker interface {
	TestConnection(ctx context.Context) bool
}

type HealthHandler struct {
	db     HealthChecker
	logger *slog.Logger
	now    func() time.Time
}

func NewHealthHandler(db HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{db: db, logger: logger, now: time.Now}
}

// Root describes the API.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to API Startup Project!",
		"version": apiVersion,
		"endpoints": gin.H{
			"users":  "/api/users",
			"health": "/health",
		},
	})
}

// Health pings the database. A disconnected database is still a 200;
// only a failing check itself yields 503.
func (h *HealthHandler) Health(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.ErrorContext(c.Request.Context(), "health check failed", slog.Any("panic", r))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"status":    "Error",
				"timestamp": h.timestamp(),
				"error":     "Health check failed",
			})
		}
	}()

	database := "disconnected"
	if h.db.TestConnection(c.Request.Context()) {
		database = "connected"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": h.timestamp(),
		"services": gin.H{
			"database": database,
		},
	})
}

func (h *HealthHandler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339Nano)
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks a dependency; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	version string
}

func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Health is GET /health. It answers 503 when the database does not respond.
func (h *HealthHandler) Health(c *gin.Context) {
	status, dbStatus, code := "ok", "ok", http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status, dbStatus, code = "degraded", "unreachable", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":   status,
		"database": dbStatus,
		"version":  h.version,
	})
}

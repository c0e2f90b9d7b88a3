package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/askpair/api/internal/database"
	"github.com/askpair/api/internal/eventbus"
)

// HealthHandler handles liveness and dependency health checks
type HealthHandler struct {
	db    *database.Postgres
	redis *database.Redis
	bus   *eventbus.Bus
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.Postgres, rdb *database.Redis, bus *eventbus.Bus) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb, bus: bus}
}

// Health handles GET /health (liveness only)
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// Deep handles GET /health/deep and probes every dependency
func (h *HealthHandler) Deep(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	healthy := true

	if err := h.db.Pool().Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := h.redis.Ping(ctx); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	// NATS is best-effort; report state without failing the check
	if h.bus.Healthy() {
		checks["nats"] = "ok"
	} else {
		checks["nats"] = "disconnected"
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
		"time":   time.Now().UTC(),
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/askpair/api/internal/database"
	"github.com/askpair/api/internal/middleware"
	"github.com/askpair/api/internal/store"
)

// ModelPinKey is the Redis key holding the runtime model-version pin.
// A set pin overrides both the env pin and recency-based resolution.
const ModelPinKey = "askpair:model:pin"

// AdminHandler exposes the operator console: stats, the model registry and
// the runtime model pin.
type AdminHandler struct {
	store  *store.Store
	redis  *database.Redis
	logger *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(st *store.Store, rdb *database.Redis, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{store: st, redis: rdb, logger: logger}
}

// Stats handles GET /admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	st, err := h.store.GetStats(c.Request.Context())
	if err != nil {
		h.logger.Error("stats query failed", zap.Error(err))
		middleware.InternalError(c, "failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, st)
}

// ListModels handles GET /admin/models
func (h *AdminHandler) ListModels(c *gin.Context) {
	entries, err := h.store.ListModels(c.Request.Context())
	if err != nil {
		h.logger.Error("model registry query failed", zap.Error(err))
		middleware.InternalError(c, "failed to list models")
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": entries, "count": len(entries)})
}

// PinRequest is the request body for POST /admin/models/pin
type PinRequest struct {
	ModelVersion string `json:"model_version" binding:"required"`
}

// PinModel handles POST /admin/models/pin. The version must exist in the
// registry before it can be pinned.
func (h *AdminHandler) PinModel(c *gin.Context) {
	var req PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}

	entry, err := h.store.ModelByVersion(c.Request.Context(), req.ModelVersion)
	if err != nil {
		h.logger.Error("model lookup failed", zap.Error(err))
		middleware.InternalError(c, "failed to look up model")
		return
	}
	if entry == nil {
		middleware.NotFound(c, "model version not registered")
		return
	}

	if err := h.redis.Client().Set(c.Request.Context(), ModelPinKey, req.ModelVersion, 0).Err(); err != nil {
		h.logger.Error("pin write failed", zap.Error(err))
		middleware.InternalError(c, "failed to set pin")
		return
	}

	h.logger.Info("model pinned", zap.String("model_version", req.ModelVersion))
	c.JSON(http.StatusOK, gin.H{"pinned": req.ModelVersion})
}

// UnpinModel handles DELETE /admin/models/pin
func (h *AdminHandler) UnpinModel(c *gin.Context) {
	if err := h.redis.Client().Del(c.Request.Context(), ModelPinKey).Err(); err != nil {
		h.logger.Error("pin delete failed", zap.Error(err))
		middleware.InternalError(c, "failed to clear pin")
		return
	}
	h.logger.Info("model pin cleared")
	c.JSON(http.StatusOK, gin.H{"pinned": nil})
}

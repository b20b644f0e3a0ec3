package handlers

import (
	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	"github.com/sarathi/sarathi/internal/common/middleware"
	"github.com/sarathi/sarathi/internal/progress/models"
	"github.com/sarathi/sarathi/internal/progress/services"

	"github.com/gin-gonic/gin"
)

// ProgressHandler exposes the progress store over REST.
type ProgressHandler struct {
	service *services.Service
}

func NewProgressHandler(service *services.Service) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// GetProgress returns the stored record, or an empty object when the user
// has not started the mission yet (an empty dashboard state, never an error).
// GET /api/mission-progress/:userId/:missionId
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	record, err := h.service.Get(c.Param("userId"), c.Param("missionId"))
	if err != nil {
		if apperrors.IsNotFound(err) {
			c.JSON(200, gin.H{})
			return
		}
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(200, record)
}

// UpsertProgress applies a partial progress write.
// POST /api/mission-progress
func (h *ProgressHandler) UpsertProgress(c *gin.Context) {
	var req models.UpsertProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, apperrors.Validation("malformed progress payload", err.Error()))
		return
	}

	record, err := h.service.UpsertFromRequest(req)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(200, record)
}

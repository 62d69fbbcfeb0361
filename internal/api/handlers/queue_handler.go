package handlers

import (
	"strconv"

	"github.com/Mesh2A/digitduel/internal/middleware"
	"github.com/Mesh2A/digitduel/internal/services"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"github.com/gin-gonic/gin"
)

// QueueHandler exposes matchmaking.
type QueueHandler struct {
	queueSvc *services.QueueService
}

func NewQueueHandler(queueSvc *services.QueueService) *QueueHandler {
	return &QueueHandler{queueSvc: queueSvc}
}

type joinQueueRequest struct {
	ModeKey string `json:"mode_key" binding:"required"`
}

// Join enqueues the caller for a mode.
func (h *QueueHandler) Join(c *gin.Context) {
	var req joinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.New(errors.ErrCodeValidation, "mode_key is required"))
		return
	}

	status, err := h.queueSvc.Join(c.Request.Context(), middleware.UserID(c), middleware.ConnectionID(c), req.ModeKey)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, status)
}

// Status polls the caller's queue entry.
func (h *QueueHandler) Status(c *gin.Context) {
	queueID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	status, err := h.queueSvc.Status(c.Request.Context(), middleware.UserID(c), queueID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, status)
}

// Cancel withdraws the caller's queue entry.
func (h *QueueHandler) Cancel(c *gin.Context) {
	queueID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	status, err := h.queueSvc.Cancel(c.Request.Context(), middleware.UserID(c), queueID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, status)
}

// paramID parses a numeric path parameter.
func paramID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New(errors.ErrCodeValidation, "invalid id")
	}
	return uint(id), nil
}

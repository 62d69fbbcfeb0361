package handlers

import (
	"strings"

	"github.com/Mesh2A/digitduel/internal/middleware"
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/internal/services"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"github.com/gin-gonic/gin"
)

// RoomHandler exposes private room pairing.
type RoomHandler struct {
	roomSvc *services.RoomService
}

func NewRoomHandler(roomSvc *services.RoomService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc}
}

type createRoomRequest struct {
	ModeKey string `json:"mode_key" binding:"required"`
}

// Create opens a room and returns its shareable code.
func (h *RoomHandler) Create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.New(errors.ErrCodeValidation, "mode_key is required"))
		return
	}

	status, err := h.roomSvc.Create(middleware.UserID(c), middleware.ConnectionID(c), req.ModeKey)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, status)
}

// Status polls a room by code.
func (h *RoomHandler) Status(c *gin.Context) {
	code, err := paramCode(c)
	if err != nil {
		respondError(c, err)
		return
	}

	status, err := h.roomSvc.Status(code)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, status)
}

// Join enters a room by code and starts the match.
func (h *RoomHandler) Join(c *gin.Context) {
	code, err := paramCode(c)
	if err != nil {
		respondError(c, err)
		return
	}

	status, err := h.roomSvc.Join(middleware.UserID(c), middleware.ConnectionID(c), code)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, status)
}

// Cancel closes the caller's room.
func (h *RoomHandler) Cancel(c *gin.Context) {
	code, err := paramCode(c)
	if err != nil {
		respondError(c, err)
		return
	}

	status, err := h.roomSvc.Cancel(middleware.UserID(c), code)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, status)
}

// paramCode normalizes the room code path parameter. Codes are minted upper
// case; lower-case input is a retyped code, not a different room.
func paramCode(c *gin.Context) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if len(code) != models.RoomCodeLen {
		return "", errors.New(errors.ErrCodeValidation, "invalid room code")
	}
	return code, nil
}

package handlers

import (
	"net/http"

	"github.com/Mesh2A/digitduel/internal/middleware"
	"github.com/Mesh2A/digitduel/internal/services"
	"github.com/gin-gonic/gin"
)

// SessionHandler issues and closes connection ids.
type SessionHandler struct {
	connSvc *services.ConnectionService
}

func NewSessionHandler(connSvc *services.ConnectionService) *SessionHandler {
	return &SessionHandler{connSvc: connSvc}
}

type connectRequest struct {
	ConnectionID string `json:"connection_id"`
}

// Connect establishes the caller's session. Passing the previous connection
// id lets a recent disconnect resume as the same session.
func (h *SessionHandler) Connect(c *gin.Context) {
	var req connectRequest
	_ = c.ShouldBindJSON(&req) // hint is optional

	result, err := h.connSvc.Connect(middleware.UserID(c), req.ConnectionID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Disconnect closes the caller's session cleanly.
func (h *SessionHandler) Disconnect(c *gin.Context) {
	err := h.connSvc.Disconnect(middleware.UserID(c), middleware.ConnectionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"github.com/Mesh2A/digitduel/internal/services"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the global gameplay toggle.
type AdminHandler struct {
	adminSvc *services.AdminService
}

func NewAdminHandler(adminSvc *services.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// Status reports the toggle.
func (h *AdminHandler) Status(c *gin.Context) {
	enabled, err := h.adminSvc.OnlineEnabled()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"online_enabled": enabled})
}

type setOnlineRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetOnline flips the toggle, sweeping live play on disable.
func (h *AdminHandler) SetOnline(c *gin.Context) {
	var req setOnlineRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		respondError(c, errors.New(errors.ErrCodeValidation, "enabled is required"))
		return
	}

	if err := h.adminSvc.SetOnlineEnabled(*req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"online_enabled": *req.Enabled})
}

package handlers

import (
	"github.com/Mesh2A/digitduel/internal/middleware"
	"github.com/Mesh2A/digitduel/internal/services"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"github.com/gin-gonic/gin"
)

// MatchHandler exposes the match state machine. Every endpoint returns the
// caller's fresh redacted view so clients never need a second fetch.
type MatchHandler struct {
	matchSvc *services.MatchService
}

func NewMatchHandler(matchSvc *services.MatchService) *MatchHandler {
	return &MatchHandler{matchSvc: matchSvc}
}

// Active returns the id of the caller's current live match, if any.
func (h *MatchHandler) Active(c *gin.Context) {
	matchID, err := h.matchSvc.ActiveForUser(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"match_id": matchID})
}

// View returns the caller's view of a match. Polling it is the heartbeat.
func (h *MatchHandler) View(c *gin.Context) {
	matchID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.matchSvc.View(middleware.UserID(c), middleware.ConnectionID(c), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

type guessRequest struct {
	Guess string `json:"guess" binding:"required"`
}

// Guess submits a digit code.
func (h *MatchHandler) Guess(c *gin.Context) {
	matchID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req guessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.New(errors.ErrCodeValidation, "guess is required"))
		return
	}

	view, err := h.matchSvc.Guess(middleware.UserID(c), middleware.ConnectionID(c), matchID, req.Guess)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

// Forfeit withdraws or concedes.
func (h *MatchHandler) Forfeit(c *gin.Context) {
	matchID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.matchSvc.Forfeit(middleware.UserID(c), middleware.ConnectionID(c), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

type secretRequest struct {
	Secret string `json:"secret" binding:"required"`
}

// SetSecret stores the caller's hidden code during custom setup.
func (h *MatchHandler) SetSecret(c *gin.Context) {
	matchID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req secretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.New(errors.ErrCodeValidation, "secret is required"))
		return
	}

	view, err := h.matchSvc.SetSecret(middleware.UserID(c), middleware.ConnectionID(c), matchID, req.Secret)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

type readyRequest struct {
	Ready *bool `json:"ready"`
}

// SetReady locks the caller's secret, or unlocks it with {"ready": false}.
func (h *MatchHandler) SetReady(c *gin.Context) {
	matchID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req readyRequest
	_ = c.ShouldBindJSON(&req) // empty body means ready
	ready := req.Ready == nil || *req.Ready

	view, err := h.matchSvc.SetReady(middleware.UserID(c), middleware.ConnectionID(c), matchID, ready)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

type pickCardRequest struct {
	Index *int `json:"index" binding:"required"`
}

// PickCard privately selects a card from the dealt deck.
func (h *MatchHandler) PickCard(c *gin.Context) {
	matchID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req pickCardRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Index == nil {
		respondError(c, errors.New(errors.ErrCodeValidation, "index is required"))
		return
	}

	view, err := h.matchSvc.PickCard(middleware.UserID(c), middleware.ConnectionID(c), matchID, *req.Index)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

type useCardRequest struct {
	TargetUserID uint `json:"target_user_id"`
}

// UseCard plays the caller's picked card.
func (h *MatchHandler) UseCard(c *gin.Context) {
	matchID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req useCardRequest
	_ = c.ShouldBindJSON(&req) // target is optional for two-player tables

	view, err := h.matchSvc.UseCard(middleware.UserID(c), middleware.ConnectionID(c), matchID, req.TargetUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

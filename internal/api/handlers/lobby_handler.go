package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Mesh2A/digitduel/internal/services"
	"github.com/Mesh2A/digitduel/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	lobbyWriteWait    = 10 * time.Second
	lobbyPingInterval = 30 * time.Second
)

var lobbyUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LobbyHandler serves queue depth: a REST snapshot and a websocket stream of
// deltas relayed from the redis channel.
type LobbyHandler struct {
	lobbySvc *services.LobbyService
}

func NewLobbyHandler(lobbySvc *services.LobbyService) *LobbyHandler {
	return &LobbyHandler{lobbySvc: lobbySvc}
}

// Snapshot returns current waiting counts for every mode.
func (h *LobbyHandler) Snapshot(c *gin.Context) {
	snapshot, err := h.lobbySvc.Snapshot()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"modes": snapshot})
}

type lobbyFrame struct {
	Type  string                 `json:"type"`
	Modes []services.LobbyUpdate `json:"modes,omitempty"`
}

// Stream upgrades to a websocket, sends the snapshot, then relays deltas
// until the client hangs up.
func (h *LobbyHandler) Stream(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := h.lobbySvc.Subscribe(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	defer sub.Close()

	conn, err := lobbyUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("lobby upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	snapshot, err := h.lobbySvc.Snapshot()
	if err != nil {
		logger.Warn("lobby snapshot failed", "error", err)
		return
	}
	conn.SetWriteDeadline(time.Now().Add(lobbyWriteWait))
	if err := conn.WriteJSON(lobbyFrame{Type: "snapshot", Modes: snapshot}); err != nil {
		return
	}

	// Drain the read side so close frames are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	updates := sub.Channel()
	ping := time.NewTicker(lobbyPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-updates:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(lobbyWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(lobbyWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

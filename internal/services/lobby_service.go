package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/internal/repositories"
	"github.com/Mesh2A/digitduel/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// LobbyChannel is the redis pub/sub channel carrying queue-depth deltas.
const LobbyChannel = "lobby:queue"

// LobbyUpdate is one queue-depth change, published after the transaction
// that moved the queue committed.
type LobbyUpdate struct {
	ModeKey string `json:"mode_key"`
	Waiting int64  `json:"waiting"`
}

// LobbyService fans out queue depth to lobby watchers over redis pub/sub.
// Broadcasts are best effort: a redis outage degrades lobby freshness, never
// gameplay.
type LobbyService struct {
	rdb       *redis.Client
	queueRepo *repositories.QueueRepository
}

func NewLobbyService(rdb *redis.Client, queueRepo *repositories.QueueRepository) *LobbyService {
	return &LobbyService{rdb: rdb, queueRepo: queueRepo}
}

// lobbyModes is the set of keys shown on the lobby board.
var lobbyModes = []models.Mode{
	{Difficulty: models.DifficultyEasy, Variant: models.VariantNormal, GroupSize: 2},
	{Difficulty: models.DifficultyMedium, Variant: models.VariantNormal, GroupSize: 2},
	{Difficulty: models.DifficultyHard, Variant: models.VariantNormal, GroupSize: 2},
	{Difficulty: models.DifficultyEasy, Variant: models.VariantCustom, GroupSize: 2},
	{Difficulty: models.DifficultyMedium, Variant: models.VariantCustom, GroupSize: 2},
	{Difficulty: models.DifficultyHard, Variant: models.VariantCustom, GroupSize: 2},
	{Difficulty: models.DifficultyEasy, Variant: models.VariantProps, GroupSize: 2},
	{Difficulty: models.DifficultyMedium, Variant: models.VariantProps, GroupSize: 2},
	{Difficulty: models.DifficultyHard, Variant: models.VariantProps, GroupSize: 2},
	{Difficulty: models.DifficultyEasy, Variant: models.VariantNormal, GroupSize: 4},
	{Difficulty: models.DifficultyMedium, Variant: models.VariantNormal, GroupSize: 4},
	{Difficulty: models.DifficultyHard, Variant: models.VariantNormal, GroupSize: 4},
	{Difficulty: models.DifficultyEasy, Variant: models.VariantProps, GroupSize: 4},
	{Difficulty: models.DifficultyMedium, Variant: models.VariantProps, GroupSize: 4},
	{Difficulty: models.DifficultyHard, Variant: models.VariantProps, GroupSize: 4},
}

// Snapshot returns the current waiting count for every lobby mode.
func (s *LobbyService) Snapshot() ([]LobbyUpdate, error) {
	snapshot := make([]LobbyUpdate, 0, len(lobbyModes))
	for _, mode := range lobbyModes {
		count, err := s.queueRepo.WaitingCount(mode.Key())
		if err != nil {
			return nil, err
		}
		snapshot = append(snapshot, LobbyUpdate{ModeKey: mode.Key(), Waiting: count})
	}
	return snapshot, nil
}

// PublishWaiting re-counts a mode's queue and broadcasts the new depth.
func (s *LobbyService) PublishWaiting(ctx context.Context, modeKey string) {
	if s.rdb == nil {
		return
	}

	count, err := s.queueRepo.WaitingCount(modeKey)
	if err != nil {
		logger.Warn("lobby count failed", "mode_key", modeKey, "error", err)
		return
	}

	payload, err := json.Marshal(LobbyUpdate{ModeKey: modeKey, Waiting: count})
	if err != nil {
		logger.Warn("lobby encode failed", "error", err)
		return
	}

	if err := s.rdb.Publish(ctx, LobbyChannel, payload).Err(); err != nil {
		logger.Warn("lobby publish failed", "error", err)
	}
}

// Subscribe opens a pub/sub subscription for lobby deltas.
func (s *LobbyService) Subscribe(ctx context.Context) (*redis.PubSub, error) {
	if s.rdb == nil {
		return nil, fmt.Errorf("lobby broadcast disabled: no redis client")
	}
	return s.rdb.Subscribe(ctx, LobbyChannel), nil
}

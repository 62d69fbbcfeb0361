package services

import (
	"fmt"

	"github.com/Mesh2A/digitduel/internal/repositories"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"gorm.io/gorm"
)

func requireNoActiveMatch(tx *gorm.DB, matchRepo *repositories.MatchRepository, userID uint) error {
	active, err := matchRepo.FindActiveByUser(tx, userID)
	if err != nil {
		return err
	}
	if active != nil {
		return errors.New(errors.ErrCodeAlreadyInMatch,
			fmt.Sprintf("finish match #%d first", active.ID))
	}
	return nil
}

func requireNoOpenRoom(tx *gorm.DB, roomRepo *repositories.RoomRepository, userID uint) error {
	room, err := roomRepo.FindWaitingByHost(tx, userID)
	if err != nil {
		return err
	}
	if room != nil {
		return errors.New(errors.ErrCodeAlreadyExists,
			fmt.Sprintf("close room %s first", room.Code))
	}
	return nil
}

func requireNoQueueEntry(tx *gorm.DB, queueRepo *repositories.QueueRepository, userID uint) error {
	waiting, err := queueRepo.FindWaitingByUser(tx, userID)
	if err != nil {
		return err
	}
	if waiting != nil {
		return errors.New(errors.ErrCodeAlreadyInQueue, "already waiting in a queue")
	}
	return nil
}

// checkNoCommitments rejects an operation while the user already has money
// on the table somewhere: a live match, a waiting queue entry, or an open
// room. Queue joins handle the existing-entry case themselves.
func checkNoCommitments(
	tx *gorm.DB,
	matchRepo *repositories.MatchRepository,
	queueRepo *repositories.QueueRepository,
	roomRepo *repositories.RoomRepository,
	userID uint,
) error {
	if err := requireNoActiveMatch(tx, matchRepo, userID); err != nil {
		return err
	}
	if err := requireNoQueueEntry(tx, queueRepo, userID); err != nil {
		return err
	}
	return requireNoOpenRoom(tx, roomRepo, userID)
}

package services

import (
	"time"

	"github.com/wfunc/unoserver/logger"
	"github.com/wfunc/unoserver/network"
	"github.com/wfunc/unoserver/persistence"
)

// RecordService writes finished-game outcomes to the store. Failures are
// logged and swallowed; a lost record never disturbs a running game.
type RecordService struct {
	store persistence.Store
}

func NewRecordService(store persistence.Store) *RecordService {
	return &RecordService{store: store}
}

func (s *RecordService) RecordGameOver(roomCode string, result network.GameOver) {
	record := &persistence.GameRecord{
		RoomCode: roomCode,
		Winner:   result.Winner,
		Scores:   result.Scores,
		EndedAt:  time.Now(),
	}
	if err := s.store.SaveGameRecord(record); err != nil {
		logger.Log.Warnf("failed to save game record for room %s: %v", roomCode, err)
	}
}

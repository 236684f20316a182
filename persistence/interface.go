package persistence

import (
	"time"

	"github.com/wfunc/unoserver/network"
	"github.com/wfunc/unoserver/room"
)

// Store persists room snapshots across server restarts and keeps a record
// of finished games. Saves are best-effort; the game never blocks on them.
type Store interface {
	SaveRoom(code string, snap *room.Snapshot) error
	DeleteRoom(code string) error
	// LoadRooms returns every saved snapshot keyed by room code.
	LoadRooms() (map[string]*room.Snapshot, error)
	SaveGameRecord(record *GameRecord) error
	Close() error
}

// GameRecord is the immutable outcome of one finished game.
type GameRecord struct {
	RoomCode string               `json:"roomCode"`
	Winner   network.WinnerInfo   `json:"winner"`
	Scores   []network.ScoreEntry `json:"scores"`
	EndedAt  time.Time            `json:"endedAt"`
}

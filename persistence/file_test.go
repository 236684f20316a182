package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/unoserver/game"
	"github.com/wfunc/unoserver/network"
	"github.com/wfunc/unoserver/room"
)

func sampleSnapshot(code string) *room.Snapshot {
	return &room.Snapshot{
		RoomCode:     code,
		GameStarted:  true,
		Deck:         game.BuildDeck()[:10],
		DiscardPile:  []game.Card{{ID: 99, Color: game.ColorRed, Type: game.TypeNumber, Value: 5}},
		Direction:    1,
		CurrentColor: game.ColorRed,
		Players: []room.PlayerSnapshot{
			{ID: "p1", Name: "ana", IsHost: true},
			{ID: "p2", Name: "ben", IsBot: false},
		},
		SavedAt: time.Now(),
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamestate.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveRoom("ABCD", sampleSnapshot("ABCD")))
	require.NoError(t, s.SaveRoom("EFGH", sampleSnapshot("EFGH")))
	require.NoError(t, s.Close())

	// A fresh store picks up what the old one wrote.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	rooms, err := reopened.LoadRooms()
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "ABCD", rooms["ABCD"].RoomCode)
	assert.True(t, rooms["ABCD"].GameStarted)
	assert.Len(t, rooms["ABCD"].Deck, 10)
	require.Len(t, rooms["ABCD"].Players, 2)
	assert.Equal(t, "ana", rooms["ABCD"].Players[0].Name)
}

func TestFileStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamestate.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveRoom("ABCD", sampleSnapshot("ABCD")))
	require.NoError(t, s.DeleteRoom("ABCD"))
	require.NoError(t, s.DeleteRoom("NOPE"))

	rooms, err := s.LoadRooms()
	require.NoError(t, err)
	assert.Empty(t, rooms)

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	rooms, err = reopened.LoadRooms()
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	rooms, err := s.LoadRooms()
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestFileStoreGameRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamestate.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, s.SaveGameRecord(&GameRecord{
		RoomCode: "ABCD",
		Winner:   network.WinnerInfo{ID: "p1", Name: "ana"},
		Scores: []network.ScoreEntry{
			{ID: "p1", Name: "ana", HandSize: 0, Points: 0},
			{ID: "p2", Name: "ben", HandSize: 3, Points: 42},
		},
		EndedAt: time.Now(),
	}))
	require.NoError(t, s.SaveGameRecord(&GameRecord{RoomCode: "EFGH", EndedAt: time.Now()}))

	assert.FileExists(t, path+".records")
}

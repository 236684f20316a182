package room

import (
	"time"

	"github.com/wfunc/unoserver/broadcast"
	"github.com/wfunc/unoserver/game"
)

// Snapshot is the full persistable state of a room. Connections are not
// part of it: every restored seat comes back detached, humans reclaim theirs
// by rejoining and bots get inert actors.
type Snapshot struct {
	RoomCode           string           `json:"roomCode"`
	GameStarted        bool             `json:"gameStarted"`
	Deck               []game.Card      `json:"deck"`
	DiscardPile        []game.Card      `json:"discardPile"`
	CurrentPlayerIndex int              `json:"currentPlayerIndex"`
	Direction          int              `json:"direction"`
	CurrentColor       game.Color       `json:"currentColor"`
	DrawStack          int              `json:"drawStack"`
	UnoCalledBy        []string         `json:"unoCalledBy"`
	WinnerID           string           `json:"winnerId,omitempty"`
	HasDrawnThisTurn   bool             `json:"hasDrawnThisTurn"`
	IsDealing          bool             `json:"isDealing,omitempty"`
	DealRounds         int              `json:"dealRounds,omitempty"`
	Players            []PlayerSnapshot `json:"players"`
	SavedAt            time.Time        `json:"savedAt"`
}

type PlayerSnapshot struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Hand   []game.Card `json:"hand"`
	IsHost bool        `json:"isHost"`
	IsBot  bool        `json:"isBot"`
}

// Snapshot captures the room state for persistence.
func (r *Room) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		RoomCode:           r.code,
		GameStarted:        r.gameStarted,
		Deck:               append([]game.Card(nil), r.deck...),
		DiscardPile:        append([]game.Card(nil), r.discard...),
		CurrentPlayerIndex: r.currentPlayerIndex,
		Direction:          r.direction,
		CurrentColor:       r.currentColor,
		DrawStack:          r.drawStack,
		HasDrawnThisTurn:   r.hasDrawnThisTurn,
		IsDealing:          r.isDealing,
		DealRounds:         r.dealRounds,
		SavedAt:            time.Now(),
	}
	for id := range r.unoCalledBy {
		snap.UnoCalledBy = append(snap.UnoCalledBy, id)
	}
	if r.winner != nil {
		snap.WinnerID = r.winner.ID
	}
	for _, p := range r.players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:     p.ID,
			Name:   p.Name,
			Hand:   append([]game.Card(nil), p.Hand...),
			IsHost: p.IsHost,
			IsBot:  p.IsBot,
		})
	}
	return snap
}

// Restore rebuilds a room from a snapshot. All seats start disconnected
// with no-op actors; Resume kicks bot play back off once the caller has the
// room registered.
func Restore(snap *Snapshot, opts Options) *Room {
	r := NewRoom(snap.RoomCode, opts)
	r.gameStarted = snap.GameStarted
	r.deck = append([]game.Card(nil), snap.Deck...)
	r.discard = append([]game.Card(nil), snap.DiscardPile...)
	r.currentPlayerIndex = snap.CurrentPlayerIndex
	r.direction = snap.Direction
	if r.direction == 0 {
		r.direction = 1
	}
	r.currentColor = snap.CurrentColor
	r.drawStack = snap.DrawStack
	r.hasDrawnThisTurn = snap.HasDrawnThisTurn
	r.isDealing = snap.IsDealing
	r.dealRounds = snap.DealRounds
	for _, id := range snap.UnoCalledBy {
		r.unoCalledBy[id] = struct{}{}
	}
	for _, p := range snap.Players {
		player := &Player{
			ID:        p.ID,
			Name:      p.Name,
			Hand:      append([]game.Card(nil), p.Hand...),
			IsHost:    p.IsHost,
			IsBot:     p.IsBot,
			Connected: p.IsBot,
			actor:     broadcast.Nop(),
		}
		r.players = append(r.players, player)
		if snap.WinnerID != "" && p.ID == snap.WinnerID {
			r.winner = player
		}
	}
	if r.currentPlayerIndex >= len(r.players) {
		r.currentPlayerIndex = 0
	}
	return r
}

// Resume picks a restored room back up: a deal interrupted mid-snapshot is
// finished first, and bot scheduling is re-armed so a game whose turn sits
// on a bot keeps moving.
func (r *Room) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gameStarted && r.isDealing {
		if r.opts.DealPacing <= 0 || r.opts.Timers == nil {
			for r.dealRounds > 0 {
				r.dealOneRoundLocked()
			}
			r.finishDealingLocked()
		} else {
			r.scheduleDealRoundLocked()
		}
		return
	}
	r.maybeScheduleBotLocked()
}

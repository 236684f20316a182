package room

import (
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/wfunc/unoserver/broadcast"
	"github.com/wfunc/unoserver/game"
	"github.com/wfunc/unoserver/logger"
	"github.com/wfunc/unoserver/network"
	"github.com/wfunc/unoserver/timer"
)

// Player is one seat in a room. The actor is the outbound half of the seat:
// a live connection for humans, a no-op sink for bots and for humans whose
// connection dropped.
type Player struct {
	ID        string
	Name      string
	Hand      []game.Card
	IsHost    bool
	IsBot     bool
	Connected bool

	actor broadcast.Actor
}

// Options carry the per-room knobs and the hooks the transport layer wires
// in. Zero values fall back to sane defaults; a nil Timers disables all
// asynchronous behavior (tests drive the room synchronously).
type Options struct {
	MaxPlayers    int
	StartingCards int
	DealPacing    time.Duration
	BotDelayMin   time.Duration
	BotDelayMax   time.Duration

	Timers *timer.Manager

	// OnChange receives a full snapshot after every mutation, for
	// fire-and-forget persistence.
	OnChange func(code string, snap *Snapshot)
	// OnGameOver receives the final ranking when a game ends.
	OnGameOver func(code string, result network.GameOver)
}

func (o Options) withDefaults() Options {
	if o.MaxPlayers <= 0 {
		o.MaxPlayers = 10
	}
	if o.StartingCards <= 0 {
		o.StartingCards = 7
	}
	if o.BotDelayMin <= 0 {
		o.BotDelayMin = 600 * time.Millisecond
	}
	if o.BotDelayMax < o.BotDelayMin {
		o.BotDelayMax = o.BotDelayMin + 500*time.Millisecond
	}
	return o
}

// Room owns one game's full mutable state. Every public operation takes the
// room mutex for its whole span, so all mutations of a room are serialized;
// timers re-enter through the same public operations. Rooms share nothing,
// so distinct rooms never contend.
type Room struct {
	mu sync.Mutex

	code        string
	players     []*Player
	gameStarted bool

	deck    []game.Card // draw pile, top at the end
	discard []game.Card // discard pile, top at the end

	currentPlayerIndex int
	direction          int
	currentColor       game.Color
	drawStack          int
	unoCalledBy        map[string]struct{}
	winner             *Player
	hasDrawnThisTurn   bool
	isDealing          bool

	dealRounds      int
	pendingDealTask int64
	pendingBotTask  int64
	pendingBotID    string

	opts Options
}

const chipOutReason = "Cannot win with special cards (+2, +4, Wild, Reverse, Skip). You must finish with a number card!"

func NewRoom(code string, opts Options) *Room {
	return &Room{
		code:        code,
		direction:   1,
		unoCalledBy: make(map[string]struct{}),
		opts:        opts.withDefaults(),
	}
}

func (r *Room) Code() string {
	return r.code
}

// --- seating ---

// AddPlayer seats a human player. The first seat is the host. Returns false
// when the room is full or the game already started.
func (r *Room) AddPlayer(id, name string, actor broadcast.Actor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gameStarted || len(r.players) >= r.opts.MaxPlayers {
		return false
	}
	if actor == nil {
		actor = broadcast.Nop()
	}
	r.players = append(r.players, &Player{
		ID:        id,
		Name:      name,
		IsHost:    len(r.players) == 0,
		Connected: true,
		actor:     actor,
	})
	r.broadcastLobbyLocked()
	r.persistLocked()
	return true
}

// AddBot seats a bot player. Bots never hold the host seat.
func (r *Room) AddBot(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gameStarted || len(r.players) >= r.opts.MaxPlayers {
		return false
	}
	botNumber := 1
	for _, p := range r.players {
		if p.IsBot {
			botNumber++
		}
	}
	r.players = append(r.players, &Player{
		ID:        id,
		Name:      "Bot " + strconv.Itoa(botNumber),
		IsBot:     true,
		Connected: true,
		actor:     broadcast.Nop(),
	})
	r.broadcastLobbyLocked()
	r.persistLocked()
	return true
}

// RemovePlayer unseats a player. The host seat transfers to the first
// remaining player.
func (r *Room) RemovePlayer(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.playerIndexLocked(playerID)
	if index == -1 {
		return
	}
	wasHost := r.players[index].IsHost
	r.players = append(r.players[:index], r.players[index+1:]...)
	delete(r.unoCalledBy, playerID)

	if wasHost && len(r.players) > 0 {
		r.players[0].IsHost = true
	}

	// The turn pointer must stay valid for any later broadcast, even when
	// only one seat remains.
	if r.currentPlayerIndex >= len(r.players) {
		r.currentPlayerIndex = 0
	}

	if r.gameStarted && len(r.players) > 1 {
		r.broadcastGameStateLocked()
	} else if len(r.players) > 0 {
		r.broadcastLobbyLocked()
	}
	r.persistLocked()
}

// Reconnect re-associates a seat with a fresh connection, matching by name
// as the original identifier died with the old connection. Reports whether a
// seat was found, and its host/started status for the join reply.
func (r *Room) Reconnect(name, newID string, actor broadcast.Actor) (found, isHost, started bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.players {
		if p.IsBot || p.Connected || p.Name != name {
			continue
		}
		if _, called := r.unoCalledBy[p.ID]; called {
			delete(r.unoCalledBy, p.ID)
			r.unoCalledBy[newID] = struct{}{}
		}
		p.ID = newID
		p.Connected = true
		p.actor = actor
		if r.gameStarted {
			r.broadcastGameStateLocked()
		} else {
			r.broadcastLobbyLocked()
		}
		r.persistLocked()
		return true, p.IsHost, r.gameStarted
	}
	return false, false, false
}

// MarkDisconnected detaches a seat's connection without unseating it; the
// caller owns the grace period before RemovePlayer.
func (r *Room) MarkDisconnected(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.players {
		if p.ID == playerID {
			p.Connected = false
			p.actor = broadcast.Nop()
			r.persistLocked()
			return true
		}
	}
	return false
}

// HasDisconnectedSeat reports whether a human seat with this name is
// waiting for its player to come back.
func (r *Room) HasDisconnectedSeat(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if !p.IsBot && !p.Connected && p.Name == name {
			return true
		}
	}
	return false
}

// HasConnectedName reports whether a live player already uses this name.
func (r *Room) HasConnectedName(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if !p.IsBot && p.Connected && p.Name == name {
			return true
		}
	}
	return false
}

func (r *Room) HasPlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerIndexLocked(playerID) != -1
}

func (r *Room) IsHost(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	index := r.playerIndexLocked(playerID)
	return index != -1 && r.players[index].IsHost
}

func (r *Room) HostName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.IsHost {
			return p.Name
		}
	}
	return ""
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func (r *Room) Empty() bool {
	return r.PlayerCount() == 0
}

func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameStarted
}

// IsDisconnected reports whether the seat exists and currently has no
// connection.
func (r *Room) IsDisconnected(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	index := r.playerIndexLocked(playerID)
	return index != -1 && !r.players[index].Connected
}

func (r *Room) playerIndexLocked(playerID string) int {
	for i, p := range r.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// --- game start and dealing ---

// StartGame resets the room and begins a new game. Calling it on a finished
// game is the rematch path. Requires at least two seated players.
func (r *Room) StartGame(startingCards int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) < 2 {
		return
	}
	if startingCards <= 0 {
		startingCards = r.opts.StartingCards
	}

	r.cancelDealTaskLocked()
	r.cancelBotTaskLocked()

	r.gameStarted = true
	r.deck = game.BuildDeck()
	game.Shuffle(r.deck)
	r.discard = r.discard[:0]
	r.direction = 1
	r.currentPlayerIndex = 0
	r.drawStack = 0
	r.unoCalledBy = make(map[string]struct{})
	r.winner = nil
	r.hasDrawnThisTurn = false
	r.isDealing = true
	for _, p := range r.players {
		p.Hand = nil
	}

	// The opening card may not be a wild draw four; shuffle it back in
	// until something else surfaces.
	var first game.Card
	for {
		first, _ = r.drawFromDeckLocked()
		if first.Type != game.TypeWildDrawFour {
			break
		}
		r.deck = append(r.deck, first)
		game.Shuffle(r.deck)
	}
	r.discard = append(r.discard, first)
	if first.Color == game.ColorWild {
		r.currentColor = game.RandomColor()
	} else {
		r.currentColor = first.Color
	}

	switch first.Type {
	case game.TypeSkip:
		r.nextTurnLocked()
	case game.TypeReverse:
		r.direction = -r.direction
	case game.TypeDrawTwo:
		r.drawStack = 2
	}

	r.broadcastGameStateLocked()
	r.emitAllLocked(network.MsgGameStarted, struct{}{})

	r.dealRounds = startingCards
	if r.opts.DealPacing <= 0 || r.opts.Timers == nil {
		for r.dealRounds > 0 {
			r.dealOneRoundLocked()
		}
		r.finishDealingLocked()
	} else {
		r.scheduleDealRoundLocked()
	}
	r.persistLocked()
}

func (r *Room) scheduleDealRoundLocked() {
	r.pendingDealTask = r.opts.Timers.Schedule(r.opts.DealPacing, r.dealRound)
}

// dealRound is the timer re-entry point for one round of dealing.
func (r *Room) dealRound() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pendingDealTask = 0
	if !r.isDealing || !r.gameStarted {
		return
	}
	r.dealOneRoundLocked()
	if r.dealRounds > 0 {
		r.scheduleDealRoundLocked()
	} else {
		r.finishDealingLocked()
	}
	r.persistLocked()
}

func (r *Room) dealOneRoundLocked() {
	for _, p := range r.players {
		card, ok := r.drawFromDeckLocked()
		if !ok {
			break
		}
		p.Hand = append(p.Hand, card)
		r.emitLocked(p, network.MsgCardsDrawn, network.CardsDrawn{Cards: []game.Card{card}})
	}
	r.dealRounds--
	r.broadcastGameStateLocked()
}

func (r *Room) finishDealingLocked() {
	r.isDealing = false
	r.broadcastGameStateLocked()
}

func (r *Room) cancelDealTaskLocked() {
	if r.pendingDealTask != 0 && r.opts.Timers != nil {
		r.opts.Timers.Cancel(r.pendingDealTask)
	}
	r.pendingDealTask = 0
	r.isDealing = false
	r.dealRounds = 0
}

// drawFromDeckLocked pops the top deck card, reshuffling the discard pile
// (minus its top card) back in when the deck runs dry. Returns false only
// when both piles are exhausted.
func (r *Room) drawFromDeckLocked() (game.Card, bool) {
	if len(r.deck) == 0 {
		if len(r.discard) <= 1 {
			return game.Card{}, false
		}
		top := r.discard[len(r.discard)-1]
		r.deck = append(r.deck, r.discard[:len(r.discard)-1]...)
		game.Shuffle(r.deck)
		r.discard = r.discard[:0]
		r.discard = append(r.discard, top)
	}
	card := r.deck[len(r.deck)-1]
	r.deck = r.deck[:len(r.deck)-1]
	return card, true
}

// --- player actions ---

func (r *Room) PlayCard(playerID string, indices []int, chosenColor game.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playCardLocked(playerID, indices, chosenColor)
	r.persistLocked()
}

func (r *Room) playCardLocked(playerID string, indices []int, chosenColor game.Color) {
	if r.isDealing || len(indices) == 0 {
		return
	}
	playerIndex := r.playerIndexLocked(playerID)
	if playerIndex == -1 || playerIndex != r.currentPlayerIndex {
		return
	}
	player := r.players[playerIndex]

	for _, idx := range indices {
		if idx < 0 || idx >= len(player.Hand) {
			return
		}
	}

	// Cards in the player's selected order, resolved before removal.
	cardsToPlay := make([]game.Card, len(indices))
	for i, idx := range indices {
		cardsToPlay[i] = player.Hand[idx]
	}
	if !game.ChainCompatible(cardsToPlay) {
		logger.Log.Infof("room %s: play rejected, cards not chain compatible", r.code)
		return
	}

	topCard := r.discard[len(r.discard)-1]
	first := cardsToPlay[0]

	// With an active draw stack only a like-for-like penalty card counters;
	// otherwise normal legality applies.
	var playable bool
	if r.drawStack > 0 {
		playable = (topCard.Type == game.TypeDrawTwo && first.Type == game.TypeDrawTwo) ||
			(topCard.Type == game.TypeWildDrawFour && first.Type == game.TypeWildDrawFour)
	} else {
		playable = game.CanPlay(first, topCard, r.currentColor)
	}
	if !playable {
		logger.Log.Infof("room %s: play rejected, first card not playable on %v (%s)",
			r.code, topCard, r.currentColor)
		return
	}

	remainingAfter := len(player.Hand) - len(cardsToPlay)

	// A hand may only be emptied on a number card.
	if remainingAfter == 0 {
		for _, c := range cardsToPlay {
			if !c.IsNumber() {
				r.emitLocked(player, network.MsgPlayRejected, network.PlayRejected{Reason: chipOutReason})
				logger.Log.Infof("room %s: %s tried to chip out with special cards", r.code, player.Name)
				return
			}
		}
	}

	// Forgotten UNO call: reaching one-or-zero cards without having called
	// costs two penalty cards and voids the play.
	if remainingAfter <= 1 {
		if _, called := r.unoCalledBy[playerID]; !called {
			penalty := r.drawCardsLocked(player, 2)
			r.emitLocked(player, network.MsgCardsDrawn, network.CardsDrawn{Cards: penalty})
			r.emitAllLocked(network.MsgUnoForgotten, network.UnoForgotten{
				PlayerID:   playerID,
				PlayerName: player.Name,
			})
			logger.Log.Infof("room %s: %s forgot to call UNO, penalty applied", r.code, player.Name)
			r.broadcastGameStateLocked()
			return
		}
	}

	// Remove by original index, high to low, so earlier removals don't
	// shift later ones.
	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	for _, idx := range sorted {
		player.Hand = append(player.Hand[:idx], player.Hand[idx+1:]...)
	}
	r.discard = append(r.discard, cardsToPlay...)

	wildPlayed := false
	for _, c := range cardsToPlay {
		if c.Color == game.ColorWild {
			wildPlayed = true
			break
		}
	}
	if wildPlayed {
		if game.ValidColor(chosenColor) {
			r.currentColor = chosenColor
		} else {
			r.currentColor = game.Colors[0]
		}
	} else {
		r.currentColor = cardsToPlay[len(cardsToPlay)-1].Color
	}

	if len(player.Hand) != 1 {
		delete(r.unoCalledBy, playerID)
	}

	if len(player.Hand) == 0 {
		r.winner = player
		result := network.GameOver{
			Winner: network.WinnerInfo{ID: player.ID, Name: player.Name},
			Scores: r.rankScoresLocked(player.ID),
		}
		r.cancelBotTaskLocked()
		r.emitAllLocked(network.MsgGameOver, result)
		logger.Log.Infof("room %s: %s wins", r.code, player.Name)
		if r.opts.OnGameOver != nil {
			go r.opts.OnGameOver(r.code, result)
		}
		return
	}

	// Fold the effects of every card in the chain into one turn advance.
	skipSteps := 0
	totalDraw := 0
	reverseFlipped := false
	for _, c := range cardsToPlay {
		switch c.Type {
		case game.TypeSkip:
			skipSteps++
		case game.TypeDrawTwo:
			totalDraw += 2
		case game.TypeWildDrawFour:
			totalDraw += 4
		case game.TypeReverse:
			if len(r.players) == 2 {
				// Reversing in a 2-player game is a skip.
				skipSteps++
			} else {
				reverseFlipped = !reverseFlipped
			}
		}
	}
	r.drawStack += totalDraw
	if reverseFlipped {
		r.direction = -r.direction
	}

	steps := 1 + skipSteps
	if len(r.players) == 2 && skipSteps > 0 && steps%2 != 0 {
		// Keep 1v1 parity: a skipping play always returns the turn to
		// the player who made it.
		steps++
	}
	for i := 0; i < steps; i++ {
		r.nextTurnLocked()
	}

	last := cardsToPlay[len(cardsToPlay)-1]
	r.emitAllLocked(network.MsgCardPlayed, network.CardPlayed{
		PlayerID:   playerID,
		PlayerName: player.Name,
		Card:       last,
		Count:      len(cardsToPlay),
		Color:      r.currentColor,
	})
	logger.Log.Infof("room %s: %s played %d card(s), top %v, color %s",
		r.code, player.Name, len(cardsToPlay), last, r.currentColor)
	r.broadcastGameStateLocked()
}

func (r *Room) DrawCard(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drawCardLocked(playerID)
	r.persistLocked()
}

func (r *Room) drawCardLocked(playerID string) {
	if r.isDealing {
		return
	}
	playerIndex := r.playerIndexLocked(playerID)
	if playerIndex == -1 || playerIndex != r.currentPlayerIndex {
		return
	}
	if r.hasDrawnThisTurn {
		return
	}
	player := r.players[playerIndex]

	// Drawing is a last resort: with no stack pending, a player holding a
	// playable card must play it.
	if r.drawStack == 0 && r.hasLegalPlayLocked(player) {
		return
	}

	count := r.drawStack
	if count == 0 {
		count = 1
	}
	r.drawStack = 0

	drawn := r.drawCardsLocked(player, count)
	r.emitLocked(player, network.MsgCardsDrawn, network.CardsDrawn{Cards: drawn})
	delete(r.unoCalledBy, playerID)
	r.hasDrawnThisTurn = true
	r.broadcastGameStateLocked()
}

// drawCardsLocked moves up to count cards into the player's hand; a smaller
// batch means deck and discard are both exhausted.
func (r *Room) drawCardsLocked(player *Player, count int) []game.Card {
	drawn := make([]game.Card, 0, count)
	for i := 0; i < count; i++ {
		card, ok := r.drawFromDeckLocked()
		if !ok {
			break
		}
		player.Hand = append(player.Hand, card)
		drawn = append(drawn, card)
	}
	return drawn
}

func (r *Room) PassTurn(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passTurnLocked(playerID)
	r.persistLocked()
}

func (r *Room) passTurnLocked(playerID string) {
	if r.isDealing {
		return
	}
	playerIndex := r.playerIndexLocked(playerID)
	if playerIndex == -1 || playerIndex != r.currentPlayerIndex {
		return
	}
	if !r.hasDrawnThisTurn {
		return
	}
	r.nextTurnLocked()
	r.broadcastGameStateLocked()
}

func (r *Room) CallUno(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callUnoLocked(playerID)
	r.persistLocked()
}

func (r *Room) callUnoLocked(playerID string) {
	playerIndex := r.playerIndexLocked(playerID)
	if playerIndex == -1 {
		return
	}
	player := r.players[playerIndex]
	if len(player.Hand) < 1 {
		return
	}
	r.unoCalledBy[playerID] = struct{}{}
	r.emitAllLocked(network.MsgUnoCalled, network.UnoCalled{
		PlayerID:   playerID,
		PlayerName: player.Name,
	})
}

func (r *Room) CatchUno(catcherID, targetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catchUnoLocked(catcherID, targetID)
	r.persistLocked()
}

func (r *Room) catchUnoLocked(catcherID, targetID string) {
	catcherIndex := r.playerIndexLocked(catcherID)
	targetIndex := r.playerIndexLocked(targetID)
	if catcherIndex == -1 || targetIndex == -1 {
		return
	}
	target := r.players[targetIndex]
	if len(target.Hand) != 1 {
		return
	}
	if _, called := r.unoCalledBy[targetID]; called {
		return
	}
	r.drawCardsLocked(target, 2)
	r.emitAllLocked(network.MsgUnoCaught, network.UnoCaught{
		CatcherName: r.players[catcherIndex].Name,
		TargetName:  target.Name,
	})
	logger.Log.Infof("room %s: %s caught %s without an UNO call",
		r.code, r.players[catcherIndex].Name, target.Name)
	r.broadcastGameStateLocked()
}

func (r *Room) nextTurnLocked() {
	r.currentPlayerIndex = (r.currentPlayerIndex + r.direction + len(r.players)) % len(r.players)
	r.hasDrawnThisTurn = false
}

// hasLegalPlayLocked mirrors the bot's legality view for human draw checks:
// a sole remaining non-number card is not a legal play (it cannot chip out).
func (r *Room) hasLegalPlayLocked(player *Player) bool {
	if len(r.discard) == 0 {
		return false
	}
	topCard := r.discard[len(r.discard)-1]
	if r.drawStack > 0 {
		for _, c := range player.Hand {
			if (topCard.Type == game.TypeDrawTwo && c.Type == game.TypeDrawTwo) ||
				(topCard.Type == game.TypeWildDrawFour && c.Type == game.TypeWildDrawFour) {
				return true
			}
		}
		return false
	}
	for _, c := range player.Hand {
		if !game.CanPlay(c, topCard, r.currentColor) {
			continue
		}
		if len(player.Hand) == 1 && !c.IsNumber() {
			continue
		}
		return true
	}
	return false
}

// --- scoring ---

// rankScoresLocked orders the final standings: winner first, then ascending
// hand size, ties broken by ascending hand points.
func (r *Room) rankScoresLocked(winnerID string) []network.ScoreEntry {
	entries := make([]network.ScoreEntry, 0, len(r.players))
	for _, p := range r.players {
		entries = append(entries, network.ScoreEntry{
			ID:       p.ID,
			Name:     p.Name,
			HandSize: len(p.Hand),
			Points:   game.HandPoints(p.Hand),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ID == winnerID {
			return true
		}
		if entries[j].ID == winnerID {
			return false
		}
		if entries[i].HandSize != entries[j].HandSize {
			return entries[i].HandSize < entries[j].HandSize
		}
		return entries[i].Points < entries[j].Points
	})
	return entries
}

// --- outbound projection ---

func (r *Room) emitLocked(p *Player, msgID uint16, payload interface{}) {
	if err := broadcast.SendJSON(p.actor, msgID, payload); err != nil {
		logger.Log.Warnf("room %s: send to %s failed: %v", r.code, p.Name, err)
	}
}

func (r *Room) emitAllLocked(msgID uint16, payload interface{}) {
	for _, p := range r.players {
		r.emitLocked(p, msgID, payload)
	}
}

func (r *Room) broadcastLobbyLocked() {
	state := network.LobbyState{
		RoomCode:    r.code,
		GameStarted: r.gameStarted,
	}
	for _, p := range r.players {
		state.Players = append(state.Players, network.LobbyPlayer{
			ID:        p.ID,
			Name:      p.Name,
			IsHost:    p.IsHost,
			IsBot:     p.IsBot,
			Connected: p.Connected,
		})
	}
	r.emitAllLocked(network.MsgLobbyState, state)
}

// BroadcastLobby pushes the current lobby projection to every seat.
func (r *Room) BroadcastLobby() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLobbyLocked()
}

func (r *Room) BroadcastGameState() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastGameStateLocked()
}

func (r *Room) broadcastGameStateLocked() {
	if len(r.players) == 0 {
		return
	}
	if r.currentPlayerIndex >= len(r.players) {
		r.currentPlayerIndex = 0
	}
	var topCard *game.Card
	if len(r.discard) > 0 {
		top := r.discard[len(r.discard)-1]
		topCard = &top
	}
	current := r.players[r.currentPlayerIndex]

	public := make([]network.PublicPlayer, 0, len(r.players))
	for _, p := range r.players {
		public = append(public, network.PublicPlayer{
			ID:            p.ID,
			Name:          p.Name,
			CardCount:     len(p.Hand),
			IsCurrentTurn: p.ID == current.ID,
			Connected:     p.Connected,
		})
	}

	for _, p := range r.players {
		var catchable []network.CatchablePlayer
		for _, other := range r.players {
			if other.ID == p.ID || len(other.Hand) != 1 {
				continue
			}
			if _, called := r.unoCalledBy[other.ID]; called {
				continue
			}
			catchable = append(catchable, network.CatchablePlayer{ID: other.ID, Name: other.Name})
		}
		r.emitLocked(p, network.MsgGameState, network.GameState{
			RoomCode:          r.code,
			CurrentPlayerID:   current.ID,
			CurrentPlayerName: current.Name,
			Direction:         r.direction,
			CurrentColor:      r.currentColor,
			TopCard:           topCard,
			DrawStack:         r.drawStack,
			DeckCount:         len(r.deck),
			Hand:              p.Hand,
			HasDrawnThisTurn:  r.hasDrawnThisTurn,
			IsDealing:         r.isDealing,
			Players:           public,
			CanCallUno:        len(p.Hand) == 2,
			CatchablePlayers:  catchable,
		})
	}

	// Post-mutation hook: a new state may put a bot on turn.
	r.maybeScheduleBotLocked()
}

// --- hooks ---

func (r *Room) persistLocked() {
	if r.opts.OnChange == nil {
		return
	}
	snap := r.snapshotLocked()
	go r.opts.OnChange(r.code, snap)
}

// Close cancels any pending timers for the room.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelDealTaskLocked()
	r.cancelBotTaskLocked()
}

func randomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

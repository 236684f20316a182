package room

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/unoserver/game"
	"github.com/wfunc/unoserver/network"
)

// recorder is a test actor that captures everything sent to one seat.
type recorder struct {
	mu   sync.Mutex
	msgs []recorded
}

type recorded struct {
	id   uint16
	data []byte
}

func (r *recorder) Send(msgID uint16, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, recorded{id: msgID, data: append([]byte(nil), data...)})
	return nil
}

func (r *recorder) count(msgID uint16) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.id == msgID {
			n++
		}
	}
	return n
}

func (r *recorder) last(t *testing.T, msgID uint16, out interface{}) bool {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if r.msgs[i].id == msgID {
			require.NoError(t, json.Unmarshal(r.msgs[i].data, out))
			return true
		}
	}
	return false
}

func testOptions() Options {
	return Options{MaxPlayers: 10, StartingCards: 7}
}

func newTestRoom(t *testing.T, names ...string) (*Room, map[string]*recorder) {
	t.Helper()
	r := NewRoom("TEST", testOptions())
	recorders := make(map[string]*recorder)
	for _, name := range names {
		rec := &recorder{}
		recorders[name] = rec
		require.True(t, r.AddPlayer("id-"+name, name, rec))
	}
	return r, recorders
}

func num(color game.Color, value int) game.Card {
	return game.Card{Color: color, Type: game.TypeNumber, Value: value}
}

func special(color game.Color, cardType game.CardType) game.Card {
	return game.Card{Color: color, Type: cardType}
}

func wild() game.Card {
	return game.Card{Color: game.ColorWild, Type: game.TypeWild}
}

func wildFour() game.Card {
	return game.Card{Color: game.ColorWild, Type: game.TypeWildDrawFour}
}

// craft puts a started room into an exact mid-game position: hands in seat
// order, the given top card and active color, seat 0 on turn.
func craft(r *Room, top game.Card, color game.Color, hands ...[]game.Card) {
	r.gameStarted = true
	r.isDealing = false
	r.deck = game.BuildDeck()
	r.discard = []game.Card{top}
	r.currentColor = color
	r.currentPlayerIndex = 0
	r.direction = 1
	r.drawStack = 0
	r.hasDrawnThisTurn = false
	r.winner = nil
	r.unoCalledBy = make(map[string]struct{})
	for i, hand := range hands {
		r.players[i].Hand = append([]game.Card(nil), hand...)
	}
}

func totalCards(r *Room) int {
	total := len(r.deck) + len(r.discard)
	for _, p := range r.players {
		total += len(p.Hand)
	}
	return total
}

func TestStartGameDealsAndConservesCards(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben", "cleo")
	r.StartGame(7)

	require.True(t, r.Started())
	for _, p := range r.players {
		assert.Len(t, p.Hand, 7)
	}
	assert.Equal(t, 108, totalCards(r))

	seen := make(map[int]bool)
	for _, c := range r.deck {
		seen[c.ID] = true
	}
	for _, c := range r.discard {
		seen[c.ID] = true
	}
	for _, p := range r.players {
		for _, c := range p.Hand {
			seen[c.ID] = true
		}
	}
	assert.Len(t, seen, 108)
}

func TestStartGameNeedsTwoPlayers(t *testing.T) {
	r, _ := newTestRoom(t, "solo")
	r.StartGame(7)
	assert.False(t, r.Started())
}

func TestFirstCardNeverWildDrawFour(t *testing.T) {
	for i := 0; i < 50; i++ {
		r, _ := newTestRoom(t, "ana", "ben")
		r.StartGame(7)
		require.NotEmpty(t, r.discard)
		assert.NotEqual(t, game.TypeWildDrawFour, r.discard[0].Type)
		assert.True(t, game.ValidColor(r.currentColor))
	}
}

func TestStartGameIsRematchReset(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	r.StartGame(7)
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 5)},
		[]game.Card{num(game.ColorBlue, 1), num(game.ColorBlue, 2)})
	r.unoCalledBy["id-ana"] = struct{}{}
	r.PlayCard("id-ana", []int{0}, "")
	require.NotNil(t, r.winner)

	r.StartGame(7)
	assert.Nil(t, r.winner)
	assert.Equal(t, 0, r.drawStack)
	assert.Empty(t, r.unoCalledBy)
	assert.Equal(t, 108, totalCards(r))
	for _, p := range r.players {
		assert.Len(t, p.Hand, 7)
	}
}

func TestPlayAdvancesTurn(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben", "cleo")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7), num(game.ColorBlue, 2), num(game.ColorBlue, 3)},
		[]game.Card{num(game.ColorGreen, 1)},
		[]game.Card{num(game.ColorYellow, 3)})

	r.PlayCard("id-ana", []int{0}, "")

	assert.Equal(t, 1, r.currentPlayerIndex)
	assert.Equal(t, game.ColorRed, r.currentColor)
	assert.Len(t, r.players[0].Hand, 2)
	assert.Equal(t, num(game.ColorRed, 7), r.discard[len(r.discard)-1])
}

func TestPlayOutOfTurnIgnored(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7)},
		[]game.Card{num(game.ColorRed, 9), num(game.ColorBlue, 1)})

	r.PlayCard("id-ben", []int{0}, "")

	assert.Equal(t, 0, r.currentPlayerIndex)
	assert.Len(t, r.players[1].Hand, 2)
}

func TestPlayMismatchedCardIgnored(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorBlue, 7), num(game.ColorRed, 1)},
		[]game.Card{num(game.ColorGreen, 1)})

	r.PlayCard("id-ana", []int{0}, "")

	assert.Equal(t, 0, r.currentPlayerIndex)
	assert.Len(t, r.players[0].Hand, 2)
}

func TestReverseFlipsDirectionWithThreePlayers(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben", "cleo")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{special(game.ColorRed, game.TypeReverse), num(game.ColorBlue, 2), num(game.ColorBlue, 3)},
		[]game.Card{num(game.ColorGreen, 1)},
		[]game.Card{num(game.ColorYellow, 3)})

	r.PlayCard("id-ana", []int{0}, "")

	assert.Equal(t, -1, r.direction)
	// Direction flipped, so the turn moves to the previous seat.
	assert.Equal(t, 2, r.currentPlayerIndex)
}

func TestTwoPlayerReverseActsAsSkip(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{special(game.ColorRed, game.TypeReverse), num(game.ColorBlue, 2), num(game.ColorBlue, 3)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)})

	r.PlayCard("id-ana", []int{0}, "")

	assert.Equal(t, 1, r.direction)
	assert.Equal(t, 0, r.currentPlayerIndex, "reverse in a 2-player game keeps the turn")
}

func TestTwoPlayerSkipKeepsTurn(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{special(game.ColorRed, game.TypeSkip), num(game.ColorBlue, 2), num(game.ColorBlue, 3)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)})

	r.PlayCard("id-ana", []int{0}, "")

	assert.Equal(t, 0, r.currentPlayerIndex)
}

func TestSkipWithThreePlayers(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben", "cleo")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{special(game.ColorRed, game.TypeSkip), num(game.ColorBlue, 2), num(game.ColorBlue, 3)},
		[]game.Card{num(game.ColorGreen, 1)},
		[]game.Card{num(game.ColorYellow, 3)})

	r.PlayCard("id-ana", []int{0}, "")

	assert.Equal(t, 2, r.currentPlayerIndex)
}

func TestChainedSkipsAccumulate(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben", "cleo", "dan")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{special(game.ColorRed, game.TypeSkip), special(game.ColorBlue, game.TypeSkip), num(game.ColorBlue, 2), num(game.ColorBlue, 3)},
		[]game.Card{num(game.ColorGreen, 1)},
		[]game.Card{num(game.ColorYellow, 3)},
		[]game.Card{num(game.ColorYellow, 4)})

	r.PlayCard("id-ana", []int{0, 1}, "")

	// Two skips plus the base advance lands three seats over.
	assert.Equal(t, 3, r.currentPlayerIndex)
	assert.Len(t, r.players[0].Hand, 2)
}

func TestReversePairCancelsOutWithThreePlayers(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben", "cleo")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{special(game.ColorRed, game.TypeReverse), special(game.ColorBlue, game.TypeReverse), num(game.ColorBlue, 2), num(game.ColorBlue, 3)},
		[]game.Card{num(game.ColorGreen, 1)},
		[]game.Card{num(game.ColorYellow, 3)})

	r.PlayCard("id-ana", []int{0, 1}, "")

	// An even reverse count folds to no flip, leaving a single advance.
	assert.Equal(t, 1, r.direction)
	assert.Equal(t, 1, r.currentPlayerIndex)
	assert.Len(t, r.players[0].Hand, 2)
}

func TestChainRejectsMixedFaces(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 5), num(game.ColorRed, 7), num(game.ColorBlue, 1)},
		[]game.Card{num(game.ColorGreen, 1)})

	r.PlayCard("id-ana", []int{0, 1}, "")

	assert.Len(t, r.players[0].Hand, 3)
	assert.Equal(t, 0, r.currentPlayerIndex)
}

func TestWildSetsChosenColor(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{wild(), num(game.ColorBlue, 2), num(game.ColorBlue, 3)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)})

	r.PlayCard("id-ana", []int{0}, game.ColorGreen)

	assert.Equal(t, game.ColorGreen, r.currentColor)
}

func TestWildWithInvalidColorFallsBack(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{wild(), num(game.ColorBlue, 2), num(game.ColorBlue, 3)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)})

	r.PlayCard("id-ana", []int{0}, "purple")

	assert.True(t, game.ValidColor(r.currentColor))
}

func TestDrawTwoStacksLikeForLike(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben", "cleo")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{special(game.ColorRed, game.TypeDrawTwo), num(game.ColorBlue, 2), num(game.ColorBlue, 3)},
		[]game.Card{special(game.ColorGreen, game.TypeDrawTwo), num(game.ColorGreen, 1), num(game.ColorGreen, 2)},
		[]game.Card{num(game.ColorYellow, 3), num(game.ColorYellow, 4)})

	r.PlayCard("id-ana", []int{0}, "")
	require.Equal(t, 2, r.drawStack)
	require.Equal(t, 1, r.currentPlayerIndex)

	r.PlayCard("id-ben", []int{0}, "")
	require.Equal(t, 4, r.drawStack)
	require.Equal(t, 2, r.currentPlayerIndex)

	before := len(r.players[2].Hand)
	r.DrawCard("id-cleo")
	assert.Equal(t, before+4, len(r.players[2].Hand))
	assert.Equal(t, 0, r.drawStack)
	assert.True(t, r.hasDrawnThisTurn)

	r.PassTurn("id-cleo")
	assert.Equal(t, 0, r.currentPlayerIndex)
}

func TestDrawStackNeverMixesPenaltyKinds(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{special(game.ColorRed, game.TypeDrawTwo), num(game.ColorBlue, 2), num(game.ColorBlue, 3)},
		[]game.Card{wildFour(), num(game.ColorGreen, 1)})

	r.PlayCard("id-ana", []int{0}, "")
	require.Equal(t, 2, r.drawStack)

	r.PlayCard("id-ben", []int{0}, game.ColorGreen)

	assert.Equal(t, 2, r.drawStack, "a +4 may not answer a +2")
	assert.Len(t, r.players[1].Hand, 2)
}

func TestStackedWildFours(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben", "cleo")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{wildFour(), num(game.ColorBlue, 2), num(game.ColorBlue, 3)},
		[]game.Card{wildFour(), num(game.ColorGreen, 1), num(game.ColorGreen, 2)},
		[]game.Card{num(game.ColorYellow, 3), num(game.ColorYellow, 4)})

	r.PlayCard("id-ana", []int{0}, game.ColorBlue)
	require.Equal(t, 4, r.drawStack)

	r.PlayCard("id-ben", []int{0}, game.ColorGreen)
	require.Equal(t, 8, r.drawStack)
	assert.Equal(t, game.ColorGreen, r.currentColor)

	before := len(r.players[2].Hand)
	r.DrawCard("id-cleo")
	assert.Equal(t, before+8, len(r.players[2].Hand))
}

func TestDrawRefusedWhileHoldingLegalPlay(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7), num(game.ColorBlue, 2)},
		[]game.Card{num(game.ColorGreen, 1)})

	r.DrawCard("id-ana")

	assert.Len(t, r.players[0].Hand, 2)
	assert.False(t, r.hasDrawnThisTurn)
}

func TestDrawOncePerTurnThenPass(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorBlue, 7)},
		[]game.Card{num(game.ColorGreen, 1)})

	r.PassTurn("id-ana")
	assert.Equal(t, 0, r.currentPlayerIndex, "cannot pass before drawing")

	r.DrawCard("id-ana")
	handAfterFirst := len(r.players[0].Hand)
	require.Equal(t, 2, handAfterFirst)

	r.DrawCard("id-ana")
	assert.Equal(t, handAfterFirst, len(r.players[0].Hand), "second draw is refused")

	r.PassTurn("id-ana")
	assert.Equal(t, 1, r.currentPlayerIndex)
}

func TestDrawClearsUnoStatus(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorBlue, 7)},
		[]game.Card{num(game.ColorGreen, 1)})
	r.unoCalledBy["id-ana"] = struct{}{}

	r.DrawCard("id-ana")

	_, called := r.unoCalledBy["id-ana"]
	assert.False(t, called)
}

func TestDeckExhaustionReshufflesDiscard(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorBlue, 7)},
		[]game.Card{num(game.ColorGreen, 1)})
	r.deck = nil
	r.discard = []game.Card{num(game.ColorYellow, 1), num(game.ColorYellow, 2), num(game.ColorRed, 5)}

	r.DrawCard("id-ana")

	assert.Len(t, r.players[0].Hand, 2)
	assert.Equal(t, num(game.ColorRed, 5), r.discard[0], "top card stays on the pile")
	assert.Equal(t, 1, len(r.deck)+len(r.discard)-1, "the two buried cards feed the new deck")
}

func TestDrawToleratesTotalExhaustion(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorBlue, 7)},
		[]game.Card{num(game.ColorGreen, 1)})
	r.deck = nil
	r.discard = []game.Card{num(game.ColorRed, 5)}

	r.DrawCard("id-ana")

	assert.Len(t, r.players[0].Hand, 1, "nothing left to draw")
	assert.True(t, r.hasDrawnThisTurn)
}

func TestForgottenUnoCallVoidsPlay(t *testing.T) {
	r, recs := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7), num(game.ColorBlue, 2)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)})

	r.PlayCard("id-ana", []int{0}, "")

	assert.Len(t, r.players[0].Hand, 4, "two penalty cards on top of the kept hand")
	assert.Equal(t, 0, r.currentPlayerIndex, "the play is voided, turn stays")
	assert.Len(t, r.discard, 1)
	assert.Equal(t, 1, recs["ben"].count(network.MsgUnoForgotten))
}

func TestCalledUnoAllowsThePlay(t *testing.T) {
	r, recs := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7), num(game.ColorBlue, 2)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)})

	r.CallUno("id-ana")
	r.PlayCard("id-ana", []int{0}, "")

	assert.Len(t, r.players[0].Hand, 1)
	assert.Equal(t, 1, r.currentPlayerIndex)
	assert.Equal(t, 1, recs["ben"].count(network.MsgUnoCalled))
}

func TestCatchUnoPenalizesTarget(t *testing.T) {
	r, recs := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)})

	r.CatchUno("id-ben", "id-ana")

	assert.Len(t, r.players[0].Hand, 3)
	var caught network.UnoCaught
	require.True(t, recs["ana"].last(t, network.MsgUnoCaught, &caught))
	assert.Equal(t, "ben", caught.CatcherName)
	assert.Equal(t, "ana", caught.TargetName)
}

func TestCatchUnoFailsWhenCalled(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)})
	r.unoCalledBy["id-ana"] = struct{}{}

	r.CatchUno("id-ben", "id-ana")

	assert.Len(t, r.players[0].Hand, 1)
}

func TestCatchUnoFailsOnBiggerHand(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7), num(game.ColorRed, 8)},
		[]game.Card{num(game.ColorGreen, 1)})

	r.CatchUno("id-ben", "id-ana")

	assert.Len(t, r.players[0].Hand, 2)
}

func TestChipOutRequiresNumberCard(t *testing.T) {
	r, recs := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{special(game.ColorRed, game.TypeSkip)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)})
	r.unoCalledBy["id-ana"] = struct{}{}

	r.PlayCard("id-ana", []int{0}, "")

	assert.Len(t, r.players[0].Hand, 1)
	assert.Nil(t, r.winner)
	var rejected network.PlayRejected
	require.True(t, recs["ana"].last(t, network.MsgPlayRejected, &rejected))
	assert.NotEmpty(t, rejected.Reason)
	assert.Equal(t, 0, recs["ben"].count(network.MsgPlayRejected), "rejection is private")
}

func TestWinWithNumberCard(t *testing.T) {
	r, recs := newTestRoom(t, "ana", "ben", "cleo")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 9)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)},
		[]game.Card{wild(), special(game.ColorBlue, game.TypeSkip), num(game.ColorBlue, 3)})
	r.unoCalledBy["id-ana"] = struct{}{}

	r.PlayCard("id-ana", []int{0}, "")

	require.NotNil(t, r.winner)
	assert.Equal(t, "ana", r.winner.Name)

	var over network.GameOver
	require.True(t, recs["ben"].last(t, network.MsgGameOver, &over))
	assert.Equal(t, "ana", over.Winner.Name)
	require.Len(t, over.Scores, 3)
	assert.Equal(t, "ana", over.Scores[0].Name)
	assert.Equal(t, "ben", over.Scores[1].Name, "fewer points breaks the 2-card tie")
	assert.Equal(t, 0, over.Scores[0].HandSize)
	assert.Equal(t, 3, over.Scores[1].Points)
	assert.Equal(t, 73, over.Scores[2].Points)
}

func TestGameOverHookFires(t *testing.T) {
	done := make(chan network.GameOver, 1)
	opts := testOptions()
	opts.OnGameOver = func(code string, result network.GameOver) {
		done <- result
	}
	r := NewRoom("HOOK", opts)
	require.True(t, r.AddPlayer("id-ana", "ana", nil))
	require.True(t, r.AddPlayer("id-ben", "ben", nil))
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 9)},
		[]game.Card{num(game.ColorGreen, 1)})
	r.unoCalledBy["id-ana"] = struct{}{}

	r.PlayCard("id-ana", []int{0}, "")

	result := <-done
	assert.Equal(t, "ana", result.Winner.Name)
}

func TestUnoStatusClearedWhenHandGrowsPastOne(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7), num(game.ColorRed, 8), num(game.ColorBlue, 2)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)})
	r.unoCalledBy["id-ana"] = struct{}{}

	r.PlayCard("id-ana", []int{0}, "")

	_, called := r.unoCalledBy["id-ana"]
	assert.False(t, called, "a play leaving more than one card clears the call")
}

func TestGameStatePersonalized(t *testing.T) {
	r, recs := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7), num(game.ColorBlue, 2)},
		[]game.Card{num(game.ColorGreen, 1)})

	r.BroadcastGameState()

	var forAna, forBen network.GameState
	require.True(t, recs["ana"].last(t, network.MsgGameState, &forAna))
	require.True(t, recs["ben"].last(t, network.MsgGameState, &forBen))

	assert.Len(t, forAna.Hand, 2)
	assert.Len(t, forBen.Hand, 1)
	assert.True(t, forAna.CanCallUno)
	assert.False(t, forBen.CanCallUno)

	require.Len(t, forAna.CatchablePlayers, 1)
	assert.Equal(t, "ben", forAna.CatchablePlayers[0].Name)
	assert.Empty(t, forBen.CatchablePlayers, "players never see themselves as catchable")

	require.Len(t, forBen.Players, 2)
	assert.Equal(t, 2, forBen.Players[0].CardCount)
	assert.True(t, forBen.Players[0].IsCurrentTurn)
}

func TestHostTransferOnRemoval(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	require.True(t, r.IsHost("id-ana"))

	r.RemovePlayer("id-ana")

	assert.True(t, r.IsHost("id-ben"))
	assert.Equal(t, 1, r.PlayerCount())
}

func TestRemovalDuringGameAdjustsTurn(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben", "cleo")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7)},
		[]game.Card{num(game.ColorGreen, 1)},
		[]game.Card{num(game.ColorYellow, 3)})
	r.currentPlayerIndex = 2

	r.RemovePlayer("id-cleo")

	assert.Equal(t, 0, r.currentPlayerIndex)
	assert.Equal(t, 2, r.PlayerCount())
}

func TestRemovalLeavingOnePlayerKeepsTurnValid(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7), num(game.ColorRed, 8)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)})
	r.currentPlayerIndex = 1

	r.RemovePlayer("id-ana")
	assert.Equal(t, 0, r.currentPlayerIndex)

	// The survivor dropping and coming back triggers a game-state
	// broadcast, which must not trip over the shrunken seat list.
	require.True(t, r.MarkDisconnected("id-ben"))
	rec := &recorder{}
	found, _, started := r.Reconnect("ben", "id-ben-new", rec)
	require.True(t, found)
	assert.True(t, started)

	var state network.GameState
	require.True(t, rec.last(t, network.MsgGameState, &state))
	assert.Equal(t, "id-ben-new", state.CurrentPlayerID)
}

func TestReconnectRebindsSeatByName(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	craft(r, num(game.ColorRed, 5), game.ColorRed,
		[]game.Card{num(game.ColorRed, 7)},
		[]game.Card{num(game.ColorGreen, 1), num(game.ColorGreen, 2)})
	r.unoCalledBy["id-ana"] = struct{}{}
	require.True(t, r.MarkDisconnected("id-ana"))
	require.True(t, r.IsDisconnected("id-ana"))

	rec := &recorder{}
	found, isHost, started := r.Reconnect("ana", "id-ana-2", rec)

	require.True(t, found)
	assert.True(t, isHost)
	assert.True(t, started)
	assert.True(t, r.HasPlayer("id-ana-2"))
	assert.False(t, r.HasPlayer("id-ana"))
	_, called := r.unoCalledBy["id-ana-2"]
	assert.True(t, called, "UNO status follows the seat across reconnects")
	assert.Greater(t, rec.count(network.MsgGameState), 0)
}

func TestReconnectUnknownName(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	found, _, _ := r.Reconnect("zoe", "id-zoe", nil)
	assert.False(t, found)
}

func TestCapacityLimit(t *testing.T) {
	opts := testOptions()
	opts.MaxPlayers = 2
	r := NewRoom("FULL", opts)
	require.True(t, r.AddPlayer("a", "ana", nil))
	require.True(t, r.AddPlayer("b", "ben", nil))
	assert.False(t, r.AddPlayer("c", "cleo", nil))
	assert.False(t, r.AddBot("bot-1"))
}

func TestJoinAfterStartRefused(t *testing.T) {
	r, _ := newTestRoom(t, "ana", "ben")
	r.StartGame(7)
	assert.False(t, r.AddPlayer("c", "cleo", nil))
}

func TestBotNamesNumberSequentially(t *testing.T) {
	r, _ := newTestRoom(t, "ana")
	require.True(t, r.AddBot("bot-1"))
	require.True(t, r.AddBot("bot-2"))

	assert.Equal(t, "Bot 1", r.players[1].Name)
	assert.Equal(t, "Bot 2", r.players[2].Name)
	assert.False(t, r.players[1].IsHost)
}

func TestFirstCardEffects(t *testing.T) {
	// Crafted decks put a chosen first card on top (the deck pops from the
	// end after the hands are dealt, so the card right after the dealt
	// portion surfaces first). Simpler to exercise via direct state checks.
	r, _ := newTestRoom(t, "ana", "ben", "cleo")
	for i := 0; i < 30; i++ {
		r.StartGame(7)
		first := r.discard[0]
		switch first.Type {
		case game.TypeSkip:
			assert.Equal(t, 1, r.currentPlayerIndex)
		case game.TypeReverse:
			assert.Equal(t, -1, r.direction)
		case game.TypeDrawTwo:
			assert.Equal(t, 2, r.drawStack)
		case game.TypeWild:
			assert.True(t, game.ValidColor(r.currentColor))
			assert.Equal(t, 0, r.currentPlayerIndex)
		default:
			assert.Equal(t, first.Color, r.currentColor)
			assert.Equal(t, 0, r.currentPlayerIndex)
		}
	}
}

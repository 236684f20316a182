package room

import (
	"math/rand"
	"strconv"

	"github.com/wfunc/unoserver/game"
	"github.com/wfunc/unoserver/logger"
)

// Bot turns run through the same serialized operations as human intents. A
// state broadcast that leaves a bot on turn schedules one delayed turn for
// it; the pending task is cancelled the moment the turn moves on, and stale
// fires are dropped by the turn guard in performBotTurnLocked.

const botCatchChance = 0.85

func (r *Room) cancelBotTaskLocked() {
	if r.pendingBotTask != 0 && r.opts.Timers != nil {
		r.opts.Timers.Cancel(r.pendingBotTask)
	}
	r.pendingBotTask = 0
	r.pendingBotID = ""
}

func (r *Room) maybeScheduleBotLocked() {
	if !r.gameStarted || r.isDealing || r.winner != nil || len(r.players) == 0 {
		r.cancelBotTaskLocked()
		return
	}
	current := r.players[r.currentPlayerIndex]
	if !current.IsBot {
		r.cancelBotTaskLocked()
		return
	}
	if r.pendingBotID == current.ID {
		return
	}
	r.cancelBotTaskLocked()
	if r.opts.Timers == nil {
		return
	}
	botID := current.ID
	r.pendingBotID = botID
	r.pendingBotTask = r.opts.Timers.Schedule(
		randomDelay(r.opts.BotDelayMin, r.opts.BotDelayMax),
		func() { r.PerformBotTurn(botID) },
	)
}

// PerformBotTurn runs one decision for the named bot. Safe to call when the
// turn has already moved on; stale calls are dropped.
func (r *Room) PerformBotTurn(botID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.performBotTurnLocked(botID)
	r.persistLocked()
}

func (r *Room) performBotTurnLocked(botID string) {
	if r.pendingBotID == botID {
		r.pendingBotTask = 0
		r.pendingBotID = ""
	}
	index := r.playerIndexLocked(botID)
	if index == -1 || index != r.currentPlayerIndex {
		return
	}
	bot := r.players[index]
	if !bot.IsBot || !r.gameStarted || r.isDealing || r.winner != nil {
		return
	}

	r.botTryCatchLocked(bot)

	topCard := r.discard[len(r.discard)-1]
	groups := r.botPlayableGroupsLocked(bot.Hand, topCard)
	if r.drawStack == 0 && !r.hasLegalPlayLocked(bot) {
		groups = nil
	}

	if r.drawStack > 0 {
		if len(groups) > 0 {
			r.botPlaySelectionLocked(bot, groups)
		} else {
			r.drawCardLocked(botID)
			r.passTurnLocked(botID)
		}
		return
	}

	if len(groups) == 0 {
		if !r.hasDrawnThisTurn {
			r.drawCardLocked(botID)
		} else {
			r.passTurnLocked(botID)
		}
		return
	}

	r.botPlaySelectionLocked(bot, groups)
}

func (r *Room) botPlaySelectionLocked(bot *Player, groups []cardGroup) {
	indices := r.chooseBotPlayLocked(bot.Hand, groups)
	if len(indices) == 0 {
		return
	}
	chosenColor := r.botWildColorLocked(bot.Hand, indices[0])
	if len(bot.Hand)-len(indices) <= 1 {
		r.callUnoLocked(bot.ID)
	}
	r.playCardLocked(bot.ID, indices, chosenColor)
}

// botTryCatchLocked has the bot scan for players sitting on one uncalled
// card before taking its turn. The catch is probabilistic so bots stay
// competitive without being flawless.
func (r *Room) botTryCatchLocked(bot *Player) {
	for _, p := range r.players {
		if p.ID == bot.ID || len(p.Hand) != 1 {
			continue
		}
		if _, called := r.unoCalledBy[p.ID]; called {
			continue
		}
		if rand.Float64() < botCatchChance {
			logger.Log.Infof("room %s: bot %s caught %s forgetting UNO", r.code, bot.Name, p.Name)
			r.catchUnoLocked(bot.ID, p.ID)
		}
	}
}

type cardGroup struct {
	card    game.Card
	indices []int
}

// botPlayableGroupsLocked buckets the hand by (type, value) in hand order
// and keeps the groups whose face is currently playable.
func (r *Room) botPlayableGroupsLocked(hand []game.Card, topCard game.Card) []cardGroup {
	var ordered []cardGroup
	position := make(map[string]int)
	for i, c := range hand {
		key := string(c.Type) + ":" + strconv.Itoa(c.Value)
		if j, ok := position[key]; ok {
			ordered[j].indices = append(ordered[j].indices, i)
			continue
		}
		position[key] = len(ordered)
		ordered = append(ordered, cardGroup{card: c, indices: []int{i}})
	}

	var playable []cardGroup
	for _, g := range ordered {
		if r.drawStack > 0 {
			if (topCard.Type == game.TypeDrawTwo && g.card.Type == game.TypeDrawTwo) ||
				(topCard.Type == game.TypeWildDrawFour && g.card.Type == game.TypeWildDrawFour) {
				playable = append(playable, g)
			}
		} else if game.CanPlay(g.card, topCard, r.currentColor) {
			playable = append(playable, g)
		}
	}
	return playable
}

// chooseBotPlayLocked scores every playable group and returns the hand
// indices of the best one. Winning dominates everything; below that the
// heuristic weighs offense against a short-stacked next player, multi-card
// plays, color depth, and holding action cards back until the endgame.
func (r *Room) chooseBotPlayLocked(hand []game.Card, groups []cardGroup) []int {
	colorCounts := make(map[game.Color]int)
	for _, c := range hand {
		if c.Color != game.ColorWild {
			colorCounts[c.Color]++
		}
	}

	nextHandSize := r.nextPlayerHandSizeLocked()
	nextIsDangerous := nextHandSize <= 2
	isEndgame := len(hand) <= 3
	if !isEndgame {
		for _, p := range r.players {
			if len(p.Hand) <= 2 {
				isEndgame = true
				break
			}
		}
	}

	var best []int
	bestScore := 0
	haveBest := false

	for _, g := range groups {
		card := g.card
		playCount := len(g.indices)
		cardsAfterPlay := len(hand) - playCount
		isSpecial := !card.IsNumber()

		// A hand can only be emptied on a number card, so a winning
		// special group plays one card short of the win, or not at all.
		if isSpecial && cardsAfterPlay == 0 {
			if playCount > 1 {
				playCount--
				cardsAfterPlay++
			} else {
				continue
			}
		}

		score := 0

		if cardsAfterPlay == 0 {
			score += 10000
		} else if cardsAfterPlay == 1 {
			score += 500
		}

		if nextIsDangerous {
			switch card.Type {
			case game.TypeDrawTwo:
				score += 200
			case game.TypeWildDrawFour:
				score += 250
			case game.TypeSkip:
				score += 150
			case game.TypeReverse:
				score += 100
			}
		}

		score += playCount * 15

		effectiveColor := card.Color
		if effectiveColor == game.ColorWild {
			effectiveColor = r.currentColor
		}
		score += colorCounts[effectiveColor] * 3

		if isEndgame {
			switch card.Type {
			case game.TypeNumber:
				score += 5
			case game.TypeDrawTwo:
				score += 20
			case game.TypeSkip:
				score += 15
			case game.TypeReverse:
				score += 10
			case game.TypeWild:
				score += 8
			case game.TypeWildDrawFour:
				score += 25
			}
		} else {
			switch card.Type {
			case game.TypeNumber:
				score += 20
			case game.TypeSkip, game.TypeReverse:
				score -= 5
			case game.TypeDrawTwo:
				score -= 3
			case game.TypeWild:
				score -= 10
			case game.TypeWildDrawFour:
				score -= 15
			}
		}

		if playCount >= 2 {
			score += 10
		}

		if card.Color == game.ColorWild && !isEndgame && !nextIsDangerous {
			score -= 20
		}

		if !haveBest || score > bestScore {
			haveBest = true
			bestScore = score
			best = g.indices[:playCount]
		}
	}

	if !haveBest && len(groups) > 0 {
		best = groups[0].indices[:1]
	}
	return best
}

func (r *Room) nextPlayerHandSizeLocked() int {
	if len(r.players) <= 1 {
		return 7
	}
	next := (r.currentPlayerIndex + r.direction + len(r.players)) % len(r.players)
	return len(r.players[next].Hand)
}

// botWildColorLocked picks the announced color for a wild play, weighing how
// deep the bot's hand runs in each color, how playable those cards are, and
// whether a color carries action cards useful against a dangerous next
// player.
func (r *Room) botWildColorLocked(hand []game.Card, wildIndex int) game.Color {
	if wildIndex < 0 || wildIndex >= len(hand) || hand[wildIndex].Color != game.ColorWild {
		return ""
	}
	if len(hand) == 1 {
		return game.Colors[0]
	}

	colorCounts := make(map[game.Color]int)
	colorPlayability := make(map[game.Color]int)
	for i, c := range hand {
		if i == wildIndex || c.Color == game.ColorWild {
			continue
		}
		colorCounts[c.Color]++
		if c.IsNumber() {
			colorPlayability[c.Color] += 2
		} else {
			colorPlayability[c.Color]++
		}
	}

	nextIsDangerous := r.nextPlayerHandSizeLocked() <= 2

	bestColor := game.Colors[0]
	bestScore := -1 << 30
	for _, color := range game.Colors {
		score := colorCounts[color]*10 + colorPlayability[color]*3

		if nextIsDangerous {
			var hasSkip, hasDrawTwo, hasReverse bool
			for _, c := range hand {
				if c.Color != color {
					continue
				}
				switch c.Type {
				case game.TypeSkip:
					hasSkip = true
				case game.TypeDrawTwo:
					hasDrawTwo = true
				case game.TypeReverse:
					hasReverse = true
				}
			}
			if hasDrawTwo {
				score += 15
			}
			if hasSkip {
				score += 10
			}
			if hasReverse {
				score += 5
			}
		}

		for _, c := range hand {
			if c.Color == color && c.IsNumber() {
				score += 8
				break
			}
		}

		if score > bestScore {
			bestScore = score
			bestColor = color
		}
	}
	return bestColor
}

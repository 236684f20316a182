package game

import (
	"fmt"
	"math/rand"
	"strconv"
)

// Color of a card face. Wild cards carry ColorWild until a color is chosen
// for them; the chosen color lives on the room, never on the card.
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorWild   Color = "wild"
)

// Colors are the four playable colors, excluding wild.
var Colors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// RandomColor picks one of the four base colors.
func RandomColor() Color {
	return Colors[rand.Intn(len(Colors))]
}

// ValidColor reports whether c is one of the four base colors.
func ValidColor(c Color) bool {
	for _, base := range Colors {
		if c == base {
			return true
		}
	}
	return false
}

type CardType string

const (
	TypeNumber       CardType = "number"
	TypeSkip         CardType = "skip"
	TypeReverse      CardType = "reverse"
	TypeDrawTwo      CardType = "draw_two"
	TypeWild         CardType = "wild"
	TypeWildDrawFour CardType = "wild_draw_four"
)

// Card is an immutable card value. ID is assigned once at deck construction
// and survives every shuffle, so clients can track individual cards.
// Value is only meaningful for number cards.
type Card struct {
	ID    int      `json:"id"`
	Color Color    `json:"color"`
	Type  CardType `json:"type"`
	Value int      `json:"value"`
}

func (c Card) IsWild() bool {
	return c.Type == TypeWild || c.Type == TypeWildDrawFour
}

func (c Card) IsNumber() bool {
	return c.Type == TypeNumber
}

// Display returns the short face label shown on a rendered card.
func (c Card) Display() string {
	switch c.Type {
	case TypeNumber:
		return strconv.Itoa(c.Value)
	case TypeSkip:
		return "⊘"
	case TypeReverse:
		return "↺"
	case TypeDrawTwo:
		return "+2"
	case TypeWild:
		return "W"
	case TypeWildDrawFour:
		return "+4"
	}
	return "?"
}

func (c Card) String() string {
	return fmt.Sprintf("%s %s", c.Color, c.Display())
}

// Points is the card's value in end-of-round scoring.
func (c Card) Points() int {
	switch c.Type {
	case TypeNumber:
		return c.Value
	case TypeSkip, TypeReverse, TypeDrawTwo:
		return 20
	case TypeWild, TypeWildDrawFour:
		return 50
	}
	return 0
}

// BuildDeck returns the standard 108-card deck in construction order:
// per color one 0, two of each 1-9, two each of skip/reverse/draw-two,
// then four wilds and four wild-draw-fours. IDs run 0..107.
func BuildDeck() []Card {
	deck := make([]Card, 0, 108)
	id := 0
	next := func(color Color, cardType CardType, value int) {
		deck = append(deck, Card{ID: id, Color: color, Type: cardType, Value: value})
		id++
	}

	for _, color := range Colors {
		next(color, TypeNumber, 0)
		for num := 1; num <= 9; num++ {
			next(color, TypeNumber, num)
			next(color, TypeNumber, num)
		}
		for i := 0; i < 2; i++ {
			next(color, TypeSkip, 0)
			next(color, TypeReverse, 0)
			next(color, TypeDrawTwo, 0)
		}
	}
	for i := 0; i < 4; i++ {
		next(ColorWild, TypeWild, 0)
		next(ColorWild, TypeWildDrawFour, 0)
	}
	return deck
}

// Shuffle permutes cards in place with Fisher-Yates.
func Shuffle(cards []Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// CanPlay reports whether card is legal on top of topCard given the active
// color. An active draw stack is not considered here; stack-forced legality
// is the caller's business.
func CanPlay(card, topCard Card, currentColor Color) bool {
	if card.IsWild() {
		return true
	}
	if card.Color == currentColor {
		return true
	}
	if !card.IsNumber() && card.Type == topCard.Type {
		return true
	}
	if card.IsNumber() && topCard.IsNumber() && card.Value == topCard.Value {
		return true
	}
	return false
}

// SameFace reports whether two cards match on (type, value), the chaining
// equality. Color is deliberately ignored.
func SameFace(a, b Card) bool {
	return a.Type == b.Type && a.Value == b.Value
}

// ChainCompatible reports whether cards may be laid down together: every
// card must match the first on (type, value).
func ChainCompatible(cards []Card) bool {
	for i := 1; i < len(cards); i++ {
		if !SameFace(cards[0], cards[i]) {
			return false
		}
	}
	return true
}

// HandPoints tallies the scoring value of a hand.
func HandPoints(hand []Card) int {
	total := 0
	for _, c := range hand {
		total += c.Points()
	}
	return total
}

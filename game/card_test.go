package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeckComposition(t *testing.T) {
	deck := BuildDeck()
	require.Len(t, deck, 108)

	perColor := make(map[Color]int)
	perType := make(map[CardType]int)
	zeros := make(map[Color]int)
	for i, c := range deck {
		require.Equal(t, i, c.ID, "ids follow construction order")
		perColor[c.Color]++
		perType[c.Type]++
		if c.Type == TypeNumber && c.Value == 0 {
			zeros[c.Color]++
		}
	}

	for _, color := range Colors {
		assert.Equal(t, 25, perColor[color], "cards of %s", color)
		assert.Equal(t, 1, zeros[color], "zeros of %s", color)
	}
	assert.Equal(t, 8, perColor[ColorWild])
	assert.Equal(t, 76, perType[TypeNumber])
	assert.Equal(t, 8, perType[TypeSkip])
	assert.Equal(t, 8, perType[TypeReverse])
	assert.Equal(t, 8, perType[TypeDrawTwo])
	assert.Equal(t, 4, perType[TypeWild])
	assert.Equal(t, 4, perType[TypeWildDrawFour])
}

func TestShuffleIsPermutation(t *testing.T) {
	deck := BuildDeck()
	shuffled := make([]Card, len(deck))
	copy(shuffled, deck)
	Shuffle(shuffled)

	require.Len(t, shuffled, len(deck))
	require.ElementsMatch(t, deck, shuffled)
}

func TestCanPlay(t *testing.T) {
	red5 := Card{Color: ColorRed, Type: TypeNumber, Value: 5}
	blue5 := Card{Color: ColorBlue, Type: TypeNumber, Value: 5}
	blue7 := Card{Color: ColorBlue, Type: TypeNumber, Value: 7}
	redSkip := Card{Color: ColorRed, Type: TypeSkip}
	blueSkip := Card{Color: ColorBlue, Type: TypeSkip}
	blueDrawTwo := Card{Color: ColorBlue, Type: TypeDrawTwo}
	wild := Card{Color: ColorWild, Type: TypeWild}
	wildFour := Card{Color: ColorWild, Type: TypeWildDrawFour}

	scenarios := []struct {
		description  string
		card         Card
		top          Card
		currentColor Color
		want         bool
	}{
		{"wild_always_playable", wild, blue7, ColorBlue, true},
		{"wild_draw_four_always_playable", wildFour, blue7, ColorBlue, true},
		{"matching_color", blue5, blue7, ColorBlue, true},
		{"matching_number_across_colors", red5, blue5, ColorBlue, true},
		{"no_match", red5, blue7, ColorBlue, false},
		{"matching_action_type_across_colors", redSkip, blueSkip, ColorBlue, true},
		{"action_type_mismatch", redSkip, blueDrawTwo, ColorBlue, false},
		{"current_color_beats_card_face", blueSkip, red5, ColorBlue, true},
		{"color_follows_chosen_not_top", red5, wild, ColorRed, true},
		{"chosen_color_mismatch", red5, wild, ColorGreen, false},
	}

	for _, s := range scenarios {
		t.Run(s.description, func(t *testing.T) {
			require.Equal(t, s.want, CanPlay(s.card, s.top, s.currentColor))
		})
	}
}

func TestChainCompatible(t *testing.T) {
	five := func(c Color) Card { return Card{Color: c, Type: TypeNumber, Value: 5} }

	assert.True(t, ChainCompatible(nil))
	assert.True(t, ChainCompatible([]Card{five(ColorRed)}))
	assert.True(t, ChainCompatible([]Card{five(ColorRed), five(ColorBlue)}))
	assert.False(t, ChainCompatible([]Card{
		five(ColorRed),
		{Color: ColorRed, Type: TypeNumber, Value: 6},
	}))
	assert.False(t, ChainCompatible([]Card{
		five(ColorRed),
		{Color: ColorRed, Type: TypeSkip},
	}))

	// Wilds chain on type regardless of any chosen color.
	assert.True(t, ChainCompatible([]Card{
		{Color: ColorWild, Type: TypeWild},
		{Color: ColorWild, Type: TypeWild},
	}))
	assert.False(t, ChainCompatible([]Card{
		{Color: ColorWild, Type: TypeWild},
		{Color: ColorWild, Type: TypeWildDrawFour},
	}))
}

func TestPoints(t *testing.T) {
	assert.Equal(t, 7, Card{Type: TypeNumber, Value: 7}.Points())
	assert.Equal(t, 20, Card{Type: TypeSkip}.Points())
	assert.Equal(t, 20, Card{Type: TypeReverse}.Points())
	assert.Equal(t, 20, Card{Type: TypeDrawTwo}.Points())
	assert.Equal(t, 50, Card{Type: TypeWild}.Points())
	assert.Equal(t, 50, Card{Type: TypeWildDrawFour}.Points())

	hand := []Card{
		{Type: TypeNumber, Value: 9},
		{Type: TypeDrawTwo},
		{Type: TypeWildDrawFour},
	}
	assert.Equal(t, 79, HandPoints(hand))
}

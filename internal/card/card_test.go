package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	t.Parallel()

	deck := NewDeck()
	require.Len(t, deck, 52)

	ids := make(map[string]bool, 52)
	kinds := make(map[string]int, 52)
	for _, c := range deck {
		assert.False(t, ids[c.ID], "duplicate card id %s", c.ID)
		ids[c.ID] = true
		kinds[c.String()]++
		assert.GreaterOrEqual(t, c.Rank, RankAce)
		assert.LessOrEqual(t, c.Rank, RankKing)
	}

	// Exactly one of each rank/suit combination.
	assert.Len(t, kinds, 52)
	for kind, n := range kinds {
		assert.Equal(t, 1, n, "card %s appears %d times", kind, n)
	}
}

func TestNewDeck_FreshIdentities(t *testing.T) {
	t.Parallel()

	a := NewDeck()
	b := NewDeck()
	ids := make(map[string]bool)
	for _, c := range a {
		ids[c.ID] = true
	}
	for _, c := range b {
		assert.False(t, ids[c.ID], "card id reused across decks")
	}
}

func TestShuffle_PreservesCards(t *testing.T) {
	t.Parallel()

	deck := NewDeck()
	before := make(map[string]bool, len(deck))
	for _, c := range deck {
		before[c.ID] = true
	}

	deck.Shuffle()

	require.Len(t, deck, 52)
	for _, c := range deck {
		assert.True(t, before[c.ID])
	}
}

func TestRankString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rank Rank
		want string
	}{
		{RankAce, "A"},
		{Rank(2), "2"},
		{Rank(10), "10"},
		{RankJack, "J"},
		{RankQueen, "Q"},
		{RankKing, "K"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.rank.String())
	}
}

func TestRankPoints(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, RankAce.Points())
	assert.Equal(t, 7, Rank(7).Points())
	assert.Equal(t, 10, Rank(10).Points())
	assert.Equal(t, 10, RankJack.Points())
	assert.Equal(t, 10, RankKing.Points())
}

func TestCardString(t *testing.T) {
	t.Parallel()

	c := Card{ID: "x", Rank: RankQueen, Suit: Spade}
	assert.Equal(t, "Q♠", c.String())
}

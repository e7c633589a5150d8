// Package meld classifies card groupings. It is pure: no state, no side
// effects, so both the engine's transactions and the UI's pre-validation can
// share it.
package meld

import (
	"slices"

	"github.com/rummyroom/rummyroom/internal/card"
)

// Kind is the classification of a valid meld.
type Kind string

const (
	KindSet Kind = "set"
	KindRun Kind = "run"
)

// Result of classifying a card selection.
type Result struct {
	Valid bool
	Kind  Kind
}

// analysis holds the per-selection counts the checkers work from.
type analysis struct {
	ranks map[card.Rank]int
	suits map[card.Suit]int
}

func analyze(cards []card.Card) analysis {
	a := analysis{
		ranks: make(map[card.Rank]int, len(cards)),
		suits: make(map[card.Suit]int, len(cards)),
	}
	for _, c := range cards {
		a.ranks[c.Rank]++
		a.suits[c.Suit]++
	}
	return a
}

// Classify reports whether cards form a valid set or run.
// Sets are checked before runs by convention; the two cannot overlap for
// three or more cards.
func Classify(cards []card.Card) Result {
	if len(cards) < 3 {
		return Result{}
	}
	a := analyze(cards)
	if isSet(a, cards) {
		return Result{Valid: true, Kind: KindSet}
	}
	if isRun(a, cards) {
		return Result{Valid: true, Kind: KindRun}
	}
	return Result{}
}

// isSet: one rank, pairwise-distinct suits.
func isSet(a analysis, cards []card.Card) bool {
	if len(a.ranks) != 1 {
		return false
	}
	return len(a.suits) == len(cards)
}

// isRun: one suit, ranks strictly consecutive ascending. Rank 13 is the
// ceiling and rank 1 the floor; a run never wraps (K-A-2 is invalid).
func isRun(a analysis, cards []card.Card) bool {
	if len(a.suits) != 1 {
		return false
	}
	if len(a.ranks) != len(cards) {
		return false
	}

	ranks := make([]card.Rank, 0, len(cards))
	for r := range a.ranks {
		ranks = append(ranks, r)
	}
	slices.Sort(ranks)

	for i := 1; i < len(ranks); i++ {
		if ranks[i] != ranks[i-1]+1 {
			return false
		}
	}
	return true
}

// Package match implements the turn-based game engine: deck lifecycle, the
// draw→discard step machine, shared-pile mechanics and meld bookkeeping.
// Every mutation is a single optimistic transaction against the room's game
// path; correctness never relies on client-side mutual exclusion.
package match

import (
	"time"

	"github.com/rummyroom/rummyroom/internal/card"
	"github.com/rummyroom/rummyroom/internal/meld"
)

// Phase of a match. PhaseLobby exists only until the start transition
// commits; there is no phase past PhasePlaying — the end of a match is
// recorded by Winner/EndedAt instead.
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlaying Phase = "playing"
)

// Step within a turn. A turn is draw → discard; completing the discard
// advances the turn to the next player and resets the step.
type Step string

const (
	StepDraw    Step = "draw"
	StepDiscard Step = "discard"
)

// Origin source values.
const (
	SourceStock = "stock"
	SourcePile  = "pile"
)

// Origin records where a card last arrived in a hand from. Cards that came
// via the shared pile anchor meld legality.
type Origin struct {
	Source    string `json:"source"`
	TakenFrom string `json:"takenFrom,omitempty"` // identity of the discarder, when known
}

// PileCard is a card on the shared pile together with who discarded it.
// Position 0 of the pile is the head card; the last position is the top.
type PileCard struct {
	Card      card.Card `json:"card"`
	Discarder string    `json:"discarder,omitempty"`
}

// Meld is an immutable committed grouping. Melds are append-only: never
// edited or removed once recorded.
type Meld struct {
	ID        string      `json:"id"`
	Owner     string      `json:"owner"`
	Kind      meld.Kind   `json:"kind"`
	Cards     []card.Card `json:"cards"`
	CreatedAt int64       `json:"createdAt"`
}

// PlayerState is the per-participant bookkeeping. The hand is exclusively
// owned by its player; only the engine mutates it, inside a transaction, on
// that player's behalf.
type PlayerState struct {
	Hand              []card.Card `json:"hand"`
	HasMelded         bool        `json:"hasMelded"`
	Score             int         `json:"score"`
	ScoredCards       []card.Card `json:"scoredCards"`
	LastPileCardTaken string      `json:"lastPileCardTaken,omitempty"`
}

// State is the match document, stored at the room's game path. Created once
// by the start-of-game transition; Phase never changes after the
// lobby→playing edge.
type State struct {
	Phase     Phase                   `json:"phase"`
	StartedAt int64                   `json:"startedAt,omitempty"`
	Turn      string                  `json:"turn,omitempty"`
	Step      Step                    `json:"step,omitempty"`
	Stock     []card.Card             `json:"stock"`
	Pile      []PileCard              `json:"pile"`
	HeadCard  string                  `json:"headCardId,omitempty"`
	Origins   map[string]Origin       `json:"cardOrigin"`
	Melds     []Meld                  `json:"tableMelds"`
	Players   map[string]*PlayerState `json:"players"`
	Order     []string                `json:"order"` // identities in stable join order
	Winner    string                  `json:"winnerIdentity,omitempty"`
	EndedAt   int64                   `json:"endedAt,omitempty"`
}

// NewPlayingState is the value installed by the lobby→playing transition:
// phase playing, the first seat on turn in the draw step, and every
// collection empty. The deal bootstrap fills the collections afterwards.
func NewPlayingState(turn string, order []string, now time.Time) State {
	return State{
		Phase:     PhasePlaying,
		StartedAt: now.Unix(),
		Turn:      turn,
		Step:      StepDraw,
		Stock:     []card.Card{},
		Pile:      []PileCard{},
		Origins:   map[string]Origin{},
		Melds:     []Meld{},
		Players:   map[string]*PlayerState{},
		Order:     append([]string(nil), order...),
	}
}

// StatePath is the document path of a room's match state.
func StatePath(code string) string {
	return "rooms/" + code + "/game"
}

// Ended reports whether the match has a recorded outcome.
func (s *State) Ended() bool {
	return s.Winner != "" || s.EndedAt != 0
}

// nextAfter returns the identity following id in stable join order,
// wrapping after the last.
func (s *State) nextAfter(id string) string {
	for i, other := range s.Order {
		if other == id {
			return s.Order[(i+1)%len(s.Order)]
		}
	}
	if len(s.Order) > 0 {
		return s.Order[0]
	}
	return id
}

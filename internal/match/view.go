package match

import (
	"context"

	"github.com/rummyroom/rummyroom/internal/apperrors"
	"github.com/rummyroom/rummyroom/internal/card"
	"github.com/rummyroom/rummyroom/internal/docstore"
)

// pileRecent is how many cards above the head the pile projection shows.
const pileRecent = 3

// Fetch reads the latest committed match state.
func (e *Engine) Fetch(ctx context.Context, code string) (*State, error) {
	s, exists, err := docstore.Get[State](ctx, e.store, StatePath(code))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.ErrNotPlaying
	}
	return &s, nil
}

// PlayerSummary is the public bookkeeping of one participant: everything
// except the hand contents, which only their owner may see.
type PlayerSummary struct {
	Identity  string `json:"identity"`
	HandCount int    `json:"handCount"`
	HasMelded bool   `json:"hasMelded"`
	Score     int    `json:"score"`
	OnTurn    bool   `json:"onTurn"`
}

// PileView is the display slice of the shared pile: the head, the most
// recent cards above it, and the total count.
type PileView struct {
	HeadCardID string     `json:"headCardId,omitempty"`
	Head       *card.Card `json:"head,omitempty"`
	Recent     []PileCard `json:"recent"`
	Count      int        `json:"count"`
}

// View is the read-only projection a client renders from. It is recomputed
// wholesale from every snapshot, never patched.
type View struct {
	Phase      Phase           `json:"phase"`
	Step       Step            `json:"step,omitempty"`
	Turn       string          `json:"turn,omitempty"`
	YourTurn   bool            `json:"yourTurn"`
	Hand       []card.Card     `json:"hand"`
	StockCount int             `json:"stockCount"`
	Pile       PileView        `json:"pile"`
	Players    []PlayerSummary `json:"players"`
	Melds      []Meld          `json:"melds"`
	Winner     string          `json:"winner,omitempty"`
	EndedAt    int64           `json:"endedAt,omitempty"`
}

// ViewFor projects the state for one viewer. Pure: derived entirely from the
// snapshot passed in.
func ViewFor(s *State, viewer string) View {
	v := View{
		Phase:      s.Phase,
		Step:       s.Step,
		Turn:       s.Turn,
		YourTurn:   s.Turn == viewer && !s.Ended(),
		Hand:       []card.Card{},
		StockCount: len(s.Stock),
		Melds:      s.Melds,
		Winner:     s.Winner,
		EndedAt:    s.EndedAt,
	}
	if v.Melds == nil {
		v.Melds = []Meld{}
	}

	if p, ok := s.Players[viewer]; ok && p != nil {
		v.Hand = append(v.Hand, p.Hand...)
	}

	v.Pile = PileView{Count: len(s.Pile), Recent: []PileCard{}}
	if len(s.Pile) > 0 {
		head := s.Pile[0].Card
		v.Pile.Head = &head
		v.Pile.HeadCardID = s.HeadCard
		from := len(s.Pile) - pileRecent
		if from < 1 {
			from = 1
		}
		v.Pile.Recent = append(v.Pile.Recent, s.Pile[from:]...)
	}

	for _, id := range s.Order {
		p := s.Players[id]
		if p == nil {
			continue
		}
		v.Players = append(v.Players, PlayerSummary{
			Identity:  id,
			HandCount: len(p.Hand),
			HasMelded: p.HasMelded,
			Score:     p.Score,
			OnTurn:    s.Turn == id,
		})
	}
	return v
}

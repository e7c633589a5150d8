package match

import (
	"context"
	"log/slog"
	"time"

	"github.com/rummyroom/rummyroom/internal/apperrors"
	"github.com/rummyroom/rummyroom/internal/card"
	"github.com/rummyroom/rummyroom/internal/docstore"
)

// Engine runs match mutations. Like the room manager it is stateless: every
// action is one transaction against the game path, re-validated at commit
// time, so a stale client proposing an action after the turn moved on is
// guaranteed to reject.
type Engine struct {
	store    *docstore.Store
	logger   *slog.Logger
	handSize int
}

// NewEngine creates an engine over the shared store. handSize is the deal
// size per player.
func NewEngine(store *docstore.Store, handSize int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if handSize < 1 {
		handSize = 7
	}
	return &Engine{store: store, logger: logger, handSize: handSize}
}

// mutate wraps the transaction plumbing shared by every action: fetch-latest
// is implicit, fn re-validates and mutates a private copy of the state, and
// an abort surfaces fn's rejection — or ErrRaceLost when the transaction
// layer itself refused, which the error taxonomy deliberately keeps
// indistinguishable from a stale precondition.
func (e *Engine) mutate(ctx context.Context, code string, fn func(s *State) error) error {
	var reject error
	res, err := docstore.Transact(ctx, e.store, StatePath(code), func(old State, exists bool) (State, bool) {
		reject = nil
		if !exists {
			reject = apperrors.ErrNotPlaying
			return old, true
		}
		if err := fn(&old); err != nil {
			reject = err
			return old, true
		}
		return old, false
	})
	if err != nil {
		return err
	}
	if !res.Committed {
		if reject != nil {
			return reject
		}
		return apperrors.ErrRaceLost
	}
	return nil
}

// validateTurn is the guard every turn action shares. It runs inside the
// transaction, against the value that is actually about to commit.
func validateTurn(s *State, caller string, step Step) error {
	if s.Phase != PhasePlaying {
		return apperrors.ErrNotPlaying
	}
	if s.Ended() {
		return apperrors.ErrMatchOver
	}
	if _, ok := s.Players[caller]; !ok {
		return apperrors.ErrNotInMatch
	}
	if s.Turn != caller {
		return apperrors.ErrNotYourTurn
	}
	if s.Step != step {
		return apperrors.ErrWrongStep
	}
	return nil
}

// Bootstrap deals the match: build and shuffle a 52-card deck, deal
// HandSize cards to each joined identity round-robin, base the pile on one
// card, keep the rest as stock. Guarded by "nothing dealt yet", so
// concurrent bootstrap attempts from multiple clients converge to exactly
// one deal — later arrivals observe a non-empty stock or pile and no-op.
func (e *Engine) Bootstrap(ctx context.Context, code string) error {
	return e.mutate(ctx, code, func(s *State) error {
		if s.Phase != PhasePlaying {
			return apperrors.ErrNotPlaying
		}
		if len(s.Stock) > 0 || len(s.Pile) > 0 || len(s.Players) > 0 {
			// Already dealt; re-entrant no-op.
			return errAlreadyDealt
		}
		if len(s.Order) == 0 {
			return apperrors.ErrStartConditions
		}

		deck := card.NewDeck()
		deck.Shuffle()

		s.Players = make(map[string]*PlayerState, len(s.Order))
		for _, id := range s.Order {
			s.Players[id] = &PlayerState{
				Hand:        []card.Card{},
				ScoredCards: []card.Card{},
			}
		}

		// Round-robin deal in join order, top of the deck first.
		for i := 0; i < e.handSize; i++ {
			for _, id := range s.Order {
				c := deck[len(deck)-1]
				deck = deck[:len(deck)-1]
				p := s.Players[id]
				p.Hand = append(p.Hand, c)
			}
		}

		head := deck[len(deck)-1]
		deck = deck[:len(deck)-1]
		s.Pile = []PileCard{{Card: head}}
		s.HeadCard = head.ID
		s.Stock = append([]card.Card{}, deck...)

		if s.Origins == nil {
			s.Origins = map[string]Origin{}
		}
		if s.Melds == nil {
			s.Melds = []Meld{}
		}
		if s.Turn == "" {
			s.Turn = s.Order[0]
		}
		if s.Step == "" {
			s.Step = StepDraw
		}
		return nil
	})
}

// errAlreadyDealt marks the re-entrant bootstrap no-op; EnsureDealt maps it
// back to success.
var errAlreadyDealt = &apperrors.GameError{Code: 0, Message: "already dealt"}

// EnsureDealt is Bootstrap with the converged case treated as success; any
// client observing a playing room may call it.
func (e *Engine) EnsureDealt(ctx context.Context, code string) error {
	err := e.Bootstrap(ctx, code)
	if err == errAlreadyDealt {
		return nil
	}
	return err
}

// now is indirected for tests that pin time.
var now = time.Now

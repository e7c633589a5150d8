package match

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/rummyroom/rummyroom/internal/apperrors"
	"github.com/rummyroom/rummyroom/internal/card"
	"github.com/rummyroom/rummyroom/internal/meld"
)

// DrawFromStock pops the top of the stock into the caller's hand and
// advances to the discard step.
func (e *Engine) DrawFromStock(ctx context.Context, code, caller string) error {
	if err := e.precheck(ctx, code, caller, StepDraw, func(s *State) error {
		if len(s.Stock) == 0 {
			return apperrors.ErrStockEmpty
		}
		return nil
	}); err != nil {
		return err
	}

	return e.mutate(ctx, code, func(s *State) error {
		if err := validateTurn(s, caller, StepDraw); err != nil {
			return err
		}
		if len(s.Stock) == 0 {
			return apperrors.ErrStockEmpty
		}

		c := s.Stock[len(s.Stock)-1]
		s.Stock = s.Stock[:len(s.Stock)-1]

		p := s.Players[caller]
		p.Hand = append(p.Hand, c)
		s.Origins[c.ID] = Origin{Source: SourceStock}
		s.Step = StepDiscard
		return nil
	})
}

// TakeTopOfPile pops the pile's top card into the caller's hand. The head
// alone can never be taken this way; with fewer than two cards on the pile
// the only way at it is EatHead.
func (e *Engine) TakeTopOfPile(ctx context.Context, code, caller string) error {
	if err := e.precheck(ctx, code, caller, StepDraw, func(s *State) error {
		if len(s.Pile) < 2 {
			return apperrors.ErrPileTooShort
		}
		return nil
	}); err != nil {
		return err
	}

	return e.mutate(ctx, code, func(s *State) error {
		if err := validateTurn(s, caller, StepDraw); err != nil {
			return err
		}
		if len(s.Pile) < 2 {
			return apperrors.ErrPileTooShort
		}

		top := s.Pile[len(s.Pile)-1]
		s.Pile = s.Pile[:len(s.Pile)-1]

		p := s.Players[caller]
		p.Hand = append(p.Hand, top.Card)
		p.LastPileCardTaken = top.Card.ID
		s.Origins[top.Card.ID] = Origin{Source: SourcePile, TakenFrom: top.Discarder}
		s.Step = StepDiscard
		return nil
	})
}

// EatHead captures the entire pile, head included, into the caller's hand,
// then re-bases the pile with one fresh card from the stock (or leaves it
// empty when the stock is exhausted).
func (e *Engine) EatHead(ctx context.Context, code, caller string) error {
	if err := e.precheck(ctx, code, caller, StepDraw, func(s *State) error {
		if len(s.Pile) == 0 {
			return apperrors.ErrPileTooShort
		}
		return nil
	}); err != nil {
		return err
	}

	return e.mutate(ctx, code, func(s *State) error {
		if err := validateTurn(s, caller, StepDraw); err != nil {
			return err
		}
		if len(s.Pile) == 0 {
			return apperrors.ErrPileTooShort
		}

		p := s.Players[caller]
		for _, pc := range s.Pile {
			p.Hand = append(p.Hand, pc.Card)
			s.Origins[pc.Card.ID] = Origin{Source: SourcePile, TakenFrom: pc.Discarder}
		}

		if len(s.Stock) > 0 {
			head := s.Stock[len(s.Stock)-1]
			s.Stock = s.Stock[:len(s.Stock)-1]
			s.Pile = []PileCard{{Card: head}}
			s.HeadCard = head.ID
		} else {
			s.Pile = []PileCard{}
			s.HeadCard = ""
		}
		s.Step = StepDiscard
		return nil
	})
}

// Discard moves a card from the caller's hand onto the pile, advances the
// turn to the next identity in join order and resets the step. A discard
// that empties the hand ends the match.
func (e *Engine) Discard(ctx context.Context, code, caller, cardID string) error {
	return e.mutate(ctx, code, func(s *State) error {
		if err := validateTurn(s, caller, StepDiscard); err != nil {
			return err
		}

		p := s.Players[caller]
		i := slices.IndexFunc(p.Hand, func(c card.Card) bool { return c.ID == cardID })
		if i < 0 {
			return apperrors.ErrCardNotInHand
		}

		c := p.Hand[i]
		p.Hand = slices.Delete(p.Hand, i, i+1)

		if len(s.Pile) == 0 {
			// Discarding onto an empty pile re-bases it.
			s.HeadCard = c.ID
		}
		s.Pile = append(s.Pile, PileCard{Card: c, Discarder: caller})
		s.Origins[c.ID] = Origin{Source: SourcePile, TakenFrom: caller}

		if len(p.Hand) == 0 {
			s.Winner = caller
			s.EndedAt = now().Unix()
		}

		s.Turn = s.nextAfter(caller)
		s.Step = StepDraw
		return nil
	})
}

// LayMeld commits three or more hand cards as a set or run. At least one
// selected card must have arrived via the pile: a meld built purely from
// self-drawn cards is illegal. Laying a meld does not advance the turn, so
// several melds may precede the discard.
func (e *Engine) LayMeld(ctx context.Context, code, caller string, cardIDs []string) error {
	ids := dedupe(cardIDs)
	if len(ids) < 3 {
		return apperrors.ErrInvalidMeld
	}

	return e.mutate(ctx, code, func(s *State) error {
		if err := validateTurn(s, caller, StepDiscard); err != nil {
			return err
		}

		p := s.Players[caller]
		cards := make([]card.Card, 0, len(ids))
		for _, id := range ids {
			i := slices.IndexFunc(p.Hand, func(c card.Card) bool { return c.ID == id })
			if i < 0 {
				return apperrors.ErrCardNotInHand
			}
			cards = append(cards, p.Hand[i])
		}

		res := meld.Classify(cards)
		if !res.Valid {
			return apperrors.ErrInvalidMeld
		}

		anchored := false
		for _, c := range cards {
			if s.Origins[c.ID].Source == SourcePile {
				anchored = true
				break
			}
		}
		if !anchored {
			return apperrors.ErrNoPileAnchor
		}

		for _, c := range cards {
			i := slices.IndexFunc(p.Hand, func(h card.Card) bool { return h.ID == c.ID })
			p.Hand = slices.Delete(p.Hand, i, i+1)
		}

		s.Melds = append(s.Melds, Meld{
			ID:        uuid.NewString(),
			Owner:     caller,
			Kind:      res.Kind,
			Cards:     cards,
			CreatedAt: now().Unix(),
		})
		p.HasMelded = true
		p.ScoredCards = append(p.ScoredCards, cards...)
		for _, c := range cards {
			p.Score += c.Rank.Points()
		}
		return nil
	})
}

// precheck rejects resource-exhaustion cases locally, before proposing any
// transaction for an action that cannot possibly commit.
func (e *Engine) precheck(ctx context.Context, code, caller string, step Step, check func(s *State) error) error {
	s, err := e.Fetch(ctx, code)
	if err != nil {
		return err
	}
	if err := validateTurn(s, caller, step); err != nil {
		return err
	}
	return check(s)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

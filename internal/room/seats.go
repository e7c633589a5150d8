package room

import (
	"context"

	"github.com/rummyroom/rummyroom/internal/apperrors"
	"github.com/rummyroom/rummyroom/internal/docstore"
)

// ClaimSeat occupies an empty seat for identity. Claiming a seat you already
// hold is an idempotent refresh (supports reconnection); a seat held by
// anyone else aborts with ErrSeatTaken. The lobby check happens against the
// authoritative current value, and a late playing status is a hard refusal —
// but seat and room live at different paths, so the claim transaction itself
// only guards the seat.
func (m *Manager) ClaimSeat(ctx context.Context, code string, seatNo int, identity, displayName string) error {
	if !ValidSeatNo(seatNo) {
		return apperrors.ErrSeatNotOwned
	}
	if identity == "" {
		return apperrors.ErrNoIdentity
	}

	snap, err := m.Fetch(ctx, code)
	if err != nil {
		return err
	}
	if snap.EffectiveStatus() != StatusLobby {
		return apperrors.ErrRoomNotLobby
	}

	var reject error
	res, err := docstore.Transact(ctx, m.store, SeatPath(code, seatNo), func(old Seat, exists bool) (Seat, bool) {
		reject = nil
		switch {
		case old.Identity == "":
			return Seat{Identity: identity, DisplayName: displayName, Ready: false}, false
		case old.Identity == identity:
			// Already ours; propose no change and report success.
			return old, true
		default:
			reject = apperrors.ErrSeatTaken
			return old, true
		}
	})
	if err != nil {
		return err
	}
	if !res.Committed && reject != nil {
		return reject
	}
	m.logger.Info("seat claimed", "code", code, "seat", seatNo, "identity", identity)
	return nil
}

// LeaveSeat clears the seat only if identity currently owns it; a mismatch
// is a silent no-op, defending against stale local state.
func (m *Manager) LeaveSeat(ctx context.Context, code string, seatNo int, identity string) error {
	if !ValidSeatNo(seatNo) || identity == "" {
		return nil
	}

	_, err := docstore.Transact(ctx, m.store, SeatPath(code, seatNo), func(old Seat, exists bool) (Seat, bool) {
		if old.Identity != identity {
			return old, true
		}
		return Seat{}, false
	})
	if err != nil {
		return err
	}
	return nil
}

// ToggleReady flips the ready flag of a seat identity owns.
func (m *Manager) ToggleReady(ctx context.Context, code string, seatNo int, identity string) error {
	if !ValidSeatNo(seatNo) {
		return apperrors.ErrSeatNotOwned
	}
	if identity == "" {
		return apperrors.ErrNoIdentity
	}

	var reject error
	res, err := docstore.Transact(ctx, m.store, SeatPath(code, seatNo), func(old Seat, exists bool) (Seat, bool) {
		reject = nil
		if old.Identity != identity {
			reject = apperrors.ErrSeatNotOwned
			return old, true
		}
		old.Ready = !old.Ready
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

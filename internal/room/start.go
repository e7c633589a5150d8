package room

import (
	"context"
	"time"

	"github.com/rummyroom/rummyroom/internal/apperrors"
	"github.com/rummyroom/rummyroom/internal/docstore"
	"github.com/rummyroom/rummyroom/internal/match"
)

// checkStart verifies every start condition against one snapshot:
// caller holds seat 1, the room is still a lobby, 2 to 4 seats are occupied
// and every occupant is ready.
func checkStart(snap *Snapshot, identity string) error {
	if snap.Seats[1] == nil || snap.Seats[1].Identity != identity {
		return apperrors.ErrStartConditions
	}
	if snap.EffectiveStatus() != StatusLobby || snap.GamePhase != match.PhaseLobby {
		return apperrors.ErrRoomNotLobby
	}

	occupied := snap.OccupiedSeats()
	if len(occupied) < MinPlayers || len(occupied) > MaxSeats {
		return apperrors.ErrStartConditions
	}
	for _, n := range occupied {
		if !snap.Seats[n].Ready {
			return apperrors.ErrStartConditions
		}
	}
	return nil
}

// AttemptStart runs the lobby→playing transition. The check runs twice: once
// against the caller's last-seen snapshot for a responsive refusal, then
// against a mandatory re-fetch of the authoritative value — seats and match
// state live at different paths, so a previously observed seat snapshot
// proves nothing at commit time. The transaction itself commits only if the
// game phase is still lobby, which defends against double-start races.
func (m *Manager) AttemptStart(ctx context.Context, code string, identity string, lastSeen *Snapshot) error {
	if identity == "" {
		return apperrors.ErrNoIdentity
	}
	if lastSeen != nil {
		if err := checkStart(lastSeen, identity); err != nil {
			return err
		}
	}

	snap, err := m.Fetch(ctx, code)
	if err != nil {
		return err
	}
	if err := checkStart(snap, identity); err != nil {
		return err
	}

	order := make([]string, 0, MaxSeats)
	for _, n := range snap.OccupiedSeats() {
		order = append(order, snap.Seats[n].Identity)
	}

	res, err := docstore.Transact(ctx, m.store, match.StatePath(code), func(old match.State, exists bool) (match.State, bool) {
		if exists && old.Phase != match.PhaseLobby {
			return old, true
		}
		return match.NewPlayingState(snap.Seats[1].Identity, order, time.Now()), false
	})
	if err != nil {
		return err
	}
	if !res.Committed {
		return apperrors.ErrRaceLost
	}

	// Lift the root status after the guard path committed. Idempotent; a
	// concurrent lift losing the race changes nothing.
	_, err = docstore.Transact(ctx, m.store, Path(code), func(old Room, exists bool) (Room, bool) {
		if !exists || old.Status == StatusPlaying {
			return old, true
		}
		old.Status = StatusPlaying
		return old, false
	})
	if err != nil {
		return err
	}

	m.logger.Info("match started", "code", code, "players", len(order))
	return nil
}

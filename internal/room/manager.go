package room

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rummyroom/rummyroom/internal/apperrors"
	"github.com/rummyroom/rummyroom/internal/docstore"
	"github.com/rummyroom/rummyroom/internal/match"
	"github.com/rummyroom/rummyroom/internal/roomcode"
)

// Manager performs every lobby mutation as an optimistic transaction against
// the shared document store. It holds no room state of its own: the store is
// the single source of truth and concurrent managers on other clients are
// expected.
type Manager struct {
	store      *docstore.Store
	logger     *slog.Logger
	codeLength int
}

// NewManager creates a manager over the shared store.
func NewManager(store *docstore.Store, codeLength int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if codeLength < 1 {
		codeLength = roomcode.DefaultLength
	}
	return &Manager{store: store, logger: logger, codeLength: codeLength}
}

// Create generates a code and writes a fresh lobby document. Collisions with
// a live room are retried a few times; beyond that the code space is
// considered broken rather than busy.
func (m *Manager) Create(ctx context.Context, host string) (string, error) {
	for range 5 {
		code, err := roomcode.New(m.codeLength)
		if err != nil {
			return "", err
		}

		res, err := docstore.Transact(ctx, m.store, Path(code), func(old Room, exists bool) (Room, bool) {
			if exists {
				return old, true
			}
			return Room{
				CreatedAt: time.Now().Unix(),
				Status:    StatusLobby,
				Host:      host,
			}, false
		})
		if err != nil {
			return "", err
		}
		if res.Committed {
			m.logger.Info("room created", "code", code, "host", host)
			return code, nil
		}
	}
	return "", fmt.Errorf("room code space exhausted")
}

// Snapshot is a read of a room's root, seats and game phase. Seats index
// 1..MaxSeats; a nil entry is a free seat.
type Snapshot struct {
	Code      string
	Room      Room
	Seats     [MaxSeats + 1]*Seat
	GamePhase match.Phase
	Winner    string
}

// EffectiveStatus derives the user-visible status. The lobby→playing edge
// commits on the game path first, so the game phase wins over a stale root.
func (s *Snapshot) EffectiveStatus() Status {
	if s.GamePhase == match.PhasePlaying {
		return StatusPlaying
	}
	return s.Room.Status
}

// OccupiedSeats returns the occupied seat numbers in ascending order.
func (s *Snapshot) OccupiedSeats() []int {
	var nums []int
	for n := 1; n <= MaxSeats; n++ {
		if s.Seats[n].Occupied() {
			nums = append(nums, n)
		}
	}
	return nums
}

// Fetch reads the authoritative current room, lazily backfilling legacy
// documents the first time they are observed.
func (m *Manager) Fetch(ctx context.Context, code string) (*Snapshot, error) {
	root, exists, err := docstore.Get[Room](ctx, m.store, Path(code))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.ErrRoomNotFound
	}
	if !root.complete() {
		root, err = m.backfill(ctx, code)
		if err != nil {
			return nil, err
		}
	}

	snap := &Snapshot{Code: code, Room: root, GamePhase: match.PhaseLobby}
	for n := 1; n <= MaxSeats; n++ {
		seat, seatExists, err := docstore.Get[Seat](ctx, m.store, SeatPath(code, n))
		if err != nil {
			return nil, err
		}
		if seatExists && seat.Identity != "" {
			s := seat
			snap.Seats[n] = &s
		}
	}

	game, gameExists, err := docstore.Get[match.State](ctx, m.store, match.StatePath(code))
	if err != nil {
		return nil, err
	}
	if gameExists {
		snap.GamePhase = game.Phase
		snap.Winner = game.Winner
	}
	return snap, nil
}

// backfill repairs a legacy root document in place. Concurrent observers
// converge: whoever commits first wins and the rest see a complete document.
func (m *Manager) backfill(ctx context.Context, code string) (Room, error) {
	res, err := docstore.Transact(ctx, m.store, Path(code), func(old Room, exists bool) (Room, bool) {
		if !exists || old.complete() {
			return old, true
		}
		old.backfill(time.Now())
		return old, false
	})
	if err != nil {
		return Room{}, err
	}
	return res.Value, nil
}

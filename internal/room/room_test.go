package room

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rummyroom/rummyroom/internal/apperrors"
	"github.com/rummyroom/rummyroom/internal/docstore"
	"github.com/rummyroom/rummyroom/internal/match"
)

func newTestManager(t *testing.T) (*Manager, *docstore.Store) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store := docstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	return NewManager(store, 6, nil), store
}

func mustCreate(t *testing.T, m *Manager, host string) string {
	t.Helper()
	code, err := m.Create(context.Background(), host)
	require.NoError(t, err)
	return code
}

func TestCreate(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	code := mustCreate(t, m, "host-1")
	assert.Len(t, code, 6)

	snap, err := m.Fetch(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, StatusLobby, snap.Room.Status)
	assert.Equal(t, "host-1", snap.Room.Host)
	assert.NotZero(t, snap.Room.CreatedAt)
	assert.Empty(t, snap.OccupiedSeats())
	assert.Equal(t, match.PhaseLobby, snap.GamePhase)
}

func TestFetch_UnknownRoom(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	_, err := m.Fetch(context.Background(), "NOPE42")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestFetch_BackfillsLegacyRoom(t *testing.T) {
	t.Parallel()

	m, store := newTestManager(t)
	ctx := context.Background()

	// A legacy record that predates status/createdAt.
	require.NoError(t, store.PutRaw(ctx, Path("OLD123"), []byte(`{"host":"ancient"}`)))

	snap, err := m.Fetch(ctx, "OLD123")
	require.NoError(t, err)
	assert.Equal(t, StatusLobby, snap.Room.Status)
	assert.NotZero(t, snap.Room.CreatedAt)
	// Present fields are not disturbed.
	assert.Equal(t, "ancient", snap.Room.Host)

	// The repair is persisted, not just projected.
	got, exists, err := docstore.Get[Room](ctx, store, Path("OLD123"))
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, StatusLobby, got.Status)
}

func TestClaimSeat(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	code := mustCreate(t, m, "p1")

	require.NoError(t, m.ClaimSeat(ctx, code, 1, "p1", "Alice"))

	snap, err := m.Fetch(ctx, code)
	require.NoError(t, err)
	require.True(t, snap.Seats[1].Occupied())
	assert.Equal(t, "p1", snap.Seats[1].Identity)
	assert.Equal(t, "Alice", snap.Seats[1].DisplayName)
	assert.False(t, snap.Seats[1].Ready)
}

func TestClaimSeat_ReclaimOwnIsIdempotent(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	code := mustCreate(t, m, "p1")

	require.NoError(t, m.ClaimSeat(ctx, code, 2, "p1", "Alice"))
	require.NoError(t, m.ToggleReady(ctx, code, 2, "p1"))

	// Reclaiming after e.g. a reconnect succeeds and changes nothing.
	require.NoError(t, m.ClaimSeat(ctx, code, 2, "p1", "Alice"))

	snap, err := m.Fetch(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "p1", snap.Seats[2].Identity)
	assert.True(t, snap.Seats[2].Ready, "refresh must not reset ready")
}

func TestClaimSeat_OccupiedByOther(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	code := mustCreate(t, m, "p1")

	require.NoError(t, m.ClaimSeat(ctx, code, 1, "p1", "Alice"))
	err := m.ClaimSeat(ctx, code, 1, "p2", "Bob")
	assert.ErrorIs(t, err, apperrors.ErrSeatTaken)

	snap, err := m.Fetch(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "p1", snap.Seats[1].Identity)
}

func TestClaimSeat_ConcurrentClaims_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	code := mustCreate(t, m, "host")

	const claimants = 6
	errs := make([]error, claimants)
	var wg sync.WaitGroup
	for i := range claimants {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = m.ClaimSeat(ctx, code, 3, ids(i), "Player")
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrSeatTaken)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestLeaveSeat(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	code := mustCreate(t, m, "p1")
	require.NoError(t, m.ClaimSeat(ctx, code, 1, "p1", "Alice"))

	// A non-owner's leave is a silent no-op against stale local state.
	require.NoError(t, m.LeaveSeat(ctx, code, 1, "p2"))
	snap, err := m.Fetch(ctx, code)
	require.NoError(t, err)
	assert.True(t, snap.Seats[1].Occupied())

	require.NoError(t, m.LeaveSeat(ctx, code, 1, "p1"))
	snap, err = m.Fetch(ctx, code)
	require.NoError(t, err)
	assert.Nil(t, snap.Seats[1])
}

func TestToggleReady(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	code := mustCreate(t, m, "p1")
	require.NoError(t, m.ClaimSeat(ctx, code, 1, "p1", "Alice"))

	require.NoError(t, m.ToggleReady(ctx, code, 1, "p1"))
	snap, err := m.Fetch(ctx, code)
	require.NoError(t, err)
	assert.True(t, snap.Seats[1].Ready)

	require.NoError(t, m.ToggleReady(ctx, code, 1, "p1"))
	snap, err = m.Fetch(ctx, code)
	require.NoError(t, err)
	assert.False(t, snap.Seats[1].Ready)

	err = m.ToggleReady(ctx, code, 1, "p2")
	assert.ErrorIs(t, err, apperrors.ErrSeatNotOwned)
}

func ids(i int) string {
	return string(rune('a' + i))
}

package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rummyroom/rummyroom/internal/docstore"
	"github.com/rummyroom/rummyroom/internal/match"
	"github.com/rummyroom/rummyroom/internal/presence"
	"github.com/rummyroom/rummyroom/internal/room"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store := docstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	srv := New(
		store,
		room.NewManager(store, 6, nil),
		match.NewEngine(store, 7, nil),
		presence.NewTracker(store, 30*time.Second, nil),
		nil,
	)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func createRoom(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/rooms", "application/json", strings.NewReader(`{"displayName":"Host"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Code)
	return body.Code
}

func dial(t *testing.T, ts *httptest.Server, code, name string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/rooms/" + code + "/ws?name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil consumes frames until pred accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, what string, pred func(serverFrame) bool) serverFrame {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for time.Now().Before(deadline) {
		var frame serverFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("reading frames while waiting for %s: %v", what, err)
		}
		if pred(frame) {
			return frame
		}
	}
	t.Fatalf("timed out waiting for %s", what)
	return serverFrame{}
}

func send(t *testing.T, conn *websocket.Conn, frame clientFrame) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func TestCreateRoomEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	code := createRoom(t, ts)
	assert.Len(t, code, 6)
}

func TestWS_UnknownRoomRefused(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/rooms/NOSUCH/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLobbyToMatchFlow(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	code := createRoom(t, ts)

	alice := dial(t, ts, code, "Alice")
	bob := dial(t, ts, code, "Bob")

	helloA := readUntil(t, alice, "alice hello", func(f serverFrame) bool { return f.Type == MsgHello })
	readUntil(t, bob, "bob hello", func(f serverFrame) bool { return f.Type == MsgHello })

	send(t, alice, clientFrame{Op: OpClaimSeat, Seat: 1})
	send(t, bob, clientFrame{Op: OpClaimSeat, Seat: 2})
	send(t, alice, clientFrame{Op: OpToggleReady, Seat: 1})
	send(t, bob, clientFrame{Op: OpToggleReady, Seat: 2})

	// Wait until alice observes both seats occupied and ready.
	readUntil(t, alice, "ready lobby", func(f serverFrame) bool {
		if f.Type != MsgRoom || f.Room == nil {
			return false
		}
		ready := 0
		for _, seat := range f.Room.Seats {
			if seat.Occupied && seat.Ready {
				ready++
			}
		}
		return ready == 2
	})

	// Bob does not hold seat 1, so his start attempt bounces.
	send(t, bob, clientFrame{Op: OpStart})
	readUntil(t, bob, "start rejection", func(f serverFrame) bool { return f.Type == MsgError })

	send(t, alice, clientFrame{Op: OpStart})

	// Both participants converge on a dealt match.
	game := readUntil(t, alice, "alice dealt hand", func(f serverFrame) bool {
		return f.Type == MsgGame && f.Game != nil && len(f.Game.Hand) == 7
	})
	assert.Equal(t, match.PhasePlaying, game.Game.Phase)
	assert.Equal(t, helloA.Identity, game.Game.Turn, "seat 1 opens the match")
	assert.True(t, game.Game.YourTurn)

	bobGame := readUntil(t, bob, "bob dealt hand", func(f serverFrame) bool {
		return f.Type == MsgGame && f.Game != nil && len(f.Game.Hand) == 7
	})
	assert.False(t, bobGame.Game.YourTurn)

	// One full turn over the wire: draw, then discard the drawn card.
	send(t, alice, clientFrame{Op: OpDrawStock})
	game = readUntil(t, alice, "post-draw hand", func(f serverFrame) bool {
		return f.Type == MsgGame && f.Game != nil && len(f.Game.Hand) == 8
	})
	assert.Equal(t, match.StepDiscard, game.Game.Step)

	send(t, alice, clientFrame{Op: OpDiscard, Card: game.Game.Hand[7].ID})
	readUntil(t, bob, "bob on turn", func(f serverFrame) bool {
		return f.Type == MsgGame && f.Game != nil && f.Game.YourTurn
	})

	// Acting out of turn is relayed as a rejection, not a disconnect.
	send(t, alice, clientFrame{Op: OpDrawStock})
	readUntil(t, alice, "out-of-turn rejection", func(f serverFrame) bool { return f.Type == MsgError })
}

func TestPresencePushed(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	code := createRoom(t, ts)

	conn := dial(t, ts, code, "Alice")
	hello := readUntil(t, conn, "hello", func(f serverFrame) bool { return f.Type == MsgHello })

	send(t, conn, clientFrame{Op: OpClaimSeat, Seat: 1})
	frame := readUntil(t, conn, "presence frame", func(f serverFrame) bool {
		return f.Type == MsgPresence && len(f.Presence) > 0
	})
	rec, ok := frame.Presence[hello.Identity]
	require.True(t, ok)
	assert.True(t, rec.Online)
	assert.Equal(t, "Alice", rec.DisplayName)
}

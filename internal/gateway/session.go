package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rummyroom/rummyroom/internal/apperrors"
	"github.com/rummyroom/rummyroom/internal/docstore"
	"github.com/rummyroom/rummyroom/internal/identity"
	"github.com/rummyroom/rummyroom/internal/match"
	"github.com/rummyroom/rummyroom/internal/room"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// session is one participant's connection to one room. Its context doubles
// as the presence dead-man's switch: when the connection dies the context is
// cancelled and the presence record stops being refreshed.
type session struct {
	srv  *Server
	code string
	conn *websocket.Conn
	id   identity.Identity
	send chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	lastSeen *room.Snapshot
}

func newSession(srv *Server, code string, conn *websocket.Conn, displayName string) *session {
	ctx, cancel := context.WithCancel(context.Background())
	if displayName == "" {
		displayName = "Player"
	}

	var provider identity.Provider
	return &session{
		srv:    srv,
		code:   code,
		conn:   conn,
		id:     provider.Resolve(displayName),
		send:   make(chan []byte, 64),
		ctx:    ctx,
		cancel: cancel,
	}
}

// run resolves the session's preconditions, wires up the store
// subscriptions and then serves the read loop until the connection dies.
func (s *session) run() {
	defer s.cancel()
	defer func() { _ = s.conn.Close() }()

	s.push(serverFrame{Type: MsgHello, Identity: s.id.ID})

	if err := s.srv.presence.Register(s.ctx, s.code, s.id.ID, s.id.DisplayName); err != nil {
		s.srv.logger.Error("presence registration failed", "code", s.code, "error", err)
		return
	}

	if err := s.watch(); err != nil {
		s.srv.logger.Error("subscription failed", "code", s.code, "error", err)
		return
	}

	s.readPump()
}

// watch subscribes to every path of the room document and refreshes the
// client on any change. Each refresh is a full re-projection from the latest
// snapshot, never a patch.
func (s *session) watch() error {
	paths := []string{
		room.Path(s.code),
		match.StatePath(s.code),
	}
	for n := 1; n <= room.MaxSeats; n++ {
		paths = append(paths, room.SeatPath(s.code, n))
	}

	events := make(chan struct{}, 1)
	for _, p := range paths {
		ch, err := s.srv.store.Subscribe(s.ctx, p)
		if err != nil {
			return err
		}
		go func() {
			for range ch {
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}()
	}

	go func() {
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-events:
				s.refresh()
			}
		}
	}()
	return nil
}

// refresh re-derives and pushes the room, game and presence projections.
func (s *session) refresh() {
	snap, err := s.srv.rooms.Fetch(s.ctx, s.code)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.srv.logger.Warn("snapshot fetch failed", "code", s.code, "error", err)
		}
		return
	}
	s.mu.Lock()
	s.lastSeen = snap
	s.mu.Unlock()

	view := snap.View()
	s.push(serverFrame{Type: MsgRoom, Room: &view})

	if snap.GamePhase == match.PhasePlaying {
		state, err := s.srv.engine.Fetch(s.ctx, s.code)
		if err == nil {
			if len(state.Players) == 0 {
				// Playing but not yet dealt; any observer may bootstrap,
				// concurrent attempts converge to one deal.
				if err := s.srv.engine.EnsureDealt(s.ctx, s.code); err != nil {
					s.srv.logger.Warn("bootstrap failed", "code", s.code, "error", err)
				}
				return // the deal triggers another refresh
			}
			gameView := match.ViewFor(state, s.id.ID)
			s.push(serverFrame{Type: MsgGame, Game: &gameView})
		}
	}

	if records, err := s.srv.presence.Snapshot(s.ctx, s.code); err == nil {
		s.push(serverFrame{Type: MsgPresence, Presence: records})
	}
}

func (s *session) readPump() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.srv.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			s.pushError(&apperrors.GameError{Code: 0, Message: "malformed frame"})
			continue
		}
		if err := s.dispatch(frame); err != nil {
			s.pushError(err)
		}
	}
}

// dispatch maps one inbound frame to its room or match call. Rejections come
// back as errors and are relayed to the user; nothing here is fatal.
func (s *session) dispatch(frame clientFrame) error {
	switch frame.Op {
	case OpClaimSeat:
		return s.srv.rooms.ClaimSeat(s.ctx, s.code, frame.Seat, s.id.ID, s.id.DisplayName)
	case OpLeaveSeat:
		return s.srv.rooms.LeaveSeat(s.ctx, s.code, frame.Seat, s.id.ID)
	case OpToggleReady:
		return s.srv.rooms.ToggleReady(s.ctx, s.code, frame.Seat, s.id.ID)
	case OpStart:
		s.mu.Lock()
		lastSeen := s.lastSeen
		s.mu.Unlock()
		if err := s.srv.rooms.AttemptStart(s.ctx, s.code, s.id.ID, lastSeen); err != nil {
			return err
		}
		return s.srv.engine.EnsureDealt(s.ctx, s.code)
	case OpDrawStock:
		return s.srv.engine.DrawFromStock(s.ctx, s.code, s.id.ID)
	case OpTakePile:
		return s.srv.engine.TakeTopOfPile(s.ctx, s.code, s.id.ID)
	case OpEatHead:
		return s.srv.engine.EatHead(s.ctx, s.code, s.id.ID)
	case OpDiscard:
		return s.srv.engine.Discard(s.ctx, s.code, s.id.ID, frame.Card)
	case OpLayMeld:
		return s.srv.engine.LayMeld(s.ctx, s.code, s.id.ID, frame.Cards)
	default:
		return &apperrors.GameError{Code: 0, Message: "unknown operation"}
	}
}

func (s *session) push(frame serverFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		s.srv.logger.Error("frame encode failed", "type", frame.Type, "error", err)
		return
	}
	select {
	case s.send <- data:
	case <-s.ctx.Done():
	}
}

func (s *session) pushError(err error) {
	frame := serverFrame{Type: MsgError, Message: err.Error()}
	var ge *apperrors.GameError
	if errors.As(err, &ge) {
		frame.Code = ge.Code
	} else if errors.Is(err, docstore.ErrTooMuchContention) {
		frame.Message = apperrors.ErrRaceLost.Message
		frame.Code = apperrors.CodeRaceLost
	}
	s.push(frame)
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer func() { _ = s.conn.Close() }()

	for {
		select {
		case <-s.ctx.Done():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.cancel()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.cancel()
				return
			}
		}
	}
}

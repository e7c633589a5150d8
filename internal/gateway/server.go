// Package gateway bridges browsers to the shared document store: an HTTP
// endpoint creates rooms, and a websocket session per participant resolves
// an identity, registers presence, relays store snapshots out and the game's
// action calls in. The gateway holds no game state and performs no
// validation of its own — every mutation goes through the room manager or
// the match engine and can lose its race like any other client's.
package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rummyroom/rummyroom/internal/apperrors"
	"github.com/rummyroom/rummyroom/internal/docstore"
	"github.com/rummyroom/rummyroom/internal/match"
	"github.com/rummyroom/rummyroom/internal/presence"
	"github.com/rummyroom/rummyroom/internal/room"
)

// Server carries the shared collaborators of every session.
type Server struct {
	store    *docstore.Store
	rooms    *room.Manager
	engine   *match.Engine
	presence *presence.Tracker
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New assembles a gateway server.
func New(store *docstore.Store, rooms *room.Manager, engine *match.Engine, tracker *presence.Tracker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    store,
		rooms:    rooms,
		engine:   engine,
		presence: tracker,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/rooms", s.handleCreateRoom)
	r.Get("/rooms/{code}/ws", s.handleWS)
	return r
}

type createRoomRequest struct {
	DisplayName string `json:"displayName"`
}

type createRoomResponse struct {
	Code string `json:"code"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // body is optional
	}

	code, err := s.rooms.Create(r.Context(), req.DisplayName)
	if err != nil {
		s.logger.Error("room creation failed", "error", err)
		http.Error(w, "could not create room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createRoomResponse{Code: code})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if _, err := s.rooms.Fetch(r.Context(), code); err != nil {
		if err == apperrors.ErrRoomNotFound {
			http.Error(w, "room does not exist", http.StatusNotFound)
			return
		}
		s.logger.Error("room lookup failed", "code", code, "error", err)
		http.Error(w, "store unavailable", http.StatusBadGateway)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sess := newSession(s, code, conn, r.URL.Query().Get("name"))
	go sess.writePump()
	go sess.run()
}

package gateway

import (
	"github.com/rummyroom/rummyroom/internal/match"
	"github.com/rummyroom/rummyroom/internal/presence"
	"github.com/rummyroom/rummyroom/internal/room"
)

// Inbound operations. Everything a client may do maps onto one room-manager
// or match-engine call.
const (
	OpClaimSeat   = "claim_seat"
	OpLeaveSeat   = "leave_seat"
	OpToggleReady = "toggle_ready"
	OpStart       = "start"
	OpDrawStock   = "draw_stock"
	OpTakePile    = "take_pile"
	OpEatHead     = "eat_head"
	OpDiscard     = "discard"
	OpLayMeld     = "lay_meld"
)

// clientFrame is one inbound action request.
type clientFrame struct {
	Op    string   `json:"op"`
	Seat  int      `json:"seat,omitempty"`
	Card  string   `json:"card,omitempty"`
	Cards []string `json:"cards,omitempty"`
}

// Outbound frame types.
const (
	MsgHello    = "hello"
	MsgRoom     = "room"
	MsgGame     = "game"
	MsgPresence = "presence"
	MsgError    = "error"
)

// serverFrame is one outbound push. Exactly one payload field is set,
// according to Type.
type serverFrame struct {
	Type     string                     `json:"type"`
	Identity string                     `json:"identity,omitempty"`
	Room     *room.RoomView             `json:"room,omitempty"`
	Game     *match.View                `json:"game,omitempty"`
	Presence map[string]presence.Record `json:"presence,omitempty"`
	Code     int                        `json:"code,omitempty"`
	Message  string                     `json:"message,omitempty"`
}

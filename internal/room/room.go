// Package room owns the lobby phase: seat claims, ready toggling, legacy
// schema backfill and the lobby→playing transition gate. Seats live at their
// own document paths so that claims on different seats never contend.
package room

import (
	"time"
)

const (
	// MaxSeats is the fixed number of lobby positions.
	MaxSeats = 4
	// MinPlayers required to start a match.
	MinPlayers = 2
	// HandSize dealt to each player at bootstrap.
	HandSize = 7
)

// Status of a room. Playing is entered exactly once, by AttemptStart.
type Status string

const (
	StatusLobby   Status = "lobby"
	StatusPlaying Status = "playing"
)

// Seat is an occupied lobby position. An empty Identity means the seat is
// free; only the occupant may mutate or clear an occupied seat.
type Seat struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	Ready       bool   `json:"ready"`
}

// Occupied reports whether the seat has an occupant.
func (s *Seat) Occupied() bool {
	return s != nil && s.Identity != ""
}

// Room is the root document of a match room. Slots and the game state live
// at subpaths (SeatPath, match.StatePath) to keep transactions path-local.
type Room struct {
	CreatedAt int64  `json:"createdAt"`
	Status    Status `json:"status"`
	Host      string `json:"host"`
}

// complete reports whether a document has the current schema. Legacy rooms
// predate the status and createdAt fields.
func (r *Room) complete() bool {
	return r.Status != "" && r.CreatedAt != 0
}

// backfill fills in missing legacy fields without disturbing present ones.
func (r *Room) backfill(now time.Time) {
	if r.Status == "" {
		r.Status = StatusLobby
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = now.Unix()
	}
}

// Path is the document path of a room's root.
func Path(code string) string {
	return "rooms/" + code
}

// SeatPath is the document path of one seat (1..MaxSeats).
func SeatPath(code string, seatNo int) string {
	return Path(code) + "/slots/" + seatNoString(seatNo)
}

func seatNoString(n int) string {
	return string(rune('0' + n))
}

// ValidSeatNo reports whether n names one of the four seats.
func ValidSeatNo(n int) bool {
	return n >= 1 && n <= MaxSeats
}

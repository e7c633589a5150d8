package room

// SeatView is one normalized lobby position. Free seats are present with
// Occupied=false so renderers never deal with holes or legacy shapes.
type SeatView struct {
	Seat        int    `json:"seat"`
	Occupied    bool   `json:"occupied"`
	Identity    string `json:"identity,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Ready       bool   `json:"ready,omitempty"`
}

// RoomView is the read-only lobby projection.
type RoomView struct {
	Code      string     `json:"code"`
	Status    Status     `json:"status"`
	Host      string     `json:"host,omitempty"`
	CreatedAt int64      `json:"createdAt"`
	Seats     []SeatView `json:"seats"`
	Winner    string     `json:"winner,omitempty"`
}

// View projects a snapshot for rendering. Pure.
func (s *Snapshot) View() RoomView {
	v := RoomView{
		Code:      s.Code,
		Status:    s.EffectiveStatus(),
		Host:      s.Room.Host,
		CreatedAt: s.Room.CreatedAt,
		Seats:     make([]SeatView, 0, MaxSeats),
		Winner:    s.Winner,
	}
	for n := 1; n <= MaxSeats; n++ {
		sv := SeatView{Seat: n}
		if seat := s.Seats[n]; seat.Occupied() {
			sv.Occupied = true
			sv.Identity = seat.Identity
			sv.DisplayName = seat.DisplayName
			sv.Ready = seat.Ready
		}
		v.Seats = append(v.Seats, sv)
	}
	return v
}

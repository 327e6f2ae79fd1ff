// Package occupancy implements the seat occupancy rules: the derived
// free/assigned/present status, the grid payload served to the
// front-end, and the transactional transitions between states.
package occupancy

import (
	"sort"
	"time"

	"github.com/acmevents/palco-checkin/internal/config"
	"github.com/acmevents/palco-checkin/internal/model"
)

// Status is the derived occupancy state of a seat. It is a pure
// function of the holder reference and the present flag; it is never
// stored.
type Status string

const (
	StatusFree     Status = "free"     // no holder
	StatusAssigned Status = "assigned" // holder, not checked in
	StatusPresent  Status = "present"  // holder checked in
)

// SeatStatus derives the status of a seat from its holder reference and
// present flag. A present flag without a holder never happens through
// the engine; it is reported as free so a corrupted row cannot render
// as occupied.
func SeatStatus(assignedPersonID *uint64, present bool) Status {
	if assignedPersonID == nil {
		return StatusFree
	}
	if present {
		return StatusPresent
	}
	return StatusAssigned
}

// GridPerson is the minimal person payload embedded in non-free grid
// seats.
type GridPerson struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	Doc       string     `json:"doc,omitempty"`
	Org       string     `json:"org,omitempty"`
	Cargo     string     `json:"cargo,omitempty"`
	Seat      *string    `json:"seat"`
	Present   bool       `json:"present"`
	PresentAt *time.Time `json:"present_at"`
}

// GridSeat is one entry of the section grid payload.
type GridSeat struct {
	ID         uint64      `json:"id"`
	SeatCode   string      `json:"seat_code"`
	RowLetter  string      `json:"row_letter"`
	SeatNumber uint32      `json:"seat_number"`
	Status     Status      `json:"status"`
	Present    bool        `json:"present"`
	PresentAt  *time.Time  `json:"present_at"`
	Person     *GridPerson `json:"person"`
}

// BuildGrid assembles the grid payload for a palco. Seats are ordered
// by row letter according to rowOrder ("asc" or "desc") and by seat
// number ascending within a row. people maps person id to the full
// record for every holder referenced by the seats.
func BuildGrid(seats []model.PalcoSeat, people map[uint64]model.Person, rowOrder string) []GridSeat {
	sorted := make([]model.PalcoSeat, len(seats))
	copy(sorted, seats)
	desc := rowOrder != config.RowOrderAsc
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.RowLetter != b.RowLetter {
			if desc {
				return a.RowLetter > b.RowLetter
			}
			return a.RowLetter < b.RowLetter
		}
		return a.SeatNumber < b.SeatNumber
	})

	grid := make([]GridSeat, 0, len(sorted))
	for _, s := range sorted {
		gs := GridSeat{
			ID:         s.ID,
			SeatCode:   s.SeatCode,
			RowLetter:  s.RowLetter,
			SeatNumber: s.SeatNumber,
			Status:     SeatStatus(s.AssignedPersonID, s.Present),
			Present:    s.Present,
			PresentAt:  s.PresentAt,
		}
		if s.AssignedPersonID != nil {
			if p, ok := people[*s.AssignedPersonID]; ok {
				gs.Person = &GridPerson{
					ID:        p.ID,
					Name:      p.Name,
					Doc:       p.Doc,
					Org:       p.Org,
					Cargo:     p.Cargo,
					Seat:      p.SeatCode,
					Present:   p.Present,
					PresentAt: p.PresentAt,
				}
			}
		}
		grid = append(grid, gs)
	}
	return grid
}

package model

import "time"

// PalcoSeat is a seat inside a palco. The seat code (row letter + seat
// number, e.g. "C5") is unique per palco. AssignedPersonID is the
// normalized holder reference; Present/PresentAt mirror the holder's
// check-in state and are only meaningful while a holder exists.
type PalcoSeat struct {
	ID               uint64     `json:"id"`
	PalcoID          uint64     `json:"palco_id"`
	RowLetter        string     `json:"row_letter"`
	SeatNumber       uint32     `json:"seat_number"`
	SeatCode         string     `json:"seat_code"`
	AssignedPersonID *uint64    `json:"assigned_person_id"`
	Present          bool       `json:"present"`
	PresentAt        *time.Time `json:"present_at"`
}

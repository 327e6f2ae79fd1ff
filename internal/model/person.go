package model

import "time"

// Person is an attendee record. The seat reference is a plain seat code
// kept in sync by the occupancy engine; the authoritative link lives on
// palco_seats.assigned_person_id.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name (required).
//  Doc       – optional document/ID number.
//  Org       – optional organization.
//  Cargo     – optional role/title.
//  SeatCode  – mirrored seat code (e.g. "C5"), nil when unseated.
//  Present   – whether the person has checked in.
//  PresentAt – check-in timestamp, nil until present.
type Person struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	Doc       string     `json:"doc,omitempty"`
	Org       string     `json:"org,omitempty"`
	Cargo     string     `json:"cargo,omitempty"`
	SeatCode  *string    `json:"seat"`
	Present   bool       `json:"present"`
	PresentAt *time.Time `json:"present_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PersonUpdate carries the mutable person fields for partial updates.
// Nil pointers leave the corresponding column untouched.
type PersonUpdate struct {
	Name     *string `json:"name"`
	Doc      *string `json:"doc"`
	Org      *string `json:"org"`
	Cargo    *string `json:"cargo"`
	SeatCode *string `json:"seat"`
}

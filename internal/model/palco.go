package model

import "time"

// Palco is a named seating section containing a grid of seats.
//
// Fields:
//  ID          – primary key identifier.
//  Code        – short unique code (e.g. "A", "PRINCIPAL").
//  Name        – display name (e.g. "PALCO A").
//  Priority    – optional display priority (alta/media/baja).
//  VisualOrder – ordering hint for section tabs, ascending.
//  Active      – inactive palcos are hidden from listings.
type Palco struct {
	ID          uint64    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Priority    string    `json:"priority,omitempty"`
	VisualOrder int       `json:"visual_order"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

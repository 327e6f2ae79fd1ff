// Package queue defines message payloads exchanged over the message
// broker and the background consumer that records them.
package queue

// CheckinConfirmedEvent is published whenever a person is marked
// present, whether by id, by name or through a seat. It carries enough
// for downstream consumers (attendance logs, notifications) without
// querying the primary database.
type CheckinConfirmedEvent struct {
	PersonID    uint64 `json:"person_id"`
	PersonName  string `json:"person_name"`
	SeatCode    string `json:"seat_code,omitempty"`
	PalcoID     uint64 `json:"palco_id,omitempty"`
	Method      string `json:"method"` // "id" | "name" | "seat"
	CheckedInAt string `json:"checked_in_at"`
}

// CheckinQueueName is the durable queue used for check-in events.
const CheckinQueueName = "checkin.confirmed"

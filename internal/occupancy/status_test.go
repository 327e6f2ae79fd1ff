package occupancy

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/acmevents/palco-checkin/internal/config"
	"github.com/acmevents/palco-checkin/internal/model"
)

func uptr(v uint64) *uint64 { return &v }

func TestSeatStatus(t *testing.T) {
	cases := []struct {
		name    string
		holder  *uint64
		present bool
		want    Status
	}{
		{"no holder is free", nil, false, StatusFree},
		{"holder not present is assigned", uptr(7), false, StatusAssigned},
		{"holder present is present", uptr(7), true, StatusPresent},
		{"present without holder reads as free", nil, true, StatusFree},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SeatStatus(tc.holder, tc.present); got != tc.want {
				t.Errorf("SeatStatus(%v, %v) = %q, want %q", tc.holder, tc.present, got, tc.want)
			}
		})
	}
}

func testSeats() []model.PalcoSeat {
	return []model.PalcoSeat{
		{ID: 1, PalcoID: 1, RowLetter: "A", SeatNumber: 2, SeatCode: "A2"},
		{ID: 2, PalcoID: 1, RowLetter: "A", SeatNumber: 1, SeatCode: "A1", AssignedPersonID: uptr(42)},
		{ID: 3, PalcoID: 1, RowLetter: "C", SeatNumber: 1, SeatCode: "C1", AssignedPersonID: uptr(43), Present: true},
		{ID: 4, PalcoID: 1, RowLetter: "B", SeatNumber: 1, SeatCode: "B1"},
	}
}

func TestBuildGridOrdering(t *testing.T) {
	seats := testSeats()
	codes := func(grid []GridSeat) []string {
		out := make([]string, len(grid))
		for i, g := range grid {
			out[i] = g.SeatCode
		}
		return out
	}

	desc := BuildGrid(seats, nil, config.RowOrderDesc)
	if diff := cmp.Diff([]string{"C1", "B1", "A1", "A2"}, codes(desc)); diff != "" {
		t.Errorf("desc order mismatch (-want +got):\n%s", diff)
	}

	asc := BuildGrid(seats, nil, config.RowOrderAsc)
	if diff := cmp.Diff([]string{"A1", "A2", "B1", "C1"}, codes(asc)); diff != "" {
		t.Errorf("asc order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildGridStatusAndPerson(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	seats := testSeats()
	seats[2].PresentAt = &now
	seatC1 := "C1"
	people := map[uint64]model.Person{
		42: {ID: 42, Name: "CAROLINA CONTRERAS", Org: "PFA"},
		43: {ID: 43, Name: "NICOLAS CORTEZ", SeatCode: &seatC1, Present: true, PresentAt: &now},
	}

	grid := BuildGrid(seats, people, config.RowOrderAsc)
	byCode := map[string]GridSeat{}
	for _, g := range grid {
		byCode[g.SeatCode] = g
	}

	if got := byCode["A2"]; got.Status != StatusFree || got.Person != nil {
		t.Errorf("A2 = %+v, want free with no person", got)
	}
	a1 := byCode["A1"]
	if a1.Status != StatusAssigned || a1.Person == nil || a1.Person.ID != 42 {
		t.Errorf("A1 = %+v, want assigned with person 42", a1)
	}
	c1 := byCode["C1"]
	if c1.Status != StatusPresent || c1.Person == nil || c1.Person.ID != 43 {
		t.Fatalf("C1 = %+v, want present with person 43", c1)
	}
	if c1.PresentAt == nil || !c1.PresentAt.Equal(now) {
		t.Errorf("C1 present_at = %v, want %v", c1.PresentAt, now)
	}
	if !c1.Person.Present || c1.Person.PresentAt == nil {
		t.Errorf("C1 person presence not mirrored: %+v", c1.Person)
	}
}

func TestBuildGridDoesNotMutateInput(t *testing.T) {
	seats := testSeats()
	want := testSeats()
	BuildGrid(seats, nil, config.RowOrderDesc)
	if diff := cmp.Diff(want, seats); diff != "" {
		t.Errorf("input slice mutated (-want +got):\n%s", diff)
	}
}

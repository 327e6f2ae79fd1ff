package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/acmevents/palco-checkin/internal/model"
)

const seatColumns = "id, palco_id, row_letter, seat_number, seat_code, assigned_person_id, present, present_at"

// SeatRepo provides data access to the palco_seats table. Occupancy
// transitions (assign/present/release) live in the occupancy engine;
// this repository covers catalog maintenance and reads.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

func scanSeat(row interface{ Scan(...any) error }) (model.PalcoSeat, error) {
	var (
		s         model.PalcoSeat
		personID  sql.NullInt64
		presentAt sql.NullTime
	)
	err := row.Scan(&s.ID, &s.PalcoID, &s.RowLetter, &s.SeatNumber, &s.SeatCode, &personID, &s.Present, &presentAt)
	if err != nil {
		return model.PalcoSeat{}, err
	}
	if personID.Valid {
		id := uint64(personID.Int64)
		s.AssignedPersonID = &id
	}
	if presentAt.Valid {
		t := presentAt.Time
		s.PresentAt = &t
	}
	return s, nil
}

// Create inserts a single seat. The seat code is derived from the row
// letter and seat number. A duplicate code within the palco yields
// ErrConflict.
func (r *SeatRepo) Create(ctx context.Context, s *model.PalcoSeat) error {
	s.RowLetter = strings.ToUpper(strings.TrimSpace(s.RowLetter))
	s.SeatCode = SeatCode(s.RowLetter, s.SeatNumber)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO palco_seats (palco_id, row_letter, seat_number, seat_code) VALUES (?, ?, ?, ?)`,
		s.PalcoID, s.RowLetter, s.SeatNumber, s.SeatCode)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// CreateRow bulk-inserts a full row of count seats (1..count) in a
// single statement and returns the created seats.
func (r *SeatRepo) CreateRow(ctx context.Context, palcoID uint64, rowLetter string, count uint32) ([]model.PalcoSeat, error) {
	rowLetter = strings.ToUpper(strings.TrimSpace(rowLetter))
	if count == 0 {
		return nil, nil
	}
	query := `INSERT INTO palco_seats (palco_id, row_letter, seat_number, seat_code) VALUES `
	args := make([]any, 0, int(count)*4)
	for n := uint32(1); n <= count; n++ {
		if n > 1 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, palcoID, rowLetter, n, SeatCode(rowLetter, n))
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return nil, ErrConflict
		}
		return nil, err
	}
	return r.listRow(ctx, palcoID, rowLetter)
}

func (r *SeatRepo) listRow(ctx context.Context, palcoID uint64, rowLetter string) ([]model.PalcoSeat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seatColumns+` FROM palco_seats WHERE palco_id = ? AND row_letter = ? ORDER BY seat_number ASC`,
		palcoID, rowLetter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.PalcoSeat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// ListByPalco retrieves all seats of a palco. Row ordering is applied by
// the occupancy engine so that one configured convention governs every
// grid.
func (r *SeatRepo) ListByPalco(ctx context.Context, palcoID uint64) ([]model.PalcoSeat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seatColumns+` FROM palco_seats WHERE palco_id = ? ORDER BY row_letter ASC, seat_number ASC`,
		palcoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.PalcoSeat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (model.PalcoSeat, error) {
	s, err := scanSeat(r.db.QueryRowContext(ctx,
		`SELECT `+seatColumns+` FROM palco_seats WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.PalcoSeat{}, ErrNotFound
	}
	return s, err
}

// GetByCode retrieves a seat by palco and seat code.
func (r *SeatRepo) GetByCode(ctx context.Context, palcoID uint64, code string) (model.PalcoSeat, error) {
	s, err := scanSeat(r.db.QueryRowContext(ctx,
		`SELECT `+seatColumns+` FROM palco_seats WHERE palco_id = ? AND seat_code = ?`,
		palcoID, strings.ToUpper(strings.TrimSpace(code))))
	if errors.Is(err, sql.ErrNoRows) {
		return model.PalcoSeat{}, ErrNotFound
	}
	return s, err
}

// Delete removes a seat by id. Callers must release the occupant first;
// the occupancy engine owns that transition.
func (r *SeatRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM palco_seats WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SeatCode builds the human-readable seat code from a row letter and a
// seat number, e.g. ("C", 5) -> "C5".
func SeatCode(rowLetter string, seatNumber uint32) string {
	return fmt.Sprintf("%s%d", strings.ToUpper(strings.TrimSpace(rowLetter)), seatNumber)
}

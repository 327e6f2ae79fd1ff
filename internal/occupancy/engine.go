package occupancy

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/acmevents/palco-checkin/internal/model"
	"github.com/acmevents/palco-checkin/internal/repository"
)

// Engine applies occupancy transitions. Every read-check-write sequence
// runs inside a transaction with the seat row locked (SELECT ... FOR
// UPDATE), so two concurrent assigns of the same seat serialize and the
// loser observes the winner's holder.
type Engine struct {
	db       *sql.DB
	rowOrder string
}

// NewEngine constructs an Engine. rowOrder is the configured grid row
// ordering convention ("asc" or "desc").
func NewEngine(db *sql.DB, rowOrder string) *Engine {
	return &Engine{db: db, rowOrder: rowOrder}
}

const lockSeat = `SELECT id, palco_id, row_letter, seat_number, seat_code, assigned_person_id, present, present_at
	FROM palco_seats WHERE id = ? FOR UPDATE`

const lockPerson = `SELECT id, name, doc, org, cargo, seat_code, present, present_at, created_at, updated_at
	FROM person WHERE id = ? FOR UPDATE`

func seatFromRow(row *sql.Row) (model.PalcoSeat, error) {
	var (
		s         model.PalcoSeat
		personID  sql.NullInt64
		presentAt sql.NullTime
	)
	err := row.Scan(&s.ID, &s.PalcoID, &s.RowLetter, &s.SeatNumber, &s.SeatCode, &personID, &s.Present, &presentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PalcoSeat{}, repository.ErrNotFound
	}
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

func personFromRow(row *sql.Row) (model.Person, error) {
	var (
		p               model.Person
		doc, org, cargo sql.NullString
		seat            sql.NullString
		presentAt       sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Name, &doc, &org, &cargo, &seat, &p.Present, &presentAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Person{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Person{}, err
	}
	p.Doc, p.Org, p.Cargo = doc.String, org.String, cargo.String
	if seat.Valid {
		s := seat.String
		p.SeatCode = &s
	}
	if presentAt.Valid {
		t := presentAt.Time
		p.PresentAt = &t
	}
	return p, nil
}

// Assign links a person to a seat, leaving both in the assigned (not
// present) state and mirroring the seat code onto the person. It fails
// with ErrNotFound when either side is missing and with ErrConflict
// when the seat already has a different holder or the person already
// holds another seat; occupied seats must be released explicitly, never
// bumped.
func (e *Engine) Assign(ctx context.Context, seatID, personID uint64) (model.PalcoSeat, model.Person, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}
	defer tx.Rollback()

	seat, err := seatFromRow(tx.QueryRowContext(ctx, lockSeat, seatID))
	if err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}
	person, err := personFromRow(tx.QueryRowContext(ctx, lockPerson, personID))
	if err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}
	// One active seat per person: the unique index on assigned_person_id
	// backs this, but checking here turns a driver error into a clean
	// conflict.
	var other uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM palco_seats WHERE assigned_person_id = ? AND id <> ? LIMIT 1`,
		personID, seatID).Scan(&other)
	holdsOtherSeat := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.PalcoSeat{}, model.Person{}, err
	}
	if err := CheckAssign(seat, personID, holdsOtherSeat); err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE palco_seats SET assigned_person_id = ?, present = FALSE, present_at = NULL WHERE id = ?`,
		personID, seatID); err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE person SET seat_code = ?, present = FALSE, present_at = NULL WHERE id = ?`,
		seat.SeatCode, personID); err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}
	if err = tx.Commit(); err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}

	seat.AssignedPersonID = &personID
	seat.Present = false
	seat.PresentAt = nil
	code := seat.SeatCode
	person.SeatCode = &code
	person.Present = false
	person.PresentAt = nil
	return seat, person, nil
}

// MarkPresent records the check-in of the seat's holder, stamping the
// same timestamp on seat and person. A seat without a holder yields
// ErrInvalidState.
func (e *Engine) MarkPresent(ctx context.Context, seatID uint64) (model.PalcoSeat, model.Person, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}
	defer tx.Rollback()

	seat, err := seatFromRow(tx.QueryRowContext(ctx, lockSeat, seatID))
	if err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}
	if err := CheckPresent(seat); err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}
	person, err := personFromRow(tx.QueryRowContext(ctx, lockPerson, *seat.AssignedPersonID))
	if err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	if _, err = tx.ExecContext(ctx,
		`UPDATE palco_seats SET present = TRUE, present_at = ? WHERE id = ?`,
		now, seatID); err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE person SET present = TRUE, present_at = ?, seat_code = ? WHERE id = ?`,
		now, seat.SeatCode, person.ID); err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}
	if err = tx.Commit(); err != nil {
		return model.PalcoSeat{}, model.Person{}, err
	}

	seat.Present = true
	seat.PresentAt = &now
	code := seat.SeatCode
	person.SeatCode = &code
	person.Present = true
	person.PresentAt = &now
	return seat, person, nil
}

// Release frees a seat, clearing holder, presence and timestamp on both
// sides. Releasing an already free seat is a successful no-op; the
// returned flag reports whether anything was actually released.
func (e *Engine) Release(ctx context.Context, seatID uint64) (bool, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	seat, err := seatFromRow(tx.QueryRowContext(ctx, lockSeat, seatID))
	if err != nil {
		return false, err
	}
	if !NeedsRelease(seat) {
		return false, tx.Commit()
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE palco_seats SET assigned_person_id = NULL, present = FALSE, present_at = NULL WHERE id = ?`,
		seatID); err != nil {
		return false, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE person SET seat_code = NULL, present = FALSE, present_at = NULL WHERE id = ?`,
		*seat.AssignedPersonID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// ReleasePersonSeat frees whatever seat the given person currently
// holds. Used before deleting a person so no seat is left pointing at a
// vanished holder with a stale present flag.
func (e *Engine) ReleasePersonSeat(ctx context.Context, personID uint64) (bool, error) {
	var seatID uint64
	err := e.db.QueryRowContext(ctx,
		`SELECT id FROM palco_seats WHERE assigned_person_id = ?`, personID).Scan(&seatID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.Release(ctx, seatID)
}

// Grid returns the full grid of a palco with derived statuses and
// embedded holder info, ordered by the configured row convention. The
// holders are fetched in one batch query.
func (e *Engine) Grid(ctx context.Context, palcoID uint64) ([]GridSeat, error) {
	var exists uint64
	err := e.db.QueryRowContext(ctx, `SELECT id FROM palcos WHERE id = ?`, palcoID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := e.db.QueryContext(ctx,
		`SELECT id, palco_id, row_letter, seat_number, seat_code, assigned_person_id, present, present_at
		 FROM palco_seats WHERE palco_id = ?`, palcoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []model.PalcoSeat
	var holderIDs []uint64
	seen := map[uint64]bool{}
	for rows.Next() {
		var (
			s         model.PalcoSeat
			personID  sql.NullInt64
			presentAt sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.PalcoID, &s.RowLetter, &s.SeatNumber, &s.SeatCode, &personID, &s.Present, &presentAt); err != nil {
			return nil, err
		}
		if personID.Valid {
			id := uint64(personID.Int64)
			s.AssignedPersonID = &id
			if !seen[id] {
				seen[id] = true
				holderIDs = append(holderIDs, id)
			}
		}
		if presentAt.Valid {
			t := presentAt.Time
			s.PresentAt = &t
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	people, err := e.peopleByIDs(ctx, holderIDs)
	if err != nil {
		return nil, err
	}
	return BuildGrid(seats, people, e.rowOrder), nil
}

func (e *Engine) peopleByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Person, error) {
	people := make(map[uint64]model.Person, len(ids))
	if len(ids) == 0 {
		return people, nil
	}
	query := `SELECT id, name, doc, org, cargo, seat_code, present, present_at, created_at, updated_at
		FROM person WHERE id IN (` + strings.Repeat("?,", len(ids)-1) + `?)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p               model.Person
			doc, org, cargo sql.NullString
			seat            sql.NullString
			presentAt       sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Name, &doc, &org, &cargo, &seat, &p.Present, &presentAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Doc, p.Org, p.Cargo = doc.String, org.String, cargo.String
		if seat.Valid {
			s := seat.String
			p.SeatCode = &s
		}
		if presentAt.Valid {
			t := presentAt.Time
			p.PresentAt = &t
		}
		people[p.ID] = p
	}
	return people, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/acmevents/palco-checkin/internal/model"
)

const personColumns = "id, name, doc, org, cargo, seat_code, present, present_at, created_at, updated_at"

// PersonRepo provides data access to the person table.
type PersonRepo struct {
	db *sql.DB
}

// NewPersonRepo constructs a PersonRepo with the given DB handle.
func NewPersonRepo(db *sql.DB) *PersonRepo { return &PersonRepo{db: db} }

// scanPerson reads one person row from any row scanner.
func scanPerson(row interface{ Scan(...any) error }) (model.Person, error) {
	var (
		p               model.Person
		doc, org, cargo sql.NullString
		seat            sql.NullString
		presentAt       sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Name, &doc, &org, &cargo, &seat, &p.Present, &presentAt, &p.CreatedAt, &p.UpdatedAt)
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

// List returns all people, newest first.
func (r *PersonRepo) List(ctx context.Context) ([]model.Person, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+personColumns+` FROM person ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetByID fetches a person by id.
func (r *PersonRepo) GetByID(ctx context.Context, id uint64) (model.Person, error) {
	p, err := scanPerson(r.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM person WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Person{}, ErrNotFound
	}
	return p, err
}

// Create inserts a person and populates the generated id and timestamps.
func (r *PersonRepo) Create(ctx context.Context, p *model.Person) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO person (name, doc, org, cargo, seat_code) VALUES (?, ?, ?, ?, ?)`,
		p.Name, nullStr(p.Doc), nullStr(p.Org), nullStr(p.Cargo), p.SeatCode)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*p = created
	return nil
}

// Update applies a partial update and returns the refreshed row.
func (r *PersonRepo) Update(ctx context.Context, id uint64, upd model.PersonUpdate) (model.Person, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Doc != nil {
		sets = append(sets, "doc = ?")
		args = append(args, nullStr(*upd.Doc))
	}
	if upd.Org != nil {
		sets = append(sets, "org = ?")
		args = append(args, nullStr(*upd.Org))
	}
	if upd.Cargo != nil {
		sets = append(sets, "cargo = ?")
		args = append(args, nullStr(*upd.Cargo))
	}
	if upd.SeatCode != nil {
		sets = append(sets, "seat_code = ?")
		args = append(args, nullStr(*upd.SeatCode))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		"UPDATE person SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return model.Person{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is also 0 for a no-op update, so confirm existence.
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.Person{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a person. It reports whether a row was deleted.
func (r *PersonRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM person WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CheckInByID marks a person present with the current UTC timestamp.
func (r *PersonRepo) CheckInByID(ctx context.Context, id uint64) (model.Person, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE person SET present = TRUE, present_at = UTC_TIMESTAMP() WHERE id = ?`, id)
	if err != nil {
		return model.Person{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.Person{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// CheckInByName marks a person present by exact, case-insensitive name
// match. When no person matches and autocreate is set, a bare record is
// created first; otherwise ErrNotFound is returned.
func (r *PersonRepo) CheckInByName(ctx context.Context, name string, autocreate bool) (model.Person, error) {
	p, err := scanPerson(r.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM person WHERE LOWER(name) = LOWER(?) LIMIT 1`, name))
	if errors.Is(err, sql.ErrNoRows) {
		if !autocreate {
			return model.Person{}, ErrNotFound
		}
		p = model.Person{Name: name}
		if err := r.Create(ctx, &p); err != nil {
			return model.Person{}, err
		}
	} else if err != nil {
		return model.Person{}, err
	}
	return r.CheckInByID(ctx, p.ID)
}

// Search performs a case-insensitive substring match across name, doc,
// org and cargo, ordered by name ascending and capped at limit rows.
func (r *PersonRepo) Search(ctx context.Context, q string, limit int) ([]model.Person, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+personColumns+` FROM person
		 WHERE LOWER(name) LIKE ? OR LOWER(doc) LIKE ? OR LOWER(org) LIKE ? OR LOWER(cargo) LIKE ?
		 ORDER BY name ASC LIMIT ?`,
		pattern, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// nullStr maps an empty string to NULL so optional columns stay NULL
// instead of accumulating empty strings.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

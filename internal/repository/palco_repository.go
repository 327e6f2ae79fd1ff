package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/acmevents/palco-checkin/internal/model"
)

const palcoColumns = "id, code, name, priority, visual_order, active, created_at, updated_at"

// PalcoRepo provides data access to the palcos table.
type PalcoRepo struct {
	db *sql.DB
}

// NewPalcoRepo constructs a PalcoRepo with the given DB handle.
func NewPalcoRepo(db *sql.DB) *PalcoRepo { return &PalcoRepo{db: db} }

func scanPalco(row interface{ Scan(...any) error }) (model.Palco, error) {
	var (
		p        model.Palco
		priority sql.NullString
	)
	err := row.Scan(&p.ID, &p.Code, &p.Name, &priority, &p.VisualOrder, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Palco{}, err
	}
	p.Priority = priority.String
	return p, nil
}

// ListActive returns all active palcos ordered for display (visual_order
// ascending, id as tie-breaker).
func (r *PalcoRepo) ListActive(ctx context.Context) ([]model.Palco, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+palcoColumns+` FROM palcos WHERE active = TRUE ORDER BY visual_order ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Palco
	for rows.Next() {
		p, err := scanPalco(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetByID fetches a palco by id.
func (r *PalcoRepo) GetByID(ctx context.Context, id uint64) (model.Palco, error) {
	p, err := scanPalco(r.db.QueryRowContext(ctx,
		`SELECT `+palcoColumns+` FROM palcos WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Palco{}, ErrNotFound
	}
	return p, err
}

// Create inserts a palco. A duplicate code yields ErrConflict.
func (r *PalcoRepo) Create(ctx context.Context, p *model.Palco) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO palcos (code, name, priority, visual_order, active) VALUES (?, ?, ?, ?, ?)`,
		p.Code, p.Name, nullStr(p.Priority), p.VisualOrder, p.Active)
	if err != nil {
		// MySQL error 1062 = duplicate entry for a unique key.
		if strings.Contains(err.Error(), "1062") {
			return ErrConflict
		}
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

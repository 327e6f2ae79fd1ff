// Package seed populates an empty database with the initial palcos,
// their seat grids, a couple of demo attendees and a demo admin user.
// Every step is guarded by a count/lookup so restarts are no-ops.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/acmevents/palco-checkin/internal/config"
	"github.com/acmevents/palco-checkin/internal/model"
	"github.com/acmevents/palco-checkin/internal/repository"
)

// Run seeds palcos, seats, people and the demo user when their tables
// are empty.
func Run(ctx context.Context, db *sql.DB, cfg config.Config) error {
	if err := seedPalcos(ctx, db); err != nil {
		return err
	}
	if err := seedSeats(ctx, db); err != nil {
		return err
	}
	if err := seedPeople(ctx, db); err != nil {
		return err
	}
	return seedUser(ctx, db, cfg)
}

func count(ctx context.Context, db *sql.DB, table string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n)
	return n, err
}

func seedPalcos(ctx context.Context, db *sql.DB) error {
	n, err := count(ctx, db, "palcos")
	if err != nil || n > 0 {
		return err
	}
	log.Println("[seed] creating initial palcos")
	repo := repository.NewPalcoRepo(db)
	for i, p := range []model.Palco{
		{Code: "PRINCIPAL", Name: "PALCO PRINCIPAL", Priority: "alta"},
		{Code: "A", Name: "PALCO A", Priority: "media"},
		{Code: "B", Name: "PALCO B", Priority: "media"},
	} {
		p.VisualOrder = i
		p.Active = true
		if err := repo.Create(ctx, &p); err != nil {
			return err
		}
	}
	return nil
}

func seedSeats(ctx context.Context, db *sql.DB) error {
	n, err := count(ctx, db, "palco_seats")
	if err != nil || n > 0 {
		return err
	}
	log.Println("[seed] generating seat grids")
	palcos := repository.NewPalcoRepo(db)
	seats := repository.NewSeatRepo(db)
	all, err := palcos.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, p := range all {
		for _, row := range []string{"A", "B", "C", "D"} {
			if _, err := seats.CreateRow(ctx, p.ID, row, 12); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedPeople(ctx context.Context, db *sql.DB) error {
	n, err := count(ctx, db, "person")
	if err != nil || n > 0 {
		return err
	}
	log.Println("[seed] inserting demo people")
	repo := repository.NewPersonRepo(db)
	// Seeded unassigned: seats are linked through the occupancy engine
	// so the holder reference and the mirrored code never diverge.
	for _, p := range []model.Person{
		{Name: "CAROLINA CONTRERAS", Doc: "40254119", Org: "PFA"},
		{Name: "NICOLAS CORTEZ", Doc: "65454354354", Org: "PFA"},
	} {
		if err := repo.Create(ctx, &p); err != nil {
			return err
		}
	}
	return nil
}

func seedUser(ctx context.Context, db *sql.DB, cfg config.Config) error {
	repo := repository.NewUserRepo(db)
	if _, err := repo.GetByEmail(ctx, "demo@acme.test"); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	log.Println("[seed] creating demo user demo@acme.test")
	_, err := repo.Create(ctx, "demo@acme.test", "Demo User", "Demo1234!", "admin", cfg.BcryptCost)
	return err
}

package database

import (
	"testing"

	"github.com/acmevents/palco-checkin/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.Config{
		DBUser: "checkin",
		DBPass: "s3cret",
		DBHost: "db.internal",
		DBPort: "3306",
		DBName: "palco",
	}
	want := "checkin:s3cret@tcp(db.internal:3306)/palco?charset=utf8mb4&parseTime=true&loc=UTC"
	if got := dsn(cfg); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}

func TestDSNWithoutPassword(t *testing.T) {
	cfg := config.Config{
		DBUser: "checkin",
		DBHost: "localhost",
		DBPort: "3306",
		DBName: "palco",
	}
	want := "checkin@tcp(localhost:3306)/palco?charset=utf8mb4&parseTime=true&loc=UTC"
	if got := dsn(cfg); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}

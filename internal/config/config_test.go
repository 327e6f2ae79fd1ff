package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Loading in mysql mode requires database and JWT variables and exits
// when they are missing, so the tests run through the file driver.
func setFileMode(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "file")
}

func TestLoadFileModeDefaults(t *testing.T) {
	setFileMode(t)
	cfg := Load()

	if cfg.Env != "dev" || cfg.Port != "8080" {
		t.Errorf("env/port = %q/%q, want dev/8080", cfg.Env, cfg.Port)
	}
	if cfg.StoreDriver != DriverFile {
		t.Errorf("driver = %q, want file", cfg.StoreDriver)
	}
	if cfg.StoreFile != "data/checkin.json" {
		t.Errorf("store file = %q", cfg.StoreFile)
	}
	if cfg.CheckinAutoCreate {
		t.Error("autocreate defaults to true, want false")
	}
	if cfg.GridRowOrder != RowOrderDesc {
		t.Errorf("row order = %q, want desc", cfg.GridRowOrder)
	}
	if diff := cmp.Diff([]string{"*"}, cfg.CORSOrigins); diff != "" {
		t.Errorf("cors (-want +got):\n%s", diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	setFileMode(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CHECKIN_AUTOCREATE", "1")
	t.Setenv("GRID_ROW_ORDER", "ASC")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test")

	cfg := Load()
	if !cfg.IsProd() {
		t.Error("IsProd() = false for prod env")
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q", cfg.Port)
	}
	if !cfg.CheckinAutoCreate {
		t.Error("CHECKIN_AUTOCREATE=1 not honored")
	}
	if cfg.GridRowOrder != RowOrderAsc {
		t.Errorf("row order = %q, want asc", cfg.GridRowOrder)
	}
	if diff := cmp.Diff([]string{"https://a.test", "https://b.test"}, cfg.CORSOrigins); diff != "" {
		t.Errorf("cors (-want +got):\n%s", diff)
	}
}

func TestLoadBadRowOrderFallsBack(t *testing.T) {
	setFileMode(t)
	t.Setenv("GRID_ROW_ORDER", "sideways")
	if cfg := Load(); cfg.GridRowOrder != RowOrderDesc {
		t.Errorf("row order = %q, want desc fallback", cfg.GridRowOrder)
	}
}

func TestIsProd(t *testing.T) {
	for env, want := range map[string]bool{
		"dev": false, "staging": false, "prod": true, "production": true,
	} {
		if got := (Config{Env: env}).IsProd(); got != want {
			t.Errorf("IsProd(%q) = %v, want %v", env, got, want)
		}
	}
}

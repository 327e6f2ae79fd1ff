package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors and halts execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits list-valued variables
)

// Store drivers supported by the application. The mysql driver is the
// full deployment; the file driver is a lightweight single-document
// fallback that only serves the person registry and the flat seat matrix.
const (
	DriverMySQL = "mysql"
	DriverFile  = "file"
)

// Row ordering conventions for section grids. The product front-end
// renders rows top to bottom, so "desc" puts the last row letter first
// (G, F, E ... A). Every grid call site goes through this one setting.
const (
	RowOrderAsc  = "asc"
	RowOrderDesc = "desc"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Database and JWT settings are only
// required when the mysql store driver is selected.
type Config struct {
	Env         string // application environment (e.g. "dev", "prod")
	Port        string // HTTP port to listen on
	StoreDriver string // "mysql" or "file"
	StoreFile   string // path of the JSON document for the file driver

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	DBMaxOpenConns   int // connection pool ceiling
	DBMaxIdleConns   int // idle connections kept around
	DBConnMaxLifeMin int // connection recycle age in minutes

	JWTAccessSecret  string // secret signing short-lived access tokens
	JWTRefreshSecret string // secret signing refresh tokens (separate on purpose)
	AccessTTLMin     int    // access token time-to-live in minutes
	RefreshTTLDays   int    // refresh token time-to-live in days
	BcryptCost       int    // bcrypt cost for password hashing
	CookieDomain     string // optional Domain attribute for the refresh cookie

	CORSOrigins []string // allowed CORS origins, comma separated in env

	CheckinAutoCreate bool   // create a bare person on check-in-by-name miss
	GridRowOrder      string // "asc" or "desc" row ordering for grids
}

// Load reads configuration values from environment variables and returns
// a Config. Variables required by the selected store driver are enforced
// by must() and missing values cause the program to exit with a fatal
// log message.
func Load() Config {
	cfg := Config{
		Env:               getenv("APP_ENV", "dev"),
		Port:              getenv("APP_PORT", "8080"),
		StoreDriver:       strings.ToLower(getenv("STORE_DRIVER", DriverMySQL)),
		StoreFile:         getenv("STORE_FILE", "data/checkin.json"),
		CookieDomain:      os.Getenv("COOKIE_DOMAIN"),
		CORSOrigins:       splitList(getenv("CORS_ORIGINS", "*")),
		CheckinAutoCreate: envBool("CHECKIN_AUTOCREATE", false),
		GridRowOrder:      strings.ToLower(getenv("GRID_ROW_ORDER", RowOrderDesc)),
	}
	if cfg.StoreDriver != DriverFile {
		cfg.StoreDriver = DriverMySQL
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
		cfg.DBMaxOpenConns = envInt("DB_MAX_OPEN_CONNS", 25)
		cfg.DBMaxIdleConns = envInt("DB_MAX_IDLE_CONNS", 25)
		cfg.DBConnMaxLifeMin = envInt("DB_CONN_MAX_LIFETIME_MIN", 30)
		cfg.JWTAccessSecret = must("JWT_ACCESS_SECRET")
		cfg.JWTRefreshSecret = must("JWT_REFRESH_SECRET")
		cfg.AccessTTLMin = envInt("ACCESS_TOKEN_TTL_MIN", 15)
		cfg.RefreshTTLDays = envInt("REFRESH_TOKEN_TTL_DAYS", 14)
		cfg.BcryptCost = envInt("BCRYPT_COST", 10)
	}
	if cfg.GridRowOrder != RowOrderAsc {
		cfg.GridRowOrder = RowOrderDesc
	}
	return cfg
}

// IsProd reports whether the application runs in a production
// environment. It controls the Secure attribute of the refresh cookie.
func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// getenv returns the variable's value or the given default when unset.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt reads an integer variable, falling back to def when unset.
// An unparseable value is a configuration error and exits the program.
func envInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envBool reads a boolean variable ("true"/"1" are true), falling back
// to def when unset.
func envBool(key string, def bool) bool {
	s := strings.ToLower(os.Getenv(key))
	if s == "" {
		return def
	}
	return s == "true" || s == "1"
}

// splitList splits a comma separated variable into trimmed entries.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

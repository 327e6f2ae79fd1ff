package database

import (
	"context"
	"database/sql"
)

// schema holds one CREATE TABLE statement per entity. Uniqueness and
// referential integrity live here rather than in handler code: seat
// codes are unique per palco, a person can hold at most one seat
// (unique assigned_person_id; NULLs are exempt), and deleting a person
// detaches any seat still pointing at them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(190) NOT NULL,
		name VARCHAR(190) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'user',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		jti VARCHAR(64) NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		replaced_by VARCHAR(64) NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_tokens_jti (jti),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS palcos (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(32) NOT NULL,
		name VARCHAR(100) NOT NULL,
		priority ENUM('alta','media','baja') NULL,
		visual_order INT NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_palcos_code (code)
	)`,
	`CREATE TABLE IF NOT EXISTS person (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		doc VARCHAR(120) NULL,
		org VARCHAR(120) NULL,
		cargo VARCHAR(120) NULL,
		seat_code VARCHAR(10) NULL,
		present BOOLEAN NOT NULL DEFAULT FALSE,
		present_at DATETIME NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS palco_seats (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		palco_id BIGINT UNSIGNED NOT NULL,
		row_letter VARCHAR(5) NOT NULL,
		seat_number INT UNSIGNED NOT NULL,
		seat_code VARCHAR(10) NOT NULL,
		assigned_person_id BIGINT UNSIGNED NULL,
		present BOOLEAN NOT NULL DEFAULT FALSE,
		present_at DATETIME NULL,
		UNIQUE KEY uq_palco_seats_code (palco_id, seat_code),
		UNIQUE KEY uq_palco_seats_person (assigned_person_id),
		CONSTRAINT fk_palco_seats_palco FOREIGN KEY (palco_id) REFERENCES palcos(id) ON DELETE CASCADE,
		CONSTRAINT fk_palco_seats_person FOREIGN KEY (assigned_person_id) REFERENCES person(id) ON DELETE SET NULL
	)`,
}

// Bootstrap creates missing tables. It is idempotent and runs once at
// startup before seeding.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

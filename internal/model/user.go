package model

import "time"

// User is an operator account able to authenticate against the API.
// PasswordHash is a bcrypt digest and never serialized.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models a row in the refresh_tokens table. Rows are
// append-only: the only mutation ever applied is setting RevokedAt and
// ReplacedBy when the token is rotated or revoked. The raw token handed
// to the client is a signed JWT carrying the JTI; only the JTI is stored.
//
// Fields:
//  ID         – primary key identifier.
//  JTI        – unique random token id embedded in the refresh JWT.
//  UserID     – owner of the token.
//  ExpiresAt  – hard expiry; the token is never accepted after this.
//  RevokedAt  – when the token was rotated or revoked (nil if active).
//  ReplacedBy – JTI of the successor token, recorded on rotation.
type RefreshToken struct {
	ID         uint64     `json:"id"`
	JTI        string     `json:"jti"`
	UserID     uint64     `json:"user_id"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
	ReplacedBy *string    `json:"replaced_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

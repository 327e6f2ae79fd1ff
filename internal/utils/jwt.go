package utils // package utils provides helpers for token creation and verification

import (
	"crypto/rand"  // secure random bytes for token ids
	"encoding/hex" // hex encoding of the random token id
	"errors"       // sentinel for invalid tokens
	"fmt"          // formatting of claim parse failures
	"strconv"      // parsing string-encoded subjects
	"time"         // expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken is returned when a token fails signature verification,
// is expired, or carries malformed claims. Callers treat every variant
// the same way (reject), so the parse helpers collapse them into one
// sentinel.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed short-lived JWT handed to the client in the
// response body and presented back as an Authorization bearer.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// AccessClaims is the decoded payload of a verified access token.
type AccessClaims struct {
	UserID uint64
	Email  string
	Name   string
	Role   string
}

// NewAccessToken builds and signs an HS256 JWT for a user. Claims:
// subject (sub), email, name, role, expiration (exp) and issued at (iat).
func NewAccessToken(secret string, userID uint64, email, name, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"name":  name,
		"role":  role,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccess verifies an access token and returns its claims. Any
// failure (signature, expiry, claim shape) yields ErrInvalidToken.
func ParseAccess(secret, raw string) (AccessClaims, error) {
	claims, err := parseHS256(secret, raw)
	if err != nil {
		return AccessClaims{}, err
	}
	uid, err := subjectID(claims)
	if err != nil {
		return AccessClaims{}, err
	}
	out := AccessClaims{UserID: uid}
	out.Email, _ = claims["email"].(string)
	out.Name, _ = claims["name"].(string)
	out.Role, _ = claims["role"].(string)
	return out, nil
}

// RefreshToken is a signed long-lived JWT delivered only via the rt
// cookie. The embedded JTI is the server-side identity of the token;
// the database row keyed by it decides whether the token is still live.
type RefreshToken struct {
	Token string    // the serialized JWT string
	JTI   string    // random token id persisted server-side
	Exp   time.Time // UTC expiration time
}

// NewRefreshToken signs a refresh JWT carrying the subject and the given
// JTI with a TTL in days.
func NewRefreshToken(secret string, userID uint64, jti string, ttlDays int) (RefreshToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": jti,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Token: signed, JTI: jti, Exp: exp}, nil
}

// ParseRefresh verifies a refresh token and returns the subject user id
// and the JTI. The JTI must still be validated against the store.
func ParseRefresh(secret, raw string) (userID uint64, jti string, err error) {
	claims, err := parseHS256(secret, raw)
	if err != nil {
		return 0, "", err
	}
	uid, err := subjectID(claims)
	if err != nil {
		return 0, "", err
	}
	j, ok := claims["jti"].(string)
	if !ok || j == "" {
		return 0, "", ErrInvalidToken
	}
	return uid, j, nil
}

// NewJTI returns a 64-character random hex token id.
func NewJTI() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jti: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// parseHS256 verifies an HMAC-signed token and returns its claim map.
func parseHS256(secret, raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with a different algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// subjectID extracts the sub claim. Numeric claims decode as float64;
// some issuers encode the subject as a string.
func subjectID(claims jwt.MapClaims) (uint64, error) {
	switch v := claims["sub"].(type) {
	case float64:
		return uint64(v), nil
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, ErrInvalidToken
		}
		return n, nil
	}
	return 0, ErrInvalidToken
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/acmevents/palco-checkin/internal/config"
	"github.com/acmevents/palco-checkin/internal/model"
	"github.com/acmevents/palco-checkin/internal/repository"
	"github.com/acmevents/palco-checkin/internal/utils"
)

// Refresh tokens travel only in this HTTP-only cookie, scoped to the
// auth prefix so it is never sent along with regular API calls.
const (
	refreshCookieName = "rt"
	refreshCookiePath = "/api/auth"
)

// UserStore is the user lookup surface needed by the auth endpoints.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore persists refresh tokens by JTI. Rotate must atomically
// retire the old token and record its successor; a rotated or revoked
// JTI must never validate again.
type TokenStore interface {
	Store(ctx context.Context, jti string, userID uint64, exp time.Time) error
	Rotate(ctx context.Context, oldJTI, newJTI string, exp time.Time) (uint64, error)
	Revoke(ctx context.Context, jti string) error
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, users UserStore, tokens TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type authResp struct {
	AccessToken string   `json:"access_token"`
	User        userPart `json:"user"`
}

// Login verifies credentials and issues an access token in the body and
// a refresh token in the rt cookie. Unknown email and wrong password
// produce the same response so the endpoint does not leak which emails
// exist.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	return h.issuePair(c, ctx, u)
}

// Refresh rotates the presented refresh token and issues a new pair.
// The old token is retired inside the rotation; replaying it afterwards
// always fails, which is what makes a stolen-and-reused token visible.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing refresh cookie"})
	}
	_, jti, err := utils.ParseRefresh(h.Cfg.JWTRefreshSecret, cookie.Value)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token invalid"})
	}

	newJTI, err := utils.NewJTI()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	exp := time.Now().UTC().Add(time.Duration(h.Cfg.RefreshTTLDays) * 24 * time.Hour)
	userID, err := h.Tokens.Rotate(ctx, jti, newJTI, exp)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token invalid"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rotate failed"})
	}

	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token invalid"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	refresh, err := utils.NewRefreshToken(h.Cfg.JWTRefreshSecret, u.ID, newJTI, h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTAccessSecret, u.ID, u.Email, u.Name, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	h.setRefreshCookie(c, refresh)
	return c.JSON(http.StatusOK, authResp{
		AccessToken: access.Token,
		User:        userPart{ID: u.ID, Email: u.Email, Name: u.Name},
	})
}

// Logout revokes the presented refresh token, best effort. The cookie
// is cleared no matter what; a broken token must not keep a client
// logged in.
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		if _, jti, err := utils.ParseRefresh(h.Cfg.JWTRefreshSecret, cookie.Value); err == nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
			defer cancel()
			_ = h.Tokens.Revoke(ctx, jti)
		}
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Me resolves the bearer access token to the user's minimal profile.
func (h *AuthHandler) Me(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing access token"})
	}
	claims, err := utils.ParseAccess(h.Cfg.JWTAccessSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	u, err := h.Users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, userPart{ID: u.ID, Email: u.Email, Name: u.Name})
}

// issuePair creates and persists a fresh refresh token, signs the access
// token and writes both to the response.
func (h *AuthHandler) issuePair(c echo.Context, ctx context.Context, u model.User) error {
	jti, err := utils.NewJTI()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTRefreshSecret, u.ID, jti, h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.Store(ctx, jti, u.ID, refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTAccessSecret, u.ID, u.Email, u.Name, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	h.setRefreshCookie(c, refresh)
	return c.JSON(http.StatusOK, authResp{
		AccessToken: access.Token,
		User:        userPart{ID: u.ID, Email: u.Email, Name: u.Name},
	})
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, t utils.RefreshToken) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    t.Token,
		Path:     refreshCookiePath,
		Domain:   h.Cfg.CookieDomain,
		MaxAge:   h.Cfg.RefreshTTLDays * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   h.Cfg.IsProd(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		Domain:   h.Cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.IsProd(),
		SameSite: http.SameSiteLaxMode,
	})
}

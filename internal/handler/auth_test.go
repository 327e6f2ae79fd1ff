package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/acmevents/palco-checkin/internal/config"
	"github.com/acmevents/palco-checkin/internal/model"
	"github.com/acmevents/palco-checkin/internal/repository"
	"github.com/acmevents/palco-checkin/internal/utils"
)

type fakeUsers struct {
	byID    map[uint64]model.User
	byEmail map[string]uint64
}

func newFakeUsers(users ...model.User) *fakeUsers {
	f := &fakeUsers{byID: map[uint64]model.User{}, byEmail: map[string]uint64{}}
	for _, u := range users {
		f.byID[u.ID] = u
		f.byEmail[u.Email] = u.ID
	}
	return f
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	id, ok := f.byEmail[email]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return f.byID[id], nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type tokenRow struct {
	userID     uint64
	exp        time.Time
	revoked    bool
	replacedBy string
}

// fakeTokens mirrors the refresh token table semantics: rotation retires
// the old JTI and a retired JTI never rotates again.
type fakeTokens struct {
	mu   sync.Mutex
	rows map[string]*tokenRow
}

func newFakeTokens() *fakeTokens { return &fakeTokens{rows: map[string]*tokenRow{}} }

func (f *fakeTokens) Store(ctx context.Context, jti string, userID uint64, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[jti] = &tokenRow{userID: userID, exp: exp}
	return nil
}

func (f *fakeTokens) Rotate(ctx context.Context, oldJTI, newJTI string, exp time.Time) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[oldJTI]
	if !ok || row.revoked || time.Now().After(row.exp) {
		return 0, repository.ErrNotFound
	}
	row.revoked = true
	row.replacedBy = newJTI
	f.rows[newJTI] = &tokenRow{userID: row.userID, exp: exp}
	return row.userID, nil
}

func (f *fakeTokens) Revoke(ctx context.Context, jti string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[jti]; ok {
		row.revoked = true
	}
	return nil
}

func testAuthConfig() config.Config {
	return config.Config{
		Env:              "dev",
		JWTAccessSecret:  "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessTTLMin:     15,
		RefreshTTLDays:   14,
	}
}

func newTestAuthHandler(t *testing.T) (*AuthHandler, *fakeTokens) {
	t.Helper()
	hash, err := utils.HashPassword("Demo1234!", 10)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	users := newFakeUsers(model.User{
		ID:           1,
		Email:        "demo@acme.test",
		Name:         "Demo User",
		PasswordHash: hash,
		Role:         "admin",
	})
	tokens := newFakeTokens()
	return NewAuthHandler(testAuthConfig(), users, tokens), tokens
}

func doJSON(h echo.HandlerFunc, method, target, body string, mod func(*http.Request)) *httptest.ResponseRecorder {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if mod != nil {
		mod(req)
	}
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "rt" {
			return c
		}
	}
	return nil
}

func TestLoginSuccess(t *testing.T) {
	h, _ := newTestAuthHandler(t)
	rec := doJSON(h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"demo@acme.test","password":"Demo1234!"}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("no access token in body")
	}
	if resp.User.ID != 1 || resp.User.Email != "demo@acme.test" {
		t.Errorf("user = %+v", resp.User)
	}
	claims, err := utils.ParseAccess("access-secret", resp.AccessToken)
	if err != nil || claims.UserID != 1 || claims.Role != "admin" {
		t.Errorf("access claims = %+v, err = %v", claims, err)
	}

	c := refreshCookie(t, rec)
	if c == nil {
		t.Fatal("no rt cookie set")
	}
	if !c.HttpOnly {
		t.Error("rt cookie not HttpOnly")
	}
	if c.Path != "/api/auth" {
		t.Errorf("rt cookie path = %q, want /api/auth", c.Path)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("rt cookie SameSite = %v, want Lax", c.SameSite)
	}
	if c.Secure {
		t.Error("rt cookie Secure in dev env")
	}
	if _, _, err := utils.ParseRefresh("refresh-secret", c.Value); err != nil {
		t.Errorf("rt cookie does not hold a valid refresh token: %v", err)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	h, _ := newTestAuthHandler(t)
	cases := []struct {
		name string
		body string
	}{
		{"wrong password", `{"email":"demo@acme.test","password":"nope"}`},
		{"unknown email", `{"email":"ghost@acme.test","password":"Demo1234!"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(h.Login, http.MethodPost, "/api/auth/login", tc.body, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "invalid credentials") {
				t.Errorf("body = %s, want the uniform rejection", rec.Body.String())
			}
			if refreshCookie(t, rec) != nil {
				t.Error("rt cookie set on failed login")
			}
		})
	}
}

func TestLoginMissingFields(t *testing.T) {
	h, _ := newTestAuthHandler(t)
	rec := doJSON(h.Login, http.MethodPost, "/api/auth/login", `{"email":"demo@acme.test"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	h, tokens := newTestAuthHandler(t)
	login := doJSON(h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"demo@acme.test","password":"Demo1234!"}`, nil)
	old := refreshCookie(t, login)
	if old == nil {
		t.Fatal("login set no rt cookie")
	}
	_, oldJTI, err := utils.ParseRefresh("refresh-secret", old.Value)
	if err != nil {
		t.Fatalf("parse login refresh: %v", err)
	}

	withCookie := func(c *http.Cookie) func(*http.Request) {
		return func(r *http.Request) { r.AddCookie(c) }
	}

	rec := doJSON(h.Refresh, http.MethodPost, "/api/auth/refresh", "", withCookie(old))
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode refresh body: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("refresh returned no access token")
	}
	fresh := refreshCookie(t, rec)
	if fresh == nil {
		t.Fatal("refresh set no rt cookie")
	}
	_, freshJTI, err := utils.ParseRefresh("refresh-secret", fresh.Value)
	if err != nil {
		t.Fatalf("parse rotated refresh: %v", err)
	}
	if freshJTI == oldJTI {
		t.Error("rotation kept the same jti")
	}

	tokens.mu.Lock()
	row := tokens.rows[oldJTI]
	tokens.mu.Unlock()
	if row == nil || !row.revoked || row.replacedBy != freshJTI {
		t.Errorf("old token row = %+v, want revoked and replaced by %q", row, freshJTI)
	}

	// Replaying the retired cookie must fail.
	replay := doJSON(h.Refresh, http.MethodPost, "/api/auth/refresh", "", withCookie(old))
	if replay.Code != http.StatusUnauthorized {
		t.Errorf("replay status = %d, want 401", replay.Code)
	}

	// The rotated cookie keeps working.
	again := doJSON(h.Refresh, http.MethodPost, "/api/auth/refresh", "", withCookie(fresh))
	if again.Code != http.StatusOK {
		t.Errorf("second rotation status = %d, body = %s", again.Code, again.Body.String())
	}
}

func TestRefreshWithoutCookie(t *testing.T) {
	h, _ := newTestAuthHandler(t)
	rec := doJSON(h.Refresh, http.MethodPost, "/api/auth/refresh", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRefreshWithForgedCookie(t *testing.T) {
	h, _ := newTestAuthHandler(t)
	forged, err := utils.NewRefreshToken("wrong-secret", 1, "aaaa", 14)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	rec := doJSON(h.Refresh, http.MethodPost, "/api/auth/refresh", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "rt", Value: forged.Token})
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRefreshUnknownJTI(t *testing.T) {
	// Validly signed but never stored: the database row is the authority.
	h, _ := newTestAuthHandler(t)
	stray, err := utils.NewRefreshToken("refresh-secret", 1, "deadbeef", 14)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	rec := doJSON(h.Refresh, http.MethodPost, "/api/auth/refresh", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "rt", Value: stray.Token})
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	h, tokens := newTestAuthHandler(t)
	login := doJSON(h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"demo@acme.test","password":"Demo1234!"}`, nil)
	c := refreshCookie(t, login)
	if c == nil {
		t.Fatal("login set no rt cookie")
	}
	_, jti, _ := utils.ParseRefresh("refresh-secret", c.Value)

	rec := doJSON(h.Logout, http.MethodPost, "/api/auth/logout", "", func(r *http.Request) {
		r.AddCookie(c)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	cleared := refreshCookie(t, rec)
	if cleared == nil || cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Errorf("cookie not cleared: %+v", cleared)
	}
	tokens.mu.Lock()
	revoked := tokens.rows[jti].revoked
	tokens.mu.Unlock()
	if !revoked {
		t.Error("refresh token not revoked on logout")
	}

	// Logout without a cookie still succeeds and clears.
	rec = doJSON(h.Logout, http.MethodPost, "/api/auth/logout", "", nil)
	if rec.Code != http.StatusOK || refreshCookie(t, rec) == nil {
		t.Errorf("cookieless logout: status = %d", rec.Code)
	}
}

func TestMe(t *testing.T) {
	h, _ := newTestAuthHandler(t)
	access, err := utils.NewAccessToken("access-secret", 1, "demo@acme.test", "Demo User", "admin", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	rec := doJSON(h.Me, http.MethodGet, "/api/auth/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+access.Token)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var u userPart
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.ID != 1 || u.Email != "demo@acme.test" || u.Name != "Demo User" {
		t.Errorf("profile = %+v", u)
	}

	rec = doJSON(h.Me, http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}

	ghost, _ := utils.NewAccessToken("access-secret", 99, "x@y.z", "X", "user", 15)
	rec = doJSON(h.Me, http.MethodGet, "/api/auth/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+ghost.Token)
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted user status = %d, want 404", rec.Code)
	}
}

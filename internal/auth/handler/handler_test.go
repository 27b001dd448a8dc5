package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"govinda/internal/auth/models"
	"govinda/internal/auth/service"
	"govinda/internal/auth/store/revocation"
	"govinda/internal/auth/store/user"
	"govinda/internal/auth/token"
	"govinda/internal/platform/middleware"
	id "govinda/pkg/domain"
)

var handlerNow = time.Now().UTC()

type fixture struct {
	router http.Handler
	tenant id.TenantID
}

// newFixture wires the auth stack the way the real router does: a public
// login route plus an authenticated group guarded by the token middleware.
func newFixture(t *testing.T) fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := user.NewInMemory()
	tokens := token.NewService("test-signing-key", time.Hour)
	revoked := revocation.NewInMemory()
	svc := service.New(users, tokens, revoked, service.WithLogger(logger))

	tenant := id.NewTenantID()
	admin, err := models.NewUser(models.NewUserParams{
		TenantID: tenant,
		Email:    "admin@example.ch",
		Password: "admin-pass-123",
		Role:     models.RoleAdmin,
	}, handlerNow)
	if err != nil {
		t.Fatalf("build admin: %v", err)
	}
	if err := users.Create(t.Context(), admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	h := New(svc, logger)
	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, revoked, logger))
		h.Register(r)
		h.RegisterUsers(r)
	})
	return fixture{router: r, tenant: tenant}
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, f fixture, email, password string) loginResponse {
	t.Helper()
	rec := doJSON(t, f.router, http.MethodPost, "/auth/login", "", map[string]string{
		"tenant_id": f.tenant.String(),
		"email":     email,
		"password":  password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 logging in, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp
}

func TestLoginEndpoint(t *testing.T) {
	f := newFixture(t)

	resp := login(t, f, "admin@example.ch", "admin-pass-123")
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.User.Role != "ADMIN" {
		t.Fatalf("expected ADMIN, got %s", resp.User.Role)
	}

	rec := doJSON(t, f.router, http.MethodPost, "/auth/login", "", map[string]string{
		"tenant_id": f.tenant.String(),
		"email":     "admin@example.ch",
		"password":  "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestRegisterUserRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	adminSession := login(t, f, "admin@example.ch", "admin-pass-123")

	rec := doJSON(t, f.router, http.MethodPost, "/users", adminSession.Token, map[string]string{
		"email":    "clerk@example.ch",
		"password": "clerk-pass-123",
		"role":     "CLERK",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering clerk, got %d: %s", rec.Code, rec.Body.String())
	}

	clerkSession := login(t, f, "clerk@example.ch", "clerk-pass-123")
	rec = doJSON(t, f.router, http.MethodPost, "/users", clerkSession.Token, map[string]string{
		"email":    "another@example.ch",
		"password": "long-enough-pass",
		"role":     "READONLY",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for clerk registering users, got %d", rec.Code)
	}

	rec = doJSON(t, f.router, http.MethodPost, "/users", "", map[string]string{
		"email":    "another@example.ch",
		"password": "long-enough-pass",
		"role":     "READONLY",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	session := login(t, f, "admin@example.ch", "admin-pass-123")

	rec := doJSON(t, f.router, http.MethodPost, "/auth/logout", session.Token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 logging out, got %d: %s", rec.Code, rec.Body.String())
	}

	// The revoked token no longer passes the middleware.
	rec = doJSON(t, f.router, http.MethodPost, "/auth/logout", session.Token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked token, got %d", rec.Code)
	}
}

func TestGetUserEndpoint(t *testing.T) {
	f := newFixture(t)
	session := login(t, f, "admin@example.ch", "admin-pass-123")

	rec := doJSON(t, f.router, http.MethodGet, "/users/"+session.User.ID, session.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching user, got %d", rec.Code)
	}
	var resp userResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if resp.Email != "admin@example.ch" {
		t.Fatalf("expected admin email, got %s", resp.Email)
	}
}

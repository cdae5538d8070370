package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"expense-platform/internal/domain"
)

func TestMeResolvesSession(t *testing.T) {
	app := newTestApp(t)
	app.users.addUser(t, "alice", "pass1234", domain.RoleEmployee)
	token := app.login(t, "alice", "pass1234")

	rec := app.doJSON(t, http.MethodGet, "/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Username != "alice" || resp.Role != domain.RoleEmployee {
		t.Fatalf("unexpected identity %+v", resp)
	}
}

func TestMeWithoutToken(t *testing.T) {
	app := newTestApp(t)

	rec := app.doJSON(t, http.MethodGet, "/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	app := newTestApp(t)
	app.users.addUser(t, "alice", "pass1234", domain.RoleEmployee)
	token := app.login(t, "alice", "pass1234")

	rec := app.doJSON(t, http.MethodPost, "/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
	rec = app.doJSON(t, http.MethodGet, "/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to fail /me, got %d", rec.Code)
	}

	// Logout sin token o con token desconocido sigue siendo 200.
	rec = app.doJSON(t, http.MethodPost, "/logout", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous logout: expected 200, got %d", rec.Code)
	}
	rec = app.doJSON(t, http.MethodPost, "/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeated logout: expected 200, got %d", rec.Code)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	app := newTestApp(t)
	app.users.addUser(t, "alice", "pass1234", domain.RoleEmployee)

	rec := app.doJSON(t, http.MethodPost, "/login", "", map[string]string{
		"username": "alice",
		"password": "wrongpass",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = app.doJSON(t, http.MethodPost, "/login", "", map[string]string{"username": "alice"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", rec.Code)
	}
}

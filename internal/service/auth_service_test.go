package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"expense-platform/internal/domain"
	"expense-platform/internal/repository"
)

type mockUserRepo struct {
	users map[string]domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if _, ok := m.users[user.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	user, ok := m.users[username]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func newTestAuthService(repo *mockUserRepo) *AuthService {
	return NewAuthService(zap.NewNop(), repo, NewMemorySessionStore(), 24*time.Hour)
}

func TestAuthServiceSignup(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestAuthService(repo)

	user, err := svc.Signup(context.Background(), "alice", "pass1234")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Role != domain.RoleEmployee {
		t.Fatalf("expected employee role, got %q", user.Role)
	}
	if user.PasswordHash == "pass1234" {
		t.Fatal("verifier stored as plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass1234")); err != nil {
		t.Fatalf("verifier does not authenticate original password: %v", err)
	}
}

func TestAuthServiceSignupRejectsBadInput(t *testing.T) {
	svc := newTestAuthService(newMockUserRepo())

	if _, err := svc.Signup(context.Background(), "", "pass1234"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := svc.Signup(context.Background(), "alice", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := svc.Signup(context.Background(), "alice", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestAuthServiceSignupDuplicate(t *testing.T) {
	svc := newTestAuthService(newMockUserRepo())

	if _, err := svc.Signup(context.Background(), "alice", "pass1234"); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := svc.Signup(context.Background(), "alice", "other5678"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthServiceLoginAndAuthenticate(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestAuthService(repo)

	if _, err := svc.Signup(context.Background(), "alice", "pass1234"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	user, session, err := svc.Login(context.Background(), "alice", "pass1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token == "" {
		t.Fatal("empty session token")
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user %+v", user)
	}

	resolved, err := svc.Authenticate(context.Background(), "Bearer "+session.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if resolved.Username != "alice" || resolved.Role != domain.RoleEmployee {
		t.Fatalf("unexpected identity %+v", resolved)
	}

	// El prefijo Bearer es opcional.
	if _, err := svc.Authenticate(context.Background(), session.Token); err != nil {
		t.Fatalf("authenticate without prefix: %v", err)
	}
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(newMockUserRepo())

	if _, err := svc.Signup(context.Background(), "alice", "pass1234"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "alice", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody", "pass1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthServiceConcurrentSessions(t *testing.T) {
	svc := newTestAuthService(newMockUserRepo())

	if _, err := svc.Signup(context.Background(), "alice", "pass1234"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, first, err := svc.Login(context.Background(), "alice", "pass1234")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	_, second, err := svc.Login(context.Background(), "alice", "pass1234")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("logins reused the same token")
	}

	// Ambas sesiones siguen siendo validas en paralelo.
	if _, err := svc.Authenticate(context.Background(), first.Token); err != nil {
		t.Fatalf("first session: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), second.Token); err != nil {
		t.Fatalf("second session: %v", err)
	}
}

func TestAuthServiceAuthenticateErrors(t *testing.T) {
	repo := newMockUserRepo()
	store := NewMemorySessionStore()
	svc := NewAuthService(zap.NewNop(), repo, store, 24*time.Hour)

	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "Bearer "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken for blank token, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "Bearer unknown"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// Sesion vencida: ya no resuelve.
	expired := domain.Session{Token: "old", Username: "alice", ExpiresAt: time.Now().UTC().Add(-time.Minute)}
	if err := store.Put(expired); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "Bearer old"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired session, got %v", err)
	}

	// Sesion valida apuntando a identidad inexistente: anomalia propia.
	orphan := domain.Session{Token: "orphan", Username: "ghost", ExpiresAt: time.Now().UTC().Add(time.Hour)}
	if err := store.Put(orphan); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "Bearer orphan"); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestAuthServiceLogoutIdempotent(t *testing.T) {
	svc := newTestAuthService(newMockUserRepo())

	if _, err := svc.Signup(context.Background(), "alice", "pass1234"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, session, err := svc.Login(context.Background(), "alice", "pass1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout("Bearer " + session.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), session.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token to be invalid, got %v", err)
	}

	// Repetir logout, o hacerlo sin token, sigue siendo exito.
	if err := svc.Logout("Bearer " + session.Token); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if err := svc.Logout(""); err != nil {
		t.Fatalf("empty logout: %v", err)
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"expense-platform/internal/domain"
	"expense-platform/internal/repository"
)

var (
	ErrMissingFields      = errors.New("username and password required")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrIdentityNotFound   = errors.New("user not found for token")
	ErrForbidden          = errors.New("forbidden")
)

const minPasswordLength = 8

// AuthService coordina registro, emision de sesiones y el gate de
// autenticacion por bearer token.
type AuthService struct {
	logger     *zap.Logger
	users      repository.UserRepository
	sessions   SessionStore
	sessionTTL time.Duration
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository, sessions SessionStore, sessionTTL time.Duration) *AuthService {
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		logger:     logger,
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

// Signup registra un empleado nuevo con el password hasheado con bcrypt.
func (s *AuthService) Signup(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, ErrMissingFields
	}
	if len(password) < minPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return domain.User{}, ErrUsernameTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleEmployee,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}
	return user, nil
}

// Login verifica credenciales y emite una sesion nueva. Cada login emite
// su propio token; sesiones concurrentes del mismo usuario son validas.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.User, domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, domain.Session{}, ErrMissingFields
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.Session{}, ErrInvalidCredentials
		}
		return domain.User{}, domain.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.Session{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	session := domain.Session{
		Token:     uuid.NewString(),
		Username:  user.Username,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Put(session); err != nil {
		return domain.User{}, domain.Session{}, err
	}
	return user, session, nil
}

// Logout revoca la sesion del header recibido. Es idempotente: token
// ausente o desconocido no es un error.
func (s *AuthService) Logout(header string) error {
	token := stripBearer(header)
	if token == "" {
		return nil
	}
	return s.sessions.Delete(token)
}

// Authenticate resuelve un header Authorization a una identidad activa.
// Una sesion valida que apunta a una identidad inexistente se reporta
// como anomalia, no como exito silencioso.
func (s *AuthService) Authenticate(ctx context.Context, header string) (domain.User, error) {
	token := stripBearer(header)
	if token == "" {
		return domain.User{}, ErrMissingToken
	}

	session, ok, err := s.sessions.Get(token)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, ErrInvalidToken
	}

	user, err := s.users.GetByUsername(ctx, session.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("session references unknown identity", zap.String("username", session.Username))
			return domain.User{}, ErrIdentityNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func stripBearer(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= len("bearer ") && strings.EqualFold(header[:len("bearer ")], "bearer ") {
		header = header[len("bearer "):]
	}
	return strings.TrimSpace(header)
}

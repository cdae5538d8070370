package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"expense-platform/internal/domain"
)

// SessionStore guarda sesiones por token opaco y permite revocarlas.
// Put tiene semantica de upsert; Get no devuelve sesiones expiradas.
type SessionStore interface {
	Put(session domain.Session) error
	Get(token string) (domain.Session, bool, error)
	Delete(token string) error
}

type memorySessionStore struct {
	mu    sync.Mutex
	items map[string]domain.Session
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		items: make(map[string]domain.Session),
	}
}

func (s *memorySessionStore) Put(session domain.Session) error {
	if strings.TrimSpace(session.Token) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.Token] = session
	return nil
}

// Get purga perezosamente las sesiones vencidas al consultarlas.
func (s *memorySessionStore) Get(token string) (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.items[token]
	if !ok {
		return domain.Session{}, false, nil
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		delete(s.items, token)
		return domain.Session{}, false, nil
	}
	return session, true, nil
}

func (s *memorySessionStore) Delete(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
	return nil
}

type redisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStore crea un registro de sesiones respaldado en Redis,
// con expiracion nativa por TTL.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	if client == nil {
		return nil
	}
	return &redisSessionStore{
		client: client,
		prefix: "auth:session:",
	}
}

func (s *redisSessionStore) Put(session domain.Session) error {
	if strings.TrimSpace(session.Token) == "" {
		return nil
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+session.Token, payload, ttl).Err()
}

func (s *redisSessionStore) Get(token string) (domain.Session, bool, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Session{}, false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	payload, err := s.client.Get(ctx, s.prefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return domain.Session{}, false, err
	}
	return session, true, nil
}

func (s *redisSessionStore) Delete(token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.prefix+token).Err()
}

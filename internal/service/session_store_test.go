package service

import (
	"testing"
	"time"

	"expense-platform/internal/domain"
)

func TestMemorySessionStorePutGetDelete(t *testing.T) {
	store := NewMemorySessionStore()
	session := domain.Session{
		Token:     "tok-1",
		Username:  "alice",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}

	if err := store.Put(session); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := store.Get("tok-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Username != "alice" {
		t.Fatalf("unexpected session %+v", got)
	}

	if err := store.Delete("tok-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get("tok-1"); ok {
		t.Fatal("session still resolvable after delete")
	}
	// Borrar un token desconocido es un no-op.
	if err := store.Delete("tok-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestMemorySessionStoreLazyExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	session := domain.Session{
		Token:     "tok-exp",
		Username:  "alice",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	if err := store.Put(session); err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, ok, _ := store.Get("tok-exp"); ok {
		t.Fatal("expired session resolved")
	}

	// La sesion vencida se purga en el primer Get.
	mem := store.(*memorySessionStore)
	mem.mu.Lock()
	_, stillThere := mem.items["tok-exp"]
	mem.mu.Unlock()
	if stillThere {
		t.Fatal("expired session not purged")
	}
}

func TestMemorySessionStoreUpsert(t *testing.T) {
	store := NewMemorySessionStore()
	first := domain.Session{Token: "tok", Username: "alice", ExpiresAt: time.Now().UTC().Add(time.Hour)}
	second := domain.Session{Token: "tok", Username: "bob", ExpiresAt: time.Now().UTC().Add(time.Hour)}

	if err := store.Put(first); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(second); err != nil {
		t.Fatalf("re-put: %v", err)
	}
	got, ok, _ := store.Get("tok")
	if !ok || got.Username != "bob" {
		t.Fatalf("expected last write to win, got %+v ok=%v", got, ok)
	}
}

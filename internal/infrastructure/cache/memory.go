// Package cache implementa los stores clave-valor con expiración (memoria y Redis)
// usados por la caché de consultas y por la revocación de sesiones.
package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // cero = no expira
}

// MemoryStore store en proceso. Sirve para desarrollo, tests y despliegues de una sola instancia.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
	gens    map[string]int64
}

// NewMemoryStore crea un store vacío. now puede ser nil (usa time.Now).
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		now:     now,
		entries: make(map[string]memoryEntry),
		gens:    make(map[string]int64),
	}
}

// Get devuelve el valor si existe y no expiró.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set guarda value; ttl <= 0 significa sin expiración.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	s.sweepLocked()
	return nil
}

// Generation devuelve el contador actual de key (0 si nunca se incrementó).
func (s *MemoryStore) Generation(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[key], nil
}

// Bump incrementa el contador de key.
func (s *MemoryStore) Bump(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[key]++
	return s.gens[key], nil
}

// Len número de entradas guardadas (incluye expiradas aún no barridas).
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sweepLocked elimina entradas expiradas cuando el mapa crece.
func (s *MemoryStore) sweepLocked() {
	if len(s.entries) < 1024 {
		return
	}
	now := s.now()
	for k, e := range s.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Store persists sessions. Get returns ErrSessionNotFound for unknown or
// expired ids. Implementations copy on the way in and out so callers
// never share a Session value.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory with expiry.
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemoryStore returns a store whose entries expire ttl after their last
// save. A ttl <= 0 uses one hour.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryStore{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return v.(*Session).clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.cache.Set(s.ID, s.clone(), m.ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

// Count returns the number of live sessions.
func (m *MemoryStore) Count() int {
	return m.cache.ItemCount()
}

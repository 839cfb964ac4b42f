package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"circl/models"
)

// MemoryStore keeps sessions in process memory with the same field layout as RedisStore.
type MemoryStore struct {
	mu     sync.RWMutex
	hashes map[string]map[string]string
	// revoked maps token hashes to the time they stop mattering.
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes:  make(map[string]map[string]string),
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) hash(deviceID string) map[string]string {
	h, ok := s.hashes[deviceID]
	if !ok {
		h = make(map[string]string)
		s.hashes[deviceID] = h
	}
	return h
}

func (s *MemoryStore) Load(_ context.Context, deviceID string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sessionFromFields(deviceID, s.hashes[deviceID]), nil
}

func (s *MemoryStore) SaveLogin(_ context.Context, deviceID string, userID int64, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.hash(deviceID)
	h[models.SessionKeyLoggedIn] = "true"
	h[models.SessionKeyUserID] = strconv.FormatInt(userID, 10)
	h[models.SessionKeyUserTitle] = title
	return nil
}

func (s *MemoryStore) ClearUser(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.hash(deviceID)
	delete(h, models.SessionKeyUserID)
	h[models.SessionKeyLoggedIn] = "false"
	return nil
}

func (s *MemoryStore) SetTitle(_ context.Context, deviceID string, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hash(deviceID)[models.SessionKeyUserTitle] = title
	return nil
}

func (s *MemoryStore) RevokeToken(_ context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for h, until := range s.revoked {
		if !now.Before(until) {
			delete(s.revoked, h)
		}
	}
	s.revoked[tokenHash] = now.Add(ttl)
	return nil
}

func (s *MemoryStore) IsTokenRevoked(_ context.Context, tokenHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	until, ok := s.revoked[tokenHash]
	return ok && s.now().Before(until), nil
}

// Fields returns a copy of the raw stored fields for deviceID.
func (s *MemoryStore) Fields(deviceID string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.hashes[deviceID]))
	for k, v := range s.hashes[deviceID] {
		out[k] = v
	}
	return out
}

// Package devotp keeps issued OTP codes in memory so they can be read back over GET /dev/otp.
// It is only wired when OTP_RETURN_TO_CLIENT is enabled outside production.
package devotp

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store holds the latest plain OTP per (email, purpose) for dev-only retrieval. Not used in production.
type Store interface {
	// Put stores otp for (email, purpose) until expiresAt, replacing any previous code.
	Put(ctx context.Context, email, purpose, otp string, expiresAt time.Time)
	// Get returns the otp for (email, purpose) if present and not expired.
	Get(ctx context.Context, email, purpose string) (otp string, expiresAt time.Time, ok bool)
}

type storeKey struct {
	email   string
	purpose string
}

type entry struct {
	otp       string
	expiresAt time.Time
}

// MemoryStore keeps one code per (email, purpose). Expired codes are dropped on read and on every Put.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[storeKey]entry
	nowF func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[storeKey]entry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

func keyFor(email, purpose string) storeKey {
	if purpose = strings.TrimSpace(purpose); purpose == "" {
		purpose = "login"
	}
	return storeKey{email: strings.ToLower(strings.TrimSpace(email)), purpose: purpose}
}

func (s *MemoryStore) Put(_ context.Context, email, purpose, otp string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowF()
	for k, e := range s.m {
		if !e.expiresAt.After(now) {
			delete(s.m, k)
		}
	}
	s.m[keyFor(email, purpose)] = entry{otp: otp, expiresAt: expiresAt}
}

func (s *MemoryStore) Get(_ context.Context, email, purpose string) (string, time.Time, bool) {
	k := keyFor(email, purpose)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[k]
	if !ok {
		return "", time.Time{}, false
	}
	if !e.expiresAt.After(s.nowF()) {
		delete(s.m, k)
		return "", time.Time{}, false
	}
	return e.otp, e.expiresAt, true
}

// Len returns the number of stored codes, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

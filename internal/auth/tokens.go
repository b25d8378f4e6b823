// Package auth issues and validates per-client WiFi gate tokens.
//
// A token is created after a successful password check and carried in the
// client's cookie session. Tokens are process-local with a TTL, so one
// client's authentication never leaks to another and a reboot revokes
// everything.
package auth

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dustinteng/idx-flowmeter/internal/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// TokenStore holds the currently valid WiFi auth tokens with TTL-based
// expiration.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]time.Time
	ttl    time.Duration
	clock  clockwork.Clock
}

func NewTokenStore(ttl time.Duration, clock clockwork.Clock) *TokenStore {
	return &TokenStore{
		tokens: make(map[uuid.UUID]time.Time),
		ttl:    ttl,
		clock:  clock,
	}
}

// Issue creates a new token valid for the store's TTL.
func (s *TokenStore) Issue() uuid.UUID {
	token := uuid.New()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = s.clock.Now().Add(s.ttl)
	metrics.WifiSessionsActive.Set(float64(len(s.tokens)))
	return token
}

// Valid reports whether the token exists and has not expired.
func (s *TokenStore) Valid(token uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, ok := s.tokens[token]
	if !ok {
		return false
	}
	// Expired entries are left for the eviction pass (read lock only here).
	return !s.clock.Now().After(expiresAt)
}

// Revoke removes a token immediately.
func (s *TokenStore) Revoke(token uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	metrics.WifiSessionsActive.Set(float64(len(s.tokens)))
}

// EvictExpired removes all expired tokens and returns the count evicted.
func (s *TokenStore) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	evicted := 0
	for token, expiresAt := range s.tokens {
		if now.After(expiresAt) {
			delete(s.tokens, token)
			evicted++
		}
	}
	metrics.WifiSessionsActive.Set(float64(len(s.tokens)))
	return evicted
}

// StartEvictionTimer starts a background goroutine that periodically evicts
// expired tokens. Returns a stop function.
func (s *TokenStore) StartEvictionTimer(interval time.Duration) func() {
	ticker := s.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				if evicted := s.EvictExpired(); evicted > 0 {
					slog.Debug("Evicted expired WiFi tokens", "count", evicted)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}

package oauth

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/ryzeagent/adsmcp/internal/logging"
)

// Store caches validated Google tokens and user info in memory, keyed by the
// Google user id. It exists so tool handlers can reuse the Bearer token that
// authenticated the request without re-validating it per call; durable token
// persistence lives in the userstore package.
type Store struct {
	mu              sync.RWMutex
	tokens          map[string]*oauth2.Token
	userInfo        map[string]*GoogleUserInfo
	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
	logger          *slog.Logger
}

// NewStore creates an in-memory token cache with the default cleanup interval.
func NewStore() *Store {
	return NewStoreWithInterval(DefaultCleanupInterval)
}

// NewStoreWithInterval creates an in-memory token cache that drops expired
// tokens every cleanupInterval.
func NewStoreWithInterval(cleanupInterval time.Duration) *Store {
	s := &Store{
		tokens:          make(map[string]*oauth2.Token),
		userInfo:        make(map[string]*GoogleUserInfo),
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
		logger:          slog.Default(),
	}
	go s.cleanupExpiredTokens()
	return s
}

// SetLogger sets a custom logger for the store.
func (s *Store) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Close stops the background cleanup goroutine.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// SaveToken caches a validated Google token for a user.
func (s *Store) SaveToken(userID string, token *oauth2.Token) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = token
	s.logger.Debug("cached google token", logging.UserHash(userID))
	return nil
}

// Token returns the cached token for a user, or an error when absent or
// expired.
func (s *Store) Token(userID string) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[userID]
	if !ok {
		return nil, fmt.Errorf("no cached token for user")
	}
	if !token.Expiry.IsZero() && token.Expiry.Before(time.Now()) {
		return nil, fmt.Errorf("cached token expired")
	}
	return token, nil
}

// DeleteToken removes a user's cached token and user info.
func (s *Store) DeleteToken(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	delete(s.userInfo, userID)
	s.logger.Info("dropped cached token", logging.UserHash(userID))
}

// SaveUserInfo caches validated user info.
func (s *Store) SaveUserInfo(userID string, info *GoogleUserInfo) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if info == nil {
		return fmt.Errorf("user info cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.userInfo[userID] = info
	return nil
}

// UserInfo returns cached user info for a user.
func (s *Store) UserInfo(userID string) (*GoogleUserInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.userInfo[userID]
	return info, ok
}

// Stats returns entry counts, used by the health endpoints.
func (s *Store) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"tokens":    len(s.tokens),
		"user_info": len(s.userInfo),
	}
}

// cleanupExpiredTokens periodically removes expired tokens. Expiry is
// re-checked under the write lock: a token may have been replaced between
// the scan and the delete.
func (s *Store) cleanupExpiredTokens() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		s.mu.RLock()
		now := time.Now()
		var expired []string
		for userID, token := range s.tokens {
			if !token.Expiry.IsZero() && token.Expiry.Before(now) {
				expired = append(expired, userID)
			}
		}
		s.mu.RUnlock()

		if len(expired) == 0 {
			continue
		}

		s.mu.Lock()
		now = time.Now()
		for _, userID := range expired {
			if token, ok := s.tokens[userID]; ok && !token.Expiry.IsZero() && token.Expiry.Before(now) {
				delete(s.tokens, userID)
				delete(s.userInfo, userID)
				s.logger.Debug("cleaned up expired token", logging.UserHash(userID))
			}
		}
		s.mu.Unlock()
	}
}

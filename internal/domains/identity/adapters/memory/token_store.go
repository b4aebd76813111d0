package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hcustod/inventory-management-system/internal/domains/identity/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/identity/ports"
)

var _ ports.TokenStore = (*TokenStore)(nil)

type tokenEntry struct {
	principal domain.Principal
	expiresAt time.Time
}

// TokenStore is an in-memory TokenStore implementation.
type TokenStore struct {
	tokens sync.Map
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenStore keeps tokens for ttl. A non-positive ttl keeps them until deleted.
func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{ttl: ttl, now: time.Now}
}

func (s *TokenStore) Save(_ context.Context, token string, principal domain.Principal) error {
	token = strings.TrimSpace(token)
	if token == "" || strings.TrimSpace(principal.Subject) == "" {
		return errors.New("token and subject are required")
	}
	entry := tokenEntry{principal: principal}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	entry.principal.Roles = append([]domain.Role(nil), principal.Roles...)
	s.tokens.Store(token, entry)
	return nil
}

func (s *TokenStore) Lookup(_ context.Context, token string) (*domain.Principal, error) {
	value, ok := s.tokens.Load(strings.TrimSpace(token))
	if !ok {
		return nil, ports.ErrTokenNotFound
	}
	entry := value.(tokenEntry)
	if s.expired(entry) {
		return nil, ports.ErrTokenNotFound
	}
	principal := entry.principal
	principal.Roles = append([]domain.Role(nil), entry.principal.Roles...)
	return &principal, nil
}

func (s *TokenStore) Delete(_ context.Context, token string) error {
	s.tokens.Delete(strings.TrimSpace(token))
	return nil
}

func (s *TokenStore) PurgeExpired(_ context.Context) (int64, error) {
	var purged int64
	s.tokens.Range(func(key, value any) bool {
		if s.expired(value.(tokenEntry)) {
			s.tokens.Delete(key)
			purged++
		}
		return true
	})
	return purged, nil
}

func (s *TokenStore) expired(entry tokenEntry) bool {
	return !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt)
}

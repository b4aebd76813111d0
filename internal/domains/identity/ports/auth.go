package ports

import (
	"context"
	"errors"

	"github.com/hcustod/inventory-management-system/internal/domains/identity/domain"
)

var (
	// ErrUnauthenticated signals a credential that no authenticator accepted.
	ErrUnauthenticated = errors.New("invalid or expired credentials")
	// ErrTokenNotFound signals an API token the store does not know or that expired.
	ErrTokenNotFound = errors.New("api token not found")
)

// Authenticator turns a bearer credential into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*domain.Principal, error)
}

// TokenStore persists opaque API tokens.
type TokenStore interface {
	Save(ctx context.Context, token string, principal domain.Principal) error
	Lookup(ctx context.Context, token string) (*domain.Principal, error)
	Delete(ctx context.Context, token string) error
	// PurgeExpired removes expired tokens and reports how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
}

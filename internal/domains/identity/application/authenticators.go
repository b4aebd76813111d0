package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hcustod/inventory-management-system/internal/domains/identity/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/identity/ports"
)

// TokenAuthenticator resolves opaque API tokens through a token store.
type TokenAuthenticator struct {
	store ports.TokenStore
}

func NewTokenAuthenticator(store ports.TokenStore) *TokenAuthenticator {
	return &TokenAuthenticator{store: store}
}

func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	principal, err := a.store.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, ports.ErrTokenNotFound) {
			return nil, ports.ErrUnauthenticated
		}
		return nil, err
	}
	return principal, nil
}

// Chain tries each authenticator in order and returns the first principal. Only
// ErrUnauthenticated moves on to the next authenticator.
type Chain []ports.Authenticator

func (c Chain) Authenticate(ctx context.Context, credential string) (*domain.Principal, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ports.ErrUnauthenticated
	}
	for _, auth := range c {
		if auth == nil {
			continue
		}
		principal, err := auth.Authenticate(ctx, credential)
		if err == nil {
			return principal, nil
		}
		if !errors.Is(err, ports.ErrUnauthenticated) {
			return nil, err
		}
	}
	return nil, ports.ErrUnauthenticated
}

// TokenGrant is one statically configured API token.
type TokenGrant struct {
	Token     string
	Principal domain.Principal
}

// ParseTokenGrants reads entries of the form token:role[:subject] separated by commas.
// Roles inside an entry are separated by '|'. The subject defaults to the first role.
func ParseTokenGrants(raw string) ([]TokenGrant, error) {
	var grants []TokenGrant
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("api token entry %q must look like token:role[:subject]", redact(parts[0]))
		}
		var roles []domain.Role
		for _, name := range strings.Split(parts[1], "|") {
			role, err := domain.ParseRole(name)
			if err != nil {
				return nil, fmt.Errorf("api token entry %q: %w %q", redact(parts[0]), err, name)
			}
			roles = append(roles, role)
		}
		subject := string(roles[0])
		if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
			subject = parts[2]
		}
		principal, err := domain.NewPrincipal(subject, subject, "", roles)
		if err != nil {
			return nil, err
		}
		grants = append(grants, TokenGrant{Token: strings.TrimSpace(parts[0]), Principal: *principal})
	}
	return grants, nil
}

// SeedTokens stores every grant, refreshing tokens that already exist.
func SeedTokens(ctx context.Context, store ports.TokenStore, grants []TokenGrant) error {
	for _, grant := range grants {
		if err := store.Save(ctx, grant.Token, grant.Principal); err != nil {
			return fmt.Errorf("seed api token for %s: %w", grant.Principal.Subject, err)
		}
	}
	return nil
}

func redact(token string) string {
	token = strings.TrimSpace(token)
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}

var (
	_ ports.Authenticator = (*TokenAuthenticator)(nil)
	_ ports.Authenticator = Chain(nil)
)

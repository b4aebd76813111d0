// Package oidc authenticates bearer ID tokens issued by an OpenID Connect provider.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	"github.com/hcustod/inventory-management-system/internal/domains/identity/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/identity/ports"
)

// DefaultRolesClaim is read when no roles claim is configured.
const DefaultRolesClaim = "roles"

// Verifier is satisfied by *gooidc.IDTokenVerifier.
type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (*gooidc.IDToken, error)
}

var _ ports.Authenticator = (*Authenticator)(nil)

// Authenticator verifies ID tokens and maps their claims to a principal. Roles are read
// from a configurable claim; a dotted name walks nested objects (realm_access.roles).
type Authenticator struct {
	verifier   Verifier
	rolesClaim string
}

// NewAuthenticator discovers the provider at issuer and verifies tokens for clientID.
func NewAuthenticator(ctx context.Context, issuer, clientID, rolesClaim string) (*Authenticator, error) {
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}
	return NewAuthenticatorWithVerifier(provider.Verifier(&gooidc.Config{ClientID: clientID}), rolesClaim), nil
}

func NewAuthenticatorWithVerifier(verifier Verifier, rolesClaim string) *Authenticator {
	if strings.TrimSpace(rolesClaim) == "" {
		rolesClaim = DefaultRolesClaim
	}
	return &Authenticator{verifier: verifier, rolesClaim: rolesClaim}
}

func (a *Authenticator) Authenticate(ctx context.Context, rawIDToken string) (*domain.Principal, error) {
	if a == nil || a.verifier == nil {
		return nil, errors.New("oidc authenticator not configured")
	}
	token, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrUnauthenticated, err)
	}
	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrUnauthenticated, err)
	}
	name, _ := claims["name"].(string)
	if name == "" {
		name, _ = claims["preferred_username"].(string)
	}
	email, _ := claims["email"].(string)
	principal, err := domain.NewPrincipal(token.Subject, name, email, rolesFromClaim(claims, a.rolesClaim))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrUnauthenticated, err)
	}
	return principal, nil
}

func rolesFromClaim(claims map[string]any, path string) []domain.Role {
	var value any = claims
	for _, key := range strings.Split(path, ".") {
		object, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		value = object[key]
	}
	switch v := value.(type) {
	case string:
		return domain.ParseRoles(v)
	case []any:
		roles := make([]domain.Role, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				if role, err := domain.ParseRole(s); err == nil {
					roles = append(roles, role)
				}
			}
		}
		return roles
	default:
		return nil
	}
}

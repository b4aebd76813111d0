package oidc

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/require"

	"github.com/hcustod/inventory-management-system/internal/domains/identity/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/identity/ports"
)

const (
	testIssuer   = "https://issuer.example.test"
	testClientID = "inventory-api"
)

func newSigner(t *testing.T) (*rsa.PrivateKey, jose.Signer) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: key}, nil)
	require.NoError(t, err)
	return key, signer
}

func signToken(t *testing.T, signer jose.Signer, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	signed, err := signer.Sign(payload)
	require.NoError(t, err)
	raw, err := signed.CompactSerialize()
	require.NoError(t, err)
	return raw
}

func baseClaims() map[string]any {
	return map[string]any{
		"iss":   testIssuer,
		"aud":   testClientID,
		"sub":   "user-1",
		"name":  "Ann",
		"email": "ann@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}

func newTestAuthenticator(key *rsa.PrivateKey, rolesClaim string) *Authenticator {
	keySet := &gooidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	verifier := gooidc.NewVerifier(testIssuer, keySet, &gooidc.Config{ClientID: testClientID})
	return NewAuthenticatorWithVerifier(verifier, rolesClaim)
}

func TestAuthenticate_MapsClaims(t *testing.T) {
	key, signer := newSigner(t)
	auth := newTestAuthenticator(key, "")

	claims := baseClaims()
	claims["roles"] = []string{"Admin", "auditor"}
	principal, err := auth.Authenticate(context.Background(), signToken(t, signer, claims))
	require.NoError(t, err)
	require.Equal(t, "user-1", principal.Subject)
	require.Equal(t, "Ann", principal.Name)
	require.Equal(t, "ann@example.com", principal.Email)
	require.Equal(t, []domain.Role{domain.RoleAdmin}, principal.Roles)
}

func TestAuthenticate_NestedRolesClaim(t *testing.T) {
	key, signer := newSigner(t)
	auth := newTestAuthenticator(key, "realm_access.roles")

	claims := baseClaims()
	claims["realm_access"] = map[string]any{"roles": []string{"user"}}
	principal, err := auth.Authenticate(context.Background(), signToken(t, signer, claims))
	require.NoError(t, err)
	require.True(t, principal.HasRole(domain.RoleUser))
	require.False(t, principal.HasRole(domain.RoleAdmin))
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	key, signer := newSigner(t)
	auth := newTestAuthenticator(key, "")

	expired := baseClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	_, err := auth.Authenticate(context.Background(), signToken(t, signer, expired))
	require.ErrorIs(t, err, ports.ErrUnauthenticated)

	wrongAudience := baseClaims()
	wrongAudience["aud"] = "someone-else"
	_, err = auth.Authenticate(context.Background(), signToken(t, signer, wrongAudience))
	require.ErrorIs(t, err, ports.ErrUnauthenticated)

	_, otherSigner := newSigner(t)
	_, err = auth.Authenticate(context.Background(), signToken(t, otherSigner, baseClaims()))
	require.ErrorIs(t, err, ports.ErrUnauthenticated)

	_, err = auth.Authenticate(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, ports.ErrUnauthenticated)
}

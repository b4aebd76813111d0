package domain

import (
	"context"
	"errors"
	"strings"
)

// Role is an authorization level granted to a caller.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

var (
	ErrEmptySubject = errors.New("principal subject is required")
	ErrUnknownRole  = errors.New("unknown role")
)

// ParseRole accepts role names ignoring case.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin, nil
	case "user":
		return RoleUser, nil
	default:
		return "", ErrUnknownRole
	}
}

// ParseRoles reads a comma or space separated role list, skipping names it does not know.
func ParseRoles(raw string) []Role {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	roles := make([]Role, 0, len(fields))
	for _, field := range fields {
		if role, err := ParseRole(field); err == nil {
			roles = append(roles, role)
		}
	}
	return roles
}

// FormatRoles is the inverse of ParseRoles.
func FormatRoles(roles []Role) string {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	return strings.Join(names, ",")
}

// Principal is an authenticated caller.
type Principal struct {
	Subject string
	Name    string
	Email   string
	Roles   []Role
}

// NewPrincipal validates the subject and drops duplicate roles.
func NewPrincipal(subject, name, email string, roles []Role) (*Principal, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrEmptySubject
	}
	seen := make(map[Role]struct{}, len(roles))
	unique := make([]Role, 0, len(roles))
	for _, role := range roles {
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		unique = append(unique, role)
	}
	return &Principal{
		Subject: subject,
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Roles:   unique,
	}, nil
}

// HasRole reports whether the principal satisfies required. Admin satisfies User.
func (p *Principal) HasRole(required Role) bool {
	if p == nil {
		return false
	}
	for _, role := range p.Roles {
		if role == required || role == RoleAdmin {
			return true
		}
	}
	return false
}

type principalKey struct{}

// NewContext returns a copy of ctx carrying principal.
func NewContext(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// FromContext returns the principal bound to ctx. Anonymous callers have none.
func FromContext(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(*Principal)
	return principal, ok && principal != nil
}

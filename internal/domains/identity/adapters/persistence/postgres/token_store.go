package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hcustod/inventory-management-system/internal/domains/identity/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/identity/ports"
)

// DefaultSessionTTL provides the fallback TTL when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// TokenStore persists API tokens in PostgreSQL.
type TokenStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewTokenStore wires a PostgreSQL-backed token store. Caller owns DB lifecycle.
func NewTokenStore(db *gorm.DB, ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenStore{db: db, ttl: ttl, now: time.Now}
}

type tokenRecord struct {
	Token     string     `gorm:"primaryKey;column:token;size:512"`
	Subject   string     `gorm:"column:subject;index"`
	Name      string     `gorm:"column:name"`
	Email     string     `gorm:"column:email"`
	Roles     string     `gorm:"column:roles"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at;index"`
	UpdatedAt time.Time  `gorm:"column:updated_at;index"`
}

func (tokenRecord) TableName() string { return "api_tokens" }

// Save upserts a token and restarts its expiry.
func (s *TokenStore) Save(ctx context.Context, token string, principal domain.Principal) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	subject := strings.TrimSpace(principal.Subject)
	if token == "" || subject == "" {
		return errors.New("token and subject are required")
	}
	expiry := s.now().Add(s.ttl)
	rec := tokenRecord{
		Token:     token,
		Subject:   subject,
		Name:      principal.Name,
		Email:     principal.Email,
		Roles:     domain.FormatRoles(principal.Roles),
		ExpiresAt: &expiry,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"subject", "name", "email", "roles", "expires_at", "updated_at"}),
		}).
		Create(&rec).Error
}

func (s *TokenStore) Lookup(ctx context.Context, token string) (*domain.Principal, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var rec tokenRecord
	err := s.db.WithContext(ctx).
		Where("token = ? AND (expires_at IS NULL OR expires_at > ?)", strings.TrimSpace(token), s.now()).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrTokenNotFound
		}
		return nil, err
	}
	return &domain.Principal{
		Subject: rec.Subject,
		Name:    rec.Name,
		Email:   rec.Email,
		Roles:   domain.ParseRoles(rec.Roles),
	}, nil
}

func (s *TokenStore) Delete(ctx context.Context, token string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&tokenRecord{}, "token = ?", token).Error
}

// PurgeExpired removes all expired tokens. Use for housekeeping or cron.
func (s *TokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).
		Delete(&tokenRecord{})
	return result.RowsAffected, result.Error
}

func (s *TokenStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres token store not configured")
	}
	return nil
}

var _ ports.TokenStore = (*TokenStore)(nil)

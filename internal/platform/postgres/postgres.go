package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SlowQueryThreshold is the duration above which gorm logs a statement as slow.
const SlowQueryThreshold = 200 * time.Millisecond

// Pool sizes the database/sql pool behind gorm.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPool suits one API replica. Order placement holds row locks for the length of a
// transaction, so the pool bounds how many placements run at once.
var DefaultPool = Pool{MaxOpenConns: 20, MaxIdleConns: 5, ConnMaxLifetime: 30 * time.Minute}

// PoolFromEnv reads POSTGRES_MAX_OPEN_CONNS, POSTGRES_MAX_IDLE_CONNS and
// POSTGRES_CONN_MAX_LIFETIME over DefaultPool.
func PoolFromEnv() (Pool, error) {
	pool := DefaultPool
	var err error
	if pool.MaxOpenConns, err = intFromEnv("POSTGRES_MAX_OPEN_CONNS", pool.MaxOpenConns); err != nil {
		return Pool{}, err
	}
	if pool.MaxIdleConns, err = intFromEnv("POSTGRES_MAX_IDLE_CONNS", pool.MaxIdleConns); err != nil {
		return Pool{}, err
	}
	if raw := strings.TrimSpace(os.Getenv("POSTGRES_CONN_MAX_LIFETIME")); raw != "" {
		lifetime, err := time.ParseDuration(raw)
		if err != nil || lifetime <= 0 {
			return Pool{}, fmt.Errorf("POSTGRES_CONN_MAX_LIFETIME must be a positive duration, got %q", raw)
		}
		pool.ConnMaxLifetime = lifetime
	}
	if pool.MaxIdleConns > pool.MaxOpenConns {
		pool.MaxIdleConns = pool.MaxOpenConns
	}
	return pool, nil
}

// Config returns the gorm settings shared by every dialect the service runs on.
// TranslateError turns driver codes into gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
// Statements are logged through logger; nil keeps gorm's own writer.
func Config(logger *slog.Logger) *gorm.Config {
	logConfig := gormlogger.Config{
		SlowThreshold:             SlowQueryThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	}
	gormLog := gormlogger.Default.LogMode(gormlogger.Warn)
	if logger != nil {
		gormLog = gormlogger.NewSlogLogger(logger.With(slog.String("component", "gorm")), logConfig)
	}
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormLog,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// Connect opens PostgreSQL with DefaultPool and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*gorm.DB, error) {
	return open(ctx, dsn, DefaultPool, nil)
}

func open(ctx context.Context, dsn string, pool Pool, logger *slog.Logger) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), Config(logger))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// ConnectFromEnv is ConnectDSN with POSTGRES_DSN.
func ConnectFromEnv(ctx context.Context, logger *slog.Logger) (*gorm.DB, func()) {
	return ConnectDSN(ctx, os.Getenv("POSTGRES_DSN"), logger)
}

// ConnectDSN returns nil and a no-op cleanup when dsn is empty or unreachable, so callers
// can fall back to the in-memory adapters.
func ConnectDSN(ctx context.Context, dsn string, logger *slog.Logger) (*gorm.DB, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return nil, func() {}
	}
	pool, err := PoolFromEnv()
	if err != nil {
		logger.Warn("invalid postgres pool settings, using defaults", slog.String("error", err.Error()))
		pool = DefaultPool
	}
	db, err := open(ctx, dsn, pool, logger)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("postgres connection established",
		slog.Int("pool.max_open", pool.MaxOpenConns),
		slog.Int("pool.max_idle", pool.MaxIdleConns),
		slog.Duration("pool.max_lifetime", pool.ConnMaxLifetime))
	return db, func() { _ = sqlDB.Close() }
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return value, nil
}

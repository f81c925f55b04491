package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"movieflix/internal/biz"
	"movieflix/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewMovieRepo,
	NewRatingRepo,
	NewWarehouseRepo,
	NewViewRepo,
)

const defaultCacheTTL = 15 * time.Minute

// ErrMissingDatabase is returned when data.database.source is not configured.
var ErrMissingDatabase = errors.New("data.database.source is not configured")

// Data encapsulates database and cache connections
type Data struct {
	db        *gorm.DB
	rdb       *redis.Client
	ttl       time.Duration
	txTimeout time.Duration
	log       *log.Helper
}

// NewData creates Data instance with database and Redis connections
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	l := log.NewHelper(logger)

	if c == nil || c.Database == nil || c.Database.Source == "" {
		return nil, nil, ErrMissingDatabase
	}

	// Initialize PostgreSQL connection
	db, err := gorm.Open(postgres.Open(c.Database.Source), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		l.Errorf("failed to connect to database: %v", err)
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		l.Errorf("failed to get database instance: %v", err)
		return nil, nil, err
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(orDefault(c.Database.MaxIdleConns, 10))
	sqlDB.SetMaxOpenConns(orDefault(c.Database.MaxOpenConns, 100))
	lifetime := c.Database.ConnMaxLifetime.AsDuration()
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	sqlDB.SetConnMaxLifetime(lifetime)

	l.Info("database connected successfully")

	data := &Data{
		db:        db,
		ttl:       defaultCacheTTL,
		txTimeout: c.Database.TxTimeout.AsDuration(),
		log:       l,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := data.EnsureSchema(ctx); err != nil {
		l.Errorf("failed to create schema: %v", err)
		_ = sqlDB.Close()
		return nil, nil, err
	}

	// Redis is optional, continue without it
	if c.Redis != nil && c.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         c.Redis.Addr,
			Password:     c.Redis.Password,
			DB:           c.Redis.DB,
			ReadTimeout:  c.Redis.ReadTimeout.AsDuration(),
			WriteTimeout: c.Redis.WriteTimeout.AsDuration(),
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			l.Warnf("failed to connect to redis: %v", err)
			_ = rdb.Close()
		} else {
			l.Info("redis connected successfully")
			data.rdb = rdb
			if ttl := c.Redis.TTL.AsDuration(); ttl > 0 {
				data.ttl = ttl
			}
		}
	}

	cleanup := func() {
		l.Info("closing data resources")
		if data.rdb != nil {
			if err := data.rdb.Close(); err != nil {
				l.Errorf("failed to close redis: %v", err)
			}
		}
		if err := sqlDB.Close(); err != nil {
			l.Errorf("failed to close database: %v", err)
		}
	}

	return data, cleanup, nil
}

// EnsureSchema creates the warehouse and rating tables when absent
func (d *Data) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if err := d.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// beginOnline prepares a rating transaction: bounded statement time and a
// shared hold on the warehouse lock so a batch replace cannot interleave.
func (d *Data) beginOnline(tx *gorm.DB) error {
	if d.txTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", d.txTimeout.Milliseconds())
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return tx.Exec("SELECT pg_advisory_xact_lock_shared(?)", biz.WarehouseLockKey).Error
}

// transient marks store errors a caller may retry: timeouts, serialization
// failures, deadlocks and lock timeouts.
func transient(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", biz.ErrTransient, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "57014", "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %v", biz.ErrTransient, err)
		}
	}
	return err
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

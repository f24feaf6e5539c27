package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5:// driver for migrations
	_ "github.com/golang-migrate/migrate/v4/source/file"     // file:// migration source
	"github.com/jackc/pgx/v5/pgxpool"
)

const connectTimeout = 10 * time.Second

type Postgres interface {
	Pool() *pgxpool.Pool
	Close()
}

type Config struct {
	URL       string // takes precedence over the discrete fields
	Host      string
	Port      uint16
	User      string
	Password  string
	Name      string
	SSLMode   string
	MaxConns  int32
	MinConns  int32
	Migration Migration
}

type Migration struct {
	Path      string
	AutoApply bool
}

type postgres struct {
	pool *pgxpool.Pool
}

func New(cfg *Config) (Postgres, error) {
	dsn := cfg.DSN()

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if cfg.Migration.AutoApply {
		if err := applyMigrations(cfg.Migration.Path, dsn); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &postgres{pool: pool}, nil
}

func (p *postgres) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *postgres) Close() {
	p.pool.Close()
}

// DSN returns the connection URL, building it from the discrete fields when URL is empty.
func (c *Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}

	return u.String()
}

func applyMigrations(path, dsn string) error {
	if path == "" {
		return errors.New("migration path is empty")
	}

	m, err := migrate.New("file://"+path, migrationURL(dsn))
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}

	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// migrationURL swaps the scheme so golang-migrate picks the pgx v5 driver.
func migrationURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}

	return dsn
}

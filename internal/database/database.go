package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/internly/internly/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const minIdleConns int32 = 5

// ConnString renders the database settings as a postgres URL understood by both pgx and golang-migrate.
// Every connection gets the configured schema as its search_path.
func ConnString(cfg config.Database) string {
	query := url.Values{}
	query.Set("sslmode", "disable")
	if cfg.Schema != "" {
		query.Set("search_path", cfg.Schema)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Pass),
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Open connects a pool and verifies the database answers.
func Open(ctx context.Context, cfg config.Database) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = min(minIdleConns, poolConfig.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database %s at %s:%d: %w", cfg.Name, cfg.Host, cfg.Port, err)
	}
	log.Debugf("connected to database %s (schema %s, max %d connections)", cfg.Name, cfg.Schema, poolConfig.MaxConns)
	return pool, nil
}

// Migrate applies every pending migration from the nearest migrations directory.
func Migrate(cfg config.Database) error {
	migrationsPath, err := findMigrationsPath()
	if err != nil {
		return fmt.Errorf("failed to locate migrations directory: %w", err)
	}

	m, err := migrate.New("file://"+migrationsPath, ConnString(cfg))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("database schema is up to date")
			return nil
		}
		return fmt.Errorf("migration up failed: %w", err)
	}
	version, _, _ := m.Version()
	log.Infof("database migrated to version %d", version)
	return nil
}

// findMigrationsPath walks up from the working directory to the first "migrations" directory.
func findMigrationsPath() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Abs(candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("migrations directory not found")
		}
		dir = parent
	}
}

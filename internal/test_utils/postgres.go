package test_utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/internly/internly/internal/config"
	"github.com/internly/internly/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	testDbName     = "internly"
	testDbUser     = "test_internly"
	testDbPassword = "test_internly"
	snapshotName   = "internly-test-snapshot"
)

func preparePostgresContainer() (*postgres.PostgresContainer, error) {
	ctx := context.Background()

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %v", err)
	}

	pgContainer, err := postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(filepath.Join(projectRoot, "dev", "init.sql")),
		postgres.WithDatabase(testDbName),
		postgres.WithUsername(testDbUser),
		postgres.WithPassword(testDbPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return nil, err
	}
	return pgContainer, nil
}

// TestWithDB starts Postgres, applies all migrations and snapshots the migrated state.
// Tests open a pool per test and restore the snapshot after closing it.
func TestWithDB() (*postgres.PostgresContainer, func() *pgxpool.Pool) {
	ctx := context.Background()

	container, err := preparePostgresContainer()
	if err != nil {
		log.Printf("Failed to start postgres container: %v", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432/tcp")

	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Host:     host,
		Port:     port.Int(),
		User:     testDbUser,
		Pass:     testDbPassword,
		Name:     testDbName,
		Schema:   "internly",
		MaxConns: 8,
	}

	// Apply migrations
	err = database.Migrate(cfg)
	if err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	if err := container.Snapshot(ctx, postgres.WithSnapshotName(snapshotName)); err != nil {
		log.Fatalf("Failed to snapshot postgres container: %v", err)
	}

	return container, func() *pgxpool.Pool {
		db, err := database.Open(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to open database connection: %v", err)
		}
		return db
	}
}

// OpenForTest opens a pool for one test and restores the migrated snapshot when the test ends.
func OpenForTest(t *testing.T, container *postgres.PostgresContainer, openDb func() *pgxpool.Pool) *pgxpool.Pool {
	t.Helper()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		require.NoError(t, container.Restore(context.Background()))
	})
	return db
}

// findProjectRoot walks up to the directory holding go.mod or .git.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if fileExists(filepath.Join(dir, ".git")) || fileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root")
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

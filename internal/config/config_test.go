package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when file is missing", func(t *testing.T) {
		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, ":8181", cfg.Listen)
		assert.Equal(t, "internly", cfg.Database.Schema)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Zero(t, cfg.Sync.StaleLockAfter)
	})

	t.Run("should read file and let environment override it", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		content := "db:\n  host: db.internal\n  port: 6543\nsync:\n  stalelockafter: 15m\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		t.Setenv("INTERNLY_DB_HOST", "db.override")

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "db.override", cfg.Database.Host)
		assert.Equal(t, 6543, cfg.Database.Port)
		assert.Equal(t, 15*time.Minute, cfg.Sync.StaleLockAfter)
	})
}

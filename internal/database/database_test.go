package database

import (
	"testing"

	"github.com/internly/internly/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString(t *testing.T) {
	cfg := config.Database{
		Host:   "db.internal",
		Port:   6543,
		User:   "internly",
		Pass:   "p@ss w'rd",
		Name:   "payroll",
		Schema: "internly",
	}

	t.Run("should be parseable by pgx with credentials intact", func(t *testing.T) {
		// when
		poolConfig, err := pgxpool.ParseConfig(ConnString(cfg))

		// then
		require.NoError(t, err)
		assert.Equal(t, "db.internal", poolConfig.ConnConfig.Host)
		assert.Equal(t, uint16(6543), poolConfig.ConnConfig.Port)
		assert.Equal(t, "internly", poolConfig.ConnConfig.User)
		assert.Equal(t, "p@ss w'rd", poolConfig.ConnConfig.Password)
		assert.Equal(t, "payroll", poolConfig.ConnConfig.Database)
		assert.Equal(t, "internly", poolConfig.ConnConfig.RuntimeParams["search_path"])
	})

	t.Run("should omit search_path without a schema", func(t *testing.T) {
		noSchema := cfg
		noSchema.Schema = ""

		assert.NotContains(t, ConnString(noSchema), "search_path")
	})
}

func TestFindMigrationsPath(t *testing.T) {
	path, err := findMigrationsPath()

	require.NoError(t, err)
	assert.DirExists(t, path)
}

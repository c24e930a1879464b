package settings

import (
	"os"
	"testing"

	"github.com/internly/internly/internal/test_utils"
	"github.com/internly/internly/pkg/allowance"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func TestRepositoryImpl_Rules(t *testing.T) {
	t.Run("should report missing settings", func(t *testing.T) {
		repo := NewRepo(test_utils.OpenForTest(t, pgContainer, openDb))

		_, err := repo.GetRules(ctx)

		assert.ErrorIs(t, err, ErrSettingsNotFound)
	})

	t.Run("should store and overwrite the single settings record", func(t *testing.T) {
		// given
		repo := NewRepo(test_utils.OpenForTest(t, pgContainer, openDb))
		_, err := repo.StoreRules(ctx, validRules())
		require.NoError(t, err)
		updated := validRules()
		updated.PayoutFrequency = allowance.EndOfProgram
		updated.WfoRate = decimal.RequireFromString("120.50")

		// when
		_, err = repo.StoreRules(ctx, updated)
		require.NoError(t, err)
		rules, err := repo.GetRules(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, allowance.EndOfProgram, rules.PayoutFrequency)
		assert.True(t, rules.WfoRate.Equal(decimal.RequireFromString("120.5")))
		assert.True(t, rules.ApplyTax)
	})
}

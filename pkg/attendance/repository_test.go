package attendance

import (
	"os"
	"testing"
	"time"

	"github.com/internly/internly/internal/test_utils"
	"github.com/jackc/pgx/v5/pgxpool"
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

func setupTestRepository(t *testing.T) Repository {
	return NewRepo(test_utils.OpenForTest(t, pgContainer, openDb))
}

func TestRepositoryImpl_Internship(t *testing.T) {
	t.Run("should return ErrInternshipNotFound for unknown intern", func(t *testing.T) {
		repo := setupTestRepository(t)

		_, err := repo.GetInternship(ctx, internId)

		assert.ErrorIs(t, err, ErrInternshipNotFound)
	})

	t.Run("should store and update an internship", func(t *testing.T) {
		// given
		repo := setupTestRepository(t)
		require.NoError(t, repo.StoreInternship(ctx, Internship{InternId: internId, StartDate: day("2025-03-10")}))
		endDate := day("2025-08-29")

		// when
		err := repo.StoreInternship(ctx, Internship{InternId: internId, StartDate: day("2025-03-10"), EndDate: &endDate})
		require.NoError(t, err)
		internship, err := repo.GetInternship(ctx, internId)

		// then
		require.NoError(t, err)
		assert.True(t, internship.StartDate.Equal(day("2025-03-10")))
		require.NotNil(t, internship.EndDate)
		assert.True(t, internship.EndDate.Equal(endDate))
	})
}

func TestRepositoryImpl_GetEntries(t *testing.T) {
	t.Run("should return entries of the intern within the range in recording order", func(t *testing.T) {
		// given
		repo := setupTestRepository(t)
		recorded := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
		_, err := repo.StoreEntry(ctx, Entry{InternId: internId, Date: day("2025-04-01"), WorkMode: WorkFromHome, RecordedAt: recorded.Add(time.Hour)})
		require.NoError(t, err)
		_, err = repo.StoreEntry(ctx, Entry{InternId: internId, Date: day("2025-04-01"), WorkMode: WorkFromOffice, RecordedAt: recorded})
		require.NoError(t, err)
		_, err = repo.StoreEntry(ctx, Entry{InternId: internId, Date: day("2025-05-01"), WorkMode: WorkFromOffice, RecordedAt: recorded})
		require.NoError(t, err)
		_, err = repo.StoreEntry(ctx, Entry{InternId: internId + 1, Date: day("2025-04-02"), WorkMode: WorkFromOffice, RecordedAt: recorded})
		require.NoError(t, err)

		// when
		entries, err := repo.GetEntries(ctx, internId, day("2025-04-01"), day("2025-05-01"))

		// then
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, WorkFromOffice, entries[0].WorkMode)
		assert.Equal(t, WorkFromHome, entries[1].WorkMode)
	})
}

func TestRepositoryImpl_GetApprovedLeaves(t *testing.T) {
	t.Run("should return approved leaves overlapping the range", func(t *testing.T) {
		// given
		repo := setupTestRepository(t)
		leaves := []Leave{
			{InternId: internId, StartDate: day("2025-03-28"), EndDate: day("2025-04-01"), Status: LeaveApproved},
			{InternId: internId, StartDate: day("2025-04-10"), EndDate: day("2025-04-10"), Status: LeaveRejected},
			{InternId: internId, StartDate: day("2025-04-30"), EndDate: day("2025-05-02"), Status: LeaveApproved},
			{InternId: internId, StartDate: day("2025-05-01"), EndDate: day("2025-05-03"), Status: LeaveApproved},
		}
		for _, leave := range leaves {
			_, err := repo.StoreLeave(ctx, leave)
			require.NoError(t, err)
		}

		// when
		found, err := repo.GetApprovedLeaves(ctx, internId, day("2025-04-01"), day("2025-05-01"))

		// then
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.True(t, found[0].StartDate.Equal(day("2025-03-28")))
		assert.True(t, found[1].StartDate.Equal(day("2025-04-30")))
	})
}

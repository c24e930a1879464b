package attendance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler(t *testing.T) (*mux.Router, *RepositoryStub) {
	t.Helper()
	aggregator, repo, clock := setupAggregator(t, Internship{InternId: internId, StartDate: day("2025-03-10")})
	handler := NewHandler(aggregator, repo, clock)

	r := mux.NewRouter()
	r.HandleFunc("/api/interns/{internId:[0-9]+}/attendance", handler.RecordEntry).Methods("POST")
	r.HandleFunc("/api/interns/{internId:[0-9]+}/attendance/breakdown", handler.GetBreakdown).Methods("GET")
	return r, repo
}

func TestHandler_RecordEntry(t *testing.T) {
	t.Run("should store the entry and count it in the breakdown", func(t *testing.T) {
		// given
		r, _ := setupHandler(t)
		body := strings.NewReader(`{"date":"2025-04-02","workMode":"WFH"}`)

		// when
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/interns/7/attendance", body))

		// then
		require.Equal(t, http.StatusCreated, rec.Code)
		var entry EntryDTO
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&entry))
		assert.Equal(t, "2025-04-02", entry.Date)
		assert.Equal(t, "WFH", entry.WorkMode)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/interns/7/attendance/breakdown?period=2025-04", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var breakdown BreakdownDTO
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&breakdown))
		assert.Equal(t, BreakdownDTO{InternId: internId, PeriodKey: "2025-04", Wfh: 1}, breakdown)
	})

	t.Run("should reject an unknown work mode", func(t *testing.T) {
		r, repo := setupHandler(t)
		body := strings.NewReader(`{"date":"2025-04-02","workMode":"HYBRID"}`)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/interns/7/attendance", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		entries, err := repo.GetEntries(ctx, internId, day("2025-04-01"), day("2025-05-01"))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("should reject a malformed date", func(t *testing.T) {
		r, _ := setupHandler(t)
		body := strings.NewReader(`{"date":"02/04/2025","workMode":"WFO"}`)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/interns/7/attendance", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_GetBreakdown(t *testing.T) {
	t.Run("should reject a missing period", func(t *testing.T) {
		r, _ := setupHandler(t)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/interns/7/attendance/breakdown", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should report an intern without internship as not found", func(t *testing.T) {
		r, _ := setupHandler(t)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/interns/99/attendance/breakdown?period=2025-04", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

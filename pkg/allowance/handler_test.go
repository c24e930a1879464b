package allowance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/internly/internly/internal/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*mux.Router, serviceFixture) {
	f := setupService(t)
	handler := NewHandler(f.service)
	router := mux.NewRouter()
	router.HandleFunc("/api/interns/{internId}/claims", handler.ListClaims).Methods("GET")
	router.HandleFunc("/api/interns/{internId}/claims/{periodKey}", handler.GetClaim).Methods("GET")
	router.HandleFunc("/api/interns/{internId}/claims/{periodKey}/supervisor-adjustment", handler.UpsertSupervisorAdjustment).Methods("PUT")
	router.HandleFunc("/api/interns/{internId}/claims/{periodKey}/admin-adjustment", handler.UpsertAdminAdjustment).Methods("PUT")
	router.HandleFunc("/api/interns/{internId}/claims/{periodKey}/payment", handler.MarkPaid).Methods("POST")
	return router, f
}

func serve(router *mux.Router, ctx context.Context, method string, url string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body)).WithContext(ctx)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandler_GetClaim(t *testing.T) {
	t.Run("should return the lazily created claim", func(t *testing.T) {
		router, _ := setupRouter(t)

		rr := serve(router, userCtx, "GET", "/api/interns/7/claims/2025-04", "")

		require.Equal(t, http.StatusOK, rr.Code)
		var claim ClaimDTO
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&claim))
		assert.Equal(t, "7_2025-04", claim.Id)
		assert.Equal(t, "1213", claim.ResolvedAmount.String())
		assert.Equal(t, BreakdownDTO{Wfo: 10, Wfh: 5, Leaves: 2}, claim.Breakdown)
		assert.Empty(t, claim.DecidedBy)
	})

	t.Run("should reject a malformed period", func(t *testing.T) {
		router, _ := setupRouter(t)

		rr := serve(router, userCtx, "GET", "/api/interns/7/claims/April", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var errorResponse rest.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
		assert.Equal(t, "Invalid period", errorResponse.Error)
	})
}

func TestHandler_UpsertAdjustment(t *testing.T) {
	t.Run("should store an admin adjustment", func(t *testing.T) {
		router, _ := setupRouter(t)

		rr := serve(router, userCtx, "PUT", "/api/interns/7/claims/2025-04/admin-adjustment", `{"amount": 1000, "note": "bonus"}`)

		require.Equal(t, http.StatusOK, rr.Code)
		var claim ClaimDTO
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&claim))
		assert.Equal(t, "1000", claim.ResolvedAmount.String())
		assert.Equal(t, "ADMIN", claim.DecidedBy)
		require.NotNil(t, claim.AdminAdjustment)
		assert.Equal(t, 42, claim.AdminAdjustment.ActorId)
	})

	t.Run("should require a note", func(t *testing.T) {
		router, _ := setupRouter(t)

		rr := serve(router, userCtx, "PUT", "/api/interns/7/claims/2025-04/supervisor-adjustment", `{"amount": 900, "note": ""}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("should require an amount", func(t *testing.T) {
		router, _ := setupRouter(t)

		rr := serve(router, userCtx, "PUT", "/api/interns/7/claims/2025-04/supervisor-adjustment", `{"note": "missing"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("should refuse an anonymous adjustment", func(t *testing.T) {
		router, _ := setupRouter(t)

		rr := serve(router, context.Background(), "PUT", "/api/interns/7/claims/2025-04/admin-adjustment", `{"amount": 1000, "note": "bonus"}`)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("should answer conflict for a paid claim", func(t *testing.T) {
		// given
		router, _ := setupRouter(t)
		paid := serve(router, userCtx, "POST", "/api/interns/7/claims/2025-04/payment", `{"paymentDate": "2025-05-10"}`)
		require.Equal(t, http.StatusOK, paid.Code)

		// when
		rr := serve(router, userCtx, "PUT", "/api/interns/7/claims/2025-04/admin-adjustment", `{"amount": 1000, "note": "bonus"}`)

		// then
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestHandler_ListClaims(t *testing.T) {
	router, f := setupRouter(t)
	_, err := f.service.GetClaim(userCtx, claimId)
	require.NoError(t, err)

	rr := serve(router, userCtx, "GET", "/api/interns/7/claims", "")

	require.Equal(t, http.StatusOK, rr.Code)
	var claims []ClaimDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&claims))
	require.Len(t, claims, 1)
	assert.Equal(t, "2025-04", claims[0].PeriodKey)
}

package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/internly/internly/pkg/user"
	"github.com/stretchr/testify/assert"
)

func setupRouter() (*mux.Router, user.User) {
	repo := user.NewStubUserRepository()
	supervisor := repo.AddUser(user.User{Uid: "sup-1", Username: "supervisor"})

	r := mux.NewRouter()
	r.Use(userMiddleware(user.NewUserService(repo)))
	r.HandleFunc("/whoami", func(w http.ResponseWriter, req *http.Request) {
		u, err := user.CurrentUser(req.Context())
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(u.Uid))
	})
	return r, supervisor
}

func TestUserMiddleware(t *testing.T) {
	t.Run("should put the user in the request context", func(t *testing.T) {
		// given
		r, supervisor := setupRouter()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(userIdHeader, supervisor.Uid)
		rec := httptest.NewRecorder()

		// when
		r.ServeHTTP(rec, req)

		// then
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "sup-1", rec.Body.String())
	})

	t.Run("should pass anonymous requests through", func(t *testing.T) {
		r, _ := setupRouter()
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should reject unknown users", func(t *testing.T) {
		r, _ := setupRouter()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(userIdHeader, "nobody")
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "User not found")
	})
}

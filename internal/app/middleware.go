package app

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/internly/internly/internal/rest"
	"github.com/internly/internly/pkg/user"
	log "github.com/sirupsen/logrus"
)

const userIdHeader = "X-User-Id"

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {
	r.Use(userMiddleware(deps.UserService))
}

// userMiddleware resolves the X-User-Id header (a user uid) and stores the user in the request context.
// Requests without the header pass through anonymously; writes that need an actor fail later.
func userMiddleware(users user.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			uid := req.Header.Get(userIdHeader)
			if uid == "" {
				next.ServeHTTP(w, req)
				return
			}

			u, err := users.GetUserByUid(req.Context(), uid)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					log.Debugf("user not found: %s", uid)
					rest.WriteError(w, http.StatusForbidden, "User not found", "")
					return
				}
				log.Errorf("failed to get user: %v", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			log.Tracef("request by user %s", u.Uid)
			next.ServeHTTP(w, req.WithContext(user.WithUser(req.Context(), u)))
		})
	}
}

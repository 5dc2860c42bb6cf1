package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dkarlovs/uservault/internal/common"
	"github.com/dkarlovs/uservault/internal/server/models"
)

type contextKey struct{ name string }

var userContextKey = contextKey{"user"}

// authenticate resolves the bearer token to a user and stores it on the
// request context. Handlers behind this middleware may assume the user is
// present.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, r, common.ErrorUnauthorized)
			return
		}

		user, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

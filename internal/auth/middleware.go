package auth

import (
	"net/http"
	"strings"

	"github.com/liftplan/liftplan/internal/platform/httpx"
	"github.com/liftplan/liftplan/internal/shared"
)

// Middleware authenticates requests with a bearer API token and stores the
// resolved actor on the request context.
func Middleware(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			actor, err := service.Authenticate(r.Context(), token)
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			ctx := shared.ContextWithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Package middleware provides the authentication gate and the
// capability guards handlers invoke before touching business state.
package middleware

import (
	"net/http"
	"strings"

	"github.com/ccoapp/cco-api/pkg/apperr"
	"github.com/ccoapp/cco-api/pkg/contextkeys"
	"github.com/ccoapp/cco-api/pkg/httputil"
	"github.com/ccoapp/cco-api/pkg/identity"
	"github.com/ccoapp/cco-api/pkg/observability"
)

// bearerScheme is the only accepted Authorization scheme.
const bearerScheme = "Bearer "

// AuthGate intercepts every request before it reaches a handler. It
// either passes the request through untouched (exempt routes), rejects
// it, or attaches the resolved identity to the request context.
type AuthGate struct {
	resolver     identity.Resolver
	exemptRoutes []string
	log          *observability.Logger
}

// NewAuthGate creates the authentication gate. exemptRoutes is an
// ordered list of path prefixes checked case-sensitively; the first
// match short-circuits authentication entirely.
func NewAuthGate(resolver identity.Resolver, exemptRoutes []string, log *observability.Logger) *AuthGate {
	return &AuthGate{
		resolver:     resolver,
		exemptRoutes: exemptRoutes,
		log:          log,
	}
}

// Handler wraps an HTTP handler with the authentication gate.
func (g *AuthGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		for _, prefix := range g.exemptRoutes {
			if strings.HasPrefix(path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteError(w, r, g.log, apperr.NewUnauthorized("Missing Authorization token"))
			return
		}

		if !strings.HasPrefix(authHeader, bearerScheme) {
			httputil.WriteError(w, r, g.log, apperr.NewUnauthorized("Invalid Authorization header format"))
			return
		}

		token := strings.TrimSpace(authHeader[len(bearerScheme):])

		// Resolver failures are already classified; they propagate to the
		// translator unchanged.
		id, err := g.resolver.ResolveIdentity(r.Context(), token)
		if err != nil {
			httputil.WriteError(w, r, g.log, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(contextkeys.WithIdentity(r.Context(), id)))
	})
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	httputil "agenda/pkg/http"
	"agenda/pkg/logger"
	"agenda/pkg/model"
)

const principalKey contextKey = "principal"

// Authorizer resolves a session token to an admin principal. It returns an
// UNAUTHORIZED AppError for a missing or invalid session and FORBIDDEN for a
// non-admin caller.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*model.Principal, error)
}

// RequireAdmin rejects every request that does not carry an admin session.
// The token comes from cookieName, falling back to a Bearer header.
func RequireAdmin(authz Authorizer, cookieName string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authz.Authorize(r.Context(), sessionToken(r, cookieName))
			if err != nil {
				log.Warn("Request not authorized",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"method", r.Method,
					"error", err,
				)
				_ = httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func WithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (*model.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*model.Principal)
	return p, ok && p != nil
}

// PrincipalID returns the caller's user id, or "" outside an authorized request.
func PrincipalID(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.UserID
	}
	return ""
}

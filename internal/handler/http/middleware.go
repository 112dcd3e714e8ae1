package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/psvit/storefront/internal/identity"
	apperrors "github.com/psvit/storefront/pkg/errors"
	"github.com/psvit/storefront/pkg/httputil"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionFromContext returns the verified session stored by RequireAdmin,
// or nil when the request was not authenticated.
func SessionFromContext(ctx context.Context) *identity.Session {
	s, _ := ctx.Value(sessionKey).(*identity.Session)
	return s
}

// ContentTypeJSON rejects mutating requests that do not declare a JSON body.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteError(w, r, apperrors.InvalidInput("Content-Type must be application/json"), nil)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin verifies the bearer token and checks the admin allowlist.
// The verified session is stored on the request context.
func RequireAdmin(verifier *identity.Verifier, allowlist *identity.Allowlist, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("missing bearer token"), logger)
				return
			}

			session, err := verifier.Verify(token)
			if err != nil {
				httputil.WriteError(w, r, err, logger)
				return
			}

			if !allowlist.IsAdmin(session.Email) {
				logger.WarnContext(r.Context(), "admin access denied",
					slog.String("email", session.Email),
				)
				httputil.WriteError(w, r, apperrors.Forbidden("admin access required"), logger)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/psvit/storefront/internal/identity"
	apperrors "github.com/psvit/storefront/pkg/errors"
	"github.com/psvit/storefront/pkg/httputil"
	"github.com/psvit/storefront/pkg/validator"
)

// AuthHandler handles HTTP requests for the session endpoints.
type AuthHandler struct {
	client    *identity.Client
	verifier  *identity.Verifier
	allowlist *identity.Allowlist
	logger    *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(client *identity.Client, verifier *identity.Verifier, allowlist *identity.Allowlist, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		client:    client,
		verifier:  verifier,
		allowlist: allowlist,
		logger:    logger,
	}
}

// SessionResponse describes the caller's authenticated state.
type SessionResponse struct {
	Session *identity.Session `json:"session"`
	IsAdmin bool              `json:"is_admin"`
}

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var creds identity.Credentials
	if err := validator.DecodeAndValidate(r, &creds); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	tokens, err := h.client.SignIn(r.Context(), creds)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "user signed in",
		slog.String("user_id", tokens.User.ID),
	)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tokens})
}

// SignOut handles POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing bearer token"), h.logger)
		return
	}

	if err := h.client.SignOut(r.Context(), token); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/v1/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: SessionResponse{}})
		return
	}

	session, err := h.verifier.Verify(token)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: SessionResponse{
		Session: session,
		IsAdmin: h.allowlist.IsAdmin(session.Email),
	}})
}

// bearerToken extracts the token from the Authorization header, or ""
// when the header is absent or malformed.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

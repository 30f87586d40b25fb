// internal/server/handlers/auth.go

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shivraj-yadav/ChugLi/internal/domain/identity"
)

type contextKey string

const principalKey contextKey = "principal"

// AuthHandler handles signup and signin requests.
type AuthHandler struct {
	accounts identity.Accounts
	logger   zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accounts identity.Accounts, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// Signup registers a new account.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	type signupRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.accounts.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logError(err, "signup failed")
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"id":              user.ID,
		"email":           user.Email,
		"anonymousHandle": user.AnonymousHandle,
	})
}

// Signin checks credentials and returns a bearer token.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	type signinRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, handle, err := h.accounts.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logError(err, "signin failed")
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"token":           token,
		"anonymousHandle": handle,
	})
}

func (h *AuthHandler) logError(err error, msg string) {
	h.logger.Debug().Err(err).Msg(msg)
}

// RequireAuth verifies the Bearer token and stores the principal in the
// request context. Lifecycle mutations sit behind it; discovery does not.
func RequireAuth(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			principal, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// principalFrom extracts the authenticated principal set by RequireAuth.
func principalFrom(r *http.Request) (*identity.Principal, bool) {
	p, ok := r.Context().Value(principalKey).(*identity.Principal)
	return p, ok
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/crucial707/quill/internal/auth"
	"github.com/crucial707/quill/internal/metrics"
	"github.com/crucial707/quill/internal/models"
	"github.com/crucial707/quill/internal/repo"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenVerifier checks a bearer token. *auth.Tokens satisfies it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserLookup resolves the token subject. *repo.UserRepo satisfies it.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate rejects requests without a valid bearer token with 401 and puts
// the resolved user into the request context for the handlers behind it.
func Authenticate(tokens TokenVerifier, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				metrics.IncAuthFailure("missing_token")
				writeJSONError(w, http.StatusUnauthorized, "no token, authorization denied")
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				metrics.IncAuthFailure("invalid_token")
				writeJSONError(w, http.StatusUnauthorized, "token is not valid")
				return
			}

			user, err := users.GetByID(r.Context(), claims.Subject)
			if errors.Is(err, repo.ErrNotFound) {
				metrics.IncAuthFailure("unknown_user")
				writeJSONError(w, http.StatusUnauthorized, "user no longer exists")
				return
			}
			if err != nil {
				slog.Error("resolve token subject",
					"request_id", chimw.GetReqID(r.Context()),
					"user_id", claims.Subject,
					"error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by Authenticate.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

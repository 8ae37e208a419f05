package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

// AccessTokenCookie is the cookie browsers carry the access token in.
// Non-browser clients send the same token as a bearer Authorization header.
const AccessTokenCookie = "accessToken"

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	VerifyAccess(token string) (auth.AccessClaims, error)
}

// UserLoader resolves an authenticated user id to its current account record.
type UserLoader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// RequireAuth rejects requests without a valid access token and attaches the
// resolved user to the request context.
func RequireAuth(verifier TokenVerifier, users UserLoader, onReject func(w http.ResponseWriter, r *http.Request, message string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				onReject(w, r, "missing access token")
				return
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				logging.FromContext(r.Context()).Debug("access token rejected", "error", err)
				onReject(w, r, "invalid access token")
				return
			}

			userID, err := primitive.ObjectIDFromHex(claims.Subject)
			if err != nil {
				onReject(w, r, "invalid access token")
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				onReject(w, r, "invalid access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

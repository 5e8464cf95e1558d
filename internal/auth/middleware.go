package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const UserIDKey contextKey = "userID"

// TokenQueryParam carries the token where headers cannot be set, as on
// browser websocket requests.
const TokenQueryParam = "token"

var (
	ErrMissingToken    = errors.New("missing authorization")
	ErrMalformedHeader = errors.New("invalid authorization format")
)

// TokenFromRequest returns the bearer token of r. The Authorization header
// wins; without one the token query parameter is used. A header that is not
// a bearer credential is an error even when the query carries a token.
func TokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || scheme != "Bearer" || token == "" {
			return "", ErrMalformedHeader
		}
		return token, nil
	}
	if token := r.URL.Query().Get(TokenQueryParam); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

// AuthMiddleware rejects requests without a valid token and puts the user id
// on the request context.
func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := TokenFromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}

		userID, err := s.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

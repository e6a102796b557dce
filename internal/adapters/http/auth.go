package httpadapter

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/PabloGalante/trina/internal/domain"
	"github.com/PabloGalante/trina/internal/observability"
)

// withIdentity resolves an optional bearer token into the caller identity.
// No Authorization header means an anonymous caller; a bad token is a 401.
func withIdentity(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			userID, err := parseToken(raw, secret)
			if err != nil {
				observability.LoggerFromContext(r.Context()).Debug().Err(err).Msg("rejected bearer token")
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := domain.WithIdentity(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(raw string, secret []byte) (domain.UserID, error) {
	if len(secret) == 0 {
		return "", jwt.ErrTokenUnverifiable
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return domain.UserID(claims.Subject), nil
}

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/utils"
)

// TokenParser is the subset of utils.TokenManager the middleware needs.
type TokenParser interface {
	Parse(ctx context.Context, tokenStr string) (*utils.Claims, error)
}

// Auth rejects requests without a valid, unrevoked access token and puts the
// session claims on the request context.
func Auth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := utils.BearerToken(r)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			claims, err := tokens.Parse(r.Context(), tokenStr)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, utils.ErrTokenExpired) || errors.Is(err, utils.ErrTokenRevoked) {
					msg = "Session expired, please open the app again"
				}
				utils.WriteError(w, http.StatusUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(utils.WithClaims(r.Context(), claims)))
		})
	}
}

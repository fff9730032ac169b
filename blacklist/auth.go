package blacklist

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a bearer token fails validation.
var ErrInvalidToken = errors.New("blacklist: invalid bearer token")

// RequireToken guards a handler with HS256 bearer-token validation. Requests
// without a valid "Authorization: Bearer <token>" header get 401. Use it
// when the admin surface is reachable beyond the operator network:
//
//	http.Handle("/", blacklist.RequireToken(secret)(blacklist.Handler(store, logger)))
func RequireToken(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			header := req.Header.Get("Authorization")
			tokenString := strings.TrimPrefix(header, "Bearer ")
			if tokenString == header || strings.TrimSpace(tokenString) == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			_, err := jwt.Parse(strings.TrimSpace(tokenString), func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, ErrInvalidToken
				}
				return secret, nil
			})
			if err != nil {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}

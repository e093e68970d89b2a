package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"spendwise-server/src/identity"
)

// ParseTokenFromRequest extracts and validates the bearer token, returning its claims if valid
func ParseTokenFromRequest(r *http.Request, secret []byte) (jwt.MapClaims, error) {
	tokenString := r.Header.Get("Authorization")
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}

	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method")
		}
		return secret, nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token claims")
}

// UserIDFromClaims reads "user_id", falling back to the standard "sub" claim.
func UserIDFromClaims(claims jwt.MapClaims) (string, bool) {
	switch v := claims["user_id"].(type) {
	case string:
		if v != "" {
			return v, true
		}
	case float64:
		return strconv.FormatInt(int64(v), 10), true
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, true
	}
	return "", false
}

func JWTAuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ParseTokenFromRequest(r, key)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}

			userID, ok := UserIDFromClaims(claims)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "token has no user")
				return
			}

			ctx := identity.WithUserID(r.Context(), userID)
			log := zerolog.Ctx(ctx).With().Str("user_id", userID).Logger()
			ctx = log.WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

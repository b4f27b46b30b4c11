package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"tally/internal/core"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFrom returns the authenticated caller stored by the auth
// middleware.
func IdentityFrom(ctx context.Context) (core.Identity, bool) {
	id, ok := ctx.Value(identityKey).(core.Identity)
	return id, ok
}

func withIdentity(ctx context.Context, id core.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Authenticator verifies bearer tokens and resolves them to an
// identity. Tokens are HMAC-signed JWTs; "sub" is the user id, "email"
// and "name" fill the membership join key and display name.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

func (a *Authenticator) parseToken(r *http.Request) (core.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return core.Identity{}, fmt.Errorf("missing token")
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return core.Identity{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return core.Identity{}, fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return core.Identity{}, fmt.Errorf("token missing subject")
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return core.Identity{UID: sub, Email: email, Name: name}, nil
}

// Middleware rejects unauthenticated requests and stores the verified
// identity in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.parseToken(r)
		if err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

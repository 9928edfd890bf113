package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DevUserHeader carries the caller id when no JWT secret is configured.
const DevUserHeader = "X-User-ID"

type userIDKey struct{}

// UserID returns the authenticated caller stored in ctx.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// WithUserID returns ctx carrying id as the authenticated caller.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// authenticator resolves the caller of a request. With a secret it accepts
// HS256 bearer tokens whose subject is the user id; without one it trusts
// the DevUserHeader.
type authenticator struct {
	secret []byte
}

func (a authenticator) devMode() bool { return len(a.secret) == 0 }

func (a authenticator) identify(r *http.Request) (string, error) {
	if a.devMode() {
		id := strings.TrimSpace(r.Header.Get(DevUserHeader))
		if id == "" {
			return "", fmt.Errorf("%w: missing %s header", ErrUnauthenticated, DevUserHeader)
		}
		return id, nil
	}

	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// require rejects requests without a valid identity.
func (a authenticator) require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := a.identify(r)
		if err != nil {
			writeError(w, NewKind("api.auth", err))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	}
}

// IssueToken signs an HS256 token for userID valid for ttl.
func IssueToken(secret []byte, userID string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty jwt secret")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

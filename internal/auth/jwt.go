package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/anon-messaging-be/internal/apperr"
	"github.com/isdelr/anon-messaging-be/internal/models"
	"github.com/rs/zerolog/log"
)

// Claims defines the JWT claims structure. The phone is a snapshot taken
// when the token was issued.
type Claims struct {
	UserID int64  `json:"id"`
	Phone  string `json:"phone"`
	jwt.RegisteredClaims
}

// UserClaimsKey is the context key for user claims.
type contextKey string

const UserClaimsKey = contextKey("userClaims")

// TokenIssuer signs and verifies bearer tokens with a process-wide secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. A zero ttl issues tokens without an
// expiry claim.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateJWT creates a new JWT for a given user.
func (t *TokenIssuer) GenerateJWT(user models.User) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: user.ID,
		Phone:  user.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "sign token")
	}
	return signed, nil
}

// ValidateJWT parses and validates a JWT string.
func (t *TokenIssuer) ValidateJWT(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, apperr.New(apperr.Unauthorized, "missing auth token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized, err, "invalid auth token")
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, apperr.New(apperr.Unauthorized, "invalid auth token")
	}
	return claims, nil
}

// ClaimsFromContext returns the claims stored by JWTMiddleware or
// WebSocketJWTMiddleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

// JWTMiddleware creates a middleware for protecting routes. The token must
// arrive in the Authorization header.
func JWTMiddleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return authenticate(issuer, bearerToken)
}

// WebSocketJWTMiddleware is JWTMiddleware for websocket upgrades. Browsers
// cannot set headers on an upgrade, so the token query parameter is accepted
// when no Authorization header is sent.
func WebSocketJWTMiddleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return authenticate(issuer, func(r *http.Request) string {
		if r.Header.Get("Authorization") != "" {
			return bearerToken(r)
		}
		return r.URL.Query().Get("token")
	})
}

func authenticate(issuer *TokenIssuer, tokenFrom func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := issuer.ValidateJWT(tokenFrom(r))
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected bearer token")
				writeUnauthorized(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	msg := "invalid auth token"
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package realtime

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Stream tokens are short lived; clients mint a fresh one per connection.
const tokenTTL = 5 * time.Minute

// TokenIssuer mints and verifies the JWTs that authenticate websocket
// connections. Cookie auth does not survive cross-origin websocket
// upgrades cleanly, so the stream endpoint takes a token instead.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer creates an issuer with the given HMAC secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

type streamClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Issue mints a stream token for the given account.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := streamClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign stream token: %w", err)
	}
	return signed, nil
}

// Verify checks a stream token and returns the account id it was minted for.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &streamClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid stream token: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("invalid stream token")
	}
	return claims.UserID, nil
}

package utils

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// TokenTTL is the lifetime of a session token
const TokenTTL = time.Hour

// ErrInvalidToken covers missing, malformed, badly signed and expired tokens
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// TokenIssuer signs and verifies session tokens with one HMAC key
type TokenIssuer struct {
	key []byte
	now func() time.Time
}

// NewTokenIssuer returns an issuer for key
func NewTokenIssuer(key []byte) *TokenIssuer {
	return &TokenIssuer{key: key, now: time.Now}
}

// GenerateJWT generates a token for a user that expires after ttl
func (ti *TokenIssuer) GenerateJWT(userID, role string, ttl time.Duration) (string, error) {
	now := ti.now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.key)
}

// ParseJWT verifies tokenStr and returns its claims
func (ti *TokenIssuer) ParseJWT(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return ti.key, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

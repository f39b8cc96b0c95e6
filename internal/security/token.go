package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const RoleParent = "parent"

var ErrInvalidToken = errors.New("invalid or expired token")

// ParentClaims identify a parent-unlocked session
type ParentClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 parent tokens
type TokenIssuer struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

func NewTokenIssuer(secret string, duration time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), duration: duration, now: time.Now}
}

// Issue returns a signed token, its id and its expiry
func (i *TokenIssuer) Issue() (token, id string, expires time.Time, err error) {
	now := i.now()
	expires = now.Add(i.duration)
	id = uuid.NewString()

	claims := &ParentClaims{
		Role: RoleParent,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   RoleParent,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, id, expires, nil
}

// Parse verifies signature, expiry and role
func (i *TokenIssuer) Parse(tokenString string) (*ParentClaims, error) {
	claims := &ParentClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleParent {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

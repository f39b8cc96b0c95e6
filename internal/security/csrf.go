package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CSRFGenerator derives CSRF tokens from a parent token id with HMAC-SHA256.
// Requests authenticated by cookie must echo the token in X-CSRF-Token.
type CSRFGenerator struct {
	secret []byte
}

func NewCSRFGenerator(secret string) *CSRFGenerator {
	return &CSRFGenerator{secret: []byte(secret)}
}

// GenerateToken returns the CSRF token bound to tokenID
func (g *CSRFGenerator) GenerateToken(tokenID string) (string, error) {
	if tokenID == "" {
		return "", fmt.Errorf("token ID is required")
	}
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(tokenID))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// ValidateToken reports whether token matches tokenID
func (g *CSRFGenerator) ValidateToken(tokenID, token string) bool {
	if tokenID == "" || token == "" {
		return false
	}
	expected, err := g.GenerateToken(tokenID)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(token))
}

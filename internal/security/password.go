package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidPIN = errors.New("invalid parent PIN")

const (
	minPINLength = 4
	maxPINLength = 12
)

// ValidatePIN checks that a PIN is 4-12 digits
func ValidatePIN(pin string) error {
	if len(pin) < minPINLength || len(pin) > maxPINLength {
		return fmt.Errorf("PIN must be between %d and %d digits", minPINLength, maxPINLength)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return errors.New("PIN must contain only digits")
		}
	}
	return nil
}

// HashPIN returns the bcrypt hash stored in parent.pin_hash
func HashPIN(pin string) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash PIN: %w", err)
	}
	return string(hash), nil
}

// CheckPIN compares a PIN with its hash
func CheckPIN(hash, pin string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return ErrInvalidPIN
	}
	return nil
}

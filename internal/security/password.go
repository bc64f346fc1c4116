package security

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 255

	HashCost = 12
)

var ErrPasswordPolicy = fmt.Errorf("password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength)

// ValidatePassword enforces the length policy on a plaintext password.
func ValidatePassword(plain string) error {
	n := utf8.RuneCountInString(plain)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return ErrPasswordPolicy
	}
	return nil
}

// bcrypt only reads the first 72 bytes of its input. Passwords are reduced
// to a fixed 44-byte digest first so every character up to the policy
// maximum counts.
func prehash(plain string) []byte {
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(plain), HashCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(plain))
}

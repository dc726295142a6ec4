package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the default cost for bcrypt hashing.
	DefaultBcryptCost = 12

	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

// PasswordHasher enforces the password policy and hashes with bcrypt.
type PasswordHasher struct {
	cost int
	// decoy is compared against when no account matches the email, so an
	// unknown email costs as much as a wrong password.
	decoy []byte
}

// NewPasswordHasher creates a PasswordHasher with the default cost.
func NewPasswordHasher() *PasswordHasher {
	return NewPasswordHasherWithCost(DefaultBcryptCost)
}

// NewPasswordHasherWithCost creates a PasswordHasher with a custom cost.
func NewPasswordHasherWithCost(cost int) *PasswordHasher {
	decoy, err := bcrypt.GenerateFromPassword([]byte("decoy-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("auth: invalid bcrypt cost %d: %v", cost, err))
	}
	return &PasswordHasher{cost: cost, decoy: decoy}
}

// Check reports whether password satisfies the length policy.
func (h *PasswordHasher) Check(password string) error {
	switch {
	case len(password) < minPasswordLength:
		return ErrWeakPassword
	case len(password) > maxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// Hash checks the policy and returns the bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if err := h.Check(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// VerifyNone burns the same time as a failed Verify.
func (h *PasswordHasher) VerifyNone(password string) {
	_ = bcrypt.CompareHashAndPassword(h.decoy, []byte(password))
}

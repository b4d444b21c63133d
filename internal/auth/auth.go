// Package auth holds the two user roles and the admin credential check.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Role is the kind of user acting on the engine. Log records carry it.
type Role string

const (
	RoleGeneral Role = "general"
	RoleAdmin   Role = "admin"
)

// AdminUser is the basic-auth user name for admin API calls.
const AdminUser = "admin"

// DefaultAdminPassword is used when no ADMIN_PASSWORD_HASH is configured.
const DefaultAdminPassword = "admin123"

var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator verifies the admin password against a bcrypt hash.
type Authenticator struct {
	hash []byte
}

// NewAuthenticator builds an authenticator from a bcrypt hash. An empty hash
// falls back to DefaultAdminPassword.
func NewAuthenticator(hash string) (*Authenticator, error) {
	if hash == "" {
		h, err := HashPassword(DefaultAdminPassword)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parse admin password hash: %w", err)
	}
	return &Authenticator{hash: []byte(hash)}, nil
}

// VerifyAdmin returns nil when password matches the admin credential.
func (a *Authenticator) VerifyAdmin(password string) error {
	err := bcrypt.CompareHashAndPassword(a.hash, []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	return fmt.Errorf("verify admin password: %w", err)
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

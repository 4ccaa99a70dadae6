package auth

import (
	"errors"
	"strings"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// StaffAuthenticator checks logins against the single configured staff account.
type StaffAuthenticator struct {
	email  string
	hash   string
	hasher PasswordHasher
}

func NewStaffAuthenticator(email, passwordHash string, hasher PasswordHasher) *StaffAuthenticator {
	return &StaffAuthenticator{
		email:  strings.ToLower(strings.TrimSpace(email)),
		hash:   passwordHash,
		hasher: hasher,
	}
}

// Authenticate returns the role granted to the account on success.
// An unconfigured account rejects every login.
func (a *StaffAuthenticator) Authenticate(email, password string) (string, error) {
	if a.email == "" || a.hash == "" {
		return "", ErrInvalidCredentials
	}
	if strings.ToLower(strings.TrimSpace(email)) != a.email {
		return "", ErrInvalidCredentials
	}
	if err := a.hasher.Compare(a.hash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	return RoleAdmin, nil
}

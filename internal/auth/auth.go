// Package auth checks login credentials. It issues no sessions or tokens.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// bcrypt only reads the first 72 bytes and treats NUL as the key terminator,
// so longer passwords or ones carrying NUL could collide with the real one.
const maxPasswordLen = 72

func hashable(password string) bool {
	return len(password) <= maxPasswordLen && !strings.ContainsRune(password, 0)
}

type Identity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (Identity, error)
}

// StaticAuthenticator accepts exactly one email/password pair.
type StaticAuthenticator struct {
	identity Identity
	hash     []byte
}

func NewStaticAuthenticator(id Identity, password string) (*StaticAuthenticator, error) {
	if id.Email == "" || password == "" {
		return nil, errors.New("auth: email and password are required")
	}
	if !hashable(password) {
		return nil, errors.New("auth: password must be at most 72 bytes without NUL")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	return &StaticAuthenticator{identity: id, hash: hash}, nil
}

func (a *StaticAuthenticator) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	_ = ctx

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(a.identity.Email)) == 1
	// Always run bcrypt so a wrong email or an unhashable password costs the
	// same as a wrong password.
	candidate := password
	if !hashable(password) {
		candidate = ""
	}
	passErr := bcrypt.CompareHashAndPassword(a.hash, []byte(candidate))
	if !emailOK || passErr != nil || candidate != password {
		return Identity{}, ErrInvalidCredentials
	}
	return a.identity, nil
}

// Package profile manages the user profile and its per-user settings.
package profile

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrNotFound = errors.New("profile not found")

type ValidationError string

func (e ValidationError) Error() string { return string(e) }

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minNameLen = 2

type Profile struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Settings struct {
	NotificationsEnabled bool `json:"notificationsEnabled"`
	DarkModeEnabled      bool `json:"darkModeEnabled"`
}

func DefaultSettings() Settings {
	return Settings{NotificationsEnabled: true}
}

// SettingsPatch carries only the flags the caller wants to change.
type SettingsPatch struct {
	NotificationsEnabled *bool `json:"notificationsEnabled,omitempty"`
	DarkModeEnabled      *bool `json:"darkModeEnabled,omitempty"`
}

func (p SettingsPatch) Apply(s Settings) Settings {
	if p.NotificationsEnabled != nil {
		s.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.DarkModeEnabled != nil {
		s.DarkModeEnabled = *p.DarkModeEnabled
	}
	return s
}

type UpdateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Normalize trims every field.
func (r UpdateRequest) Normalize() UpdateRequest {
	return UpdateRequest{
		Name:    strings.TrimSpace(r.Name),
		Email:   strings.TrimSpace(r.Email),
		Phone:   strings.TrimSpace(r.Phone),
		Address: strings.TrimSpace(r.Address),
	}
}

// Validate checks a normalized request. Messages are shown to users verbatim.
func (r UpdateRequest) Validate() error {
	switch {
	case r.Name == "":
		return ValidationError("Nome é obrigatório")
	case utf8.RuneCountInString(r.Name) < minNameLen:
		return ValidationError("Nome deve ter pelo menos 2 caracteres")
	case r.Email == "":
		return ValidationError("E-mail é obrigatório")
	case !emailPattern.MatchString(r.Email):
		return ValidationError("E-mail inválido")
	}
	return nil
}

func (r UpdateRequest) applyTo(p Profile, now time.Time) Profile {
	p.Name = r.Name
	p.Email = r.Email
	p.Phone = r.Phone
	p.Address = r.Address
	p.UpdatedAt = now.UTC()
	return p
}

package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/k1networth/techdesk/internal/device"
	"github.com/k1networth/techdesk/internal/profile"
)

var ErrNotLoggedIn = errors.New("not logged in")

// UserData is the record persisted under device.KeyUserData.
type UserData struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// ProfileSync keeps the local copy authoritative: remote calls other than
// Login are best effort and their failures are only logged.
type ProfileSync struct {
	Log   *slog.Logger
	API   *Client
	Local device.Storage
	Now   func() time.Time
}

func (s *ProfileSync) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ProfileSync) Login(ctx context.Context, email, password string) (UserData, error) {
	id, err := s.API.Login(ctx, email, password)
	if err != nil {
		return UserData{}, err
	}
	u := UserData{ID: id.ID, Name: id.Name, Email: id.Email, LastUpdate: s.now().UTC()}
	if err := s.Local.Set(ctx, device.KeyUserData, u); err != nil {
		return UserData{}, err
	}
	return u, nil
}

func (s *ProfileSync) Logout(ctx context.Context) error {
	return s.Local.Delete(ctx, device.KeyUserData)
}

// Load returns the stored user, refreshing phone and address from the API when it answers.
func (s *ProfileSync) Load(ctx context.Context) (UserData, error) {
	u, err := s.local(ctx)
	if err != nil {
		return UserData{}, err
	}

	remote, err := s.API.GetProfile(ctx, u.ID)
	if err != nil {
		s.Log.Warn("profile_refresh_failed", slog.Int64("user_id", u.ID), slog.String("err", err.Error()))
		return u, nil
	}
	u.Phone = remote.Phone
	u.Address = remote.Address
	if err := s.Local.Set(ctx, device.KeyUserData, u); err != nil {
		s.Log.Warn("profile_cache_failed", slog.String("err", err.Error()))
	}
	return u, nil
}

// Save validates req, pushes it to the API and stores it locally.
func (s *ProfileSync) Save(ctx context.Context, req profile.UpdateRequest) (UserData, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return UserData{}, err
	}

	u, err := s.local(ctx)
	if err != nil {
		return UserData{}, err
	}

	if _, err := s.API.UpdateProfile(ctx, u.ID, req); err != nil {
		s.Log.Warn("profile_push_failed", slog.Int64("user_id", u.ID), slog.String("err", err.Error()))
	}

	u.Name, u.Email, u.Phone, u.Address = req.Name, req.Email, req.Phone, req.Address
	u.LastUpdate = s.now().UTC()
	if err := s.Local.Set(ctx, device.KeyUserData, u); err != nil {
		return UserData{}, err
	}
	return u, nil
}

// Settings reads the local flags, falling back to profile.DefaultSettings.
func (s *ProfileSync) Settings(ctx context.Context) (profile.Settings, error) {
	out := profile.DefaultSettings()
	if _, err := s.Local.Get(ctx, device.KeyNotificationsEnabled, &out.NotificationsEnabled); err != nil {
		return profile.Settings{}, err
	}
	if _, err := s.Local.Get(ctx, device.KeyDarkModeEnabled, &out.DarkModeEnabled); err != nil {
		return profile.Settings{}, err
	}
	return out, nil
}

func (s *ProfileSync) SetNotifications(ctx context.Context, on bool) error {
	return s.setFlag(ctx, device.KeyNotificationsEnabled, profile.SettingsPatch{NotificationsEnabled: &on}, on)
}

func (s *ProfileSync) SetDarkMode(ctx context.Context, on bool) error {
	return s.setFlag(ctx, device.KeyDarkModeEnabled, profile.SettingsPatch{DarkModeEnabled: &on}, on)
}

func (s *ProfileSync) setFlag(ctx context.Context, key string, patch profile.SettingsPatch, v bool) error {
	if err := s.Local.Set(ctx, key, v); err != nil {
		return err
	}
	u, err := s.local(ctx)
	if err != nil {
		// Flags are device preferences and do not need a signed-in user.
		return nil
	}
	if _, err := s.API.UpdateSettings(ctx, u.ID, patch); err != nil {
		s.Log.Warn("settings_push_failed", slog.String("key", key), slog.String("err", err.Error()))
	}
	return nil
}

func (s *ProfileSync) local(ctx context.Context) (UserData, error) {
	var u UserData
	ok, err := s.Local.Get(ctx, device.KeyUserData, &u)
	if err != nil {
		return UserData{}, err
	}
	if !ok {
		return UserData{}, ErrNotLoggedIn
	}
	return u, nil
}

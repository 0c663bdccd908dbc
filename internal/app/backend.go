package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"certcheck/internal/config"
	"certcheck/internal/credentials"
	"certcheck/internal/remote"
)

// BackendStatus is what `certcheck health` reports.
type BackendStatus struct {
	BaseURL        string
	Health         *remote.HealthResponse
	OAuthAvailable bool
}

// CheckBackend queries the backend's health endpoint and probes its
// sign-in route. It does not open the registry.
func CheckBackend(ctx context.Context, cfg *config.Config) (*BackendStatus, error) {
	c := remote.New(cfg.Remote.BaseURL, remote.WithTimeout(cfg.Remote.Timeout()))
	h, err := c.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking backend health: %w", err)
	}
	return &BackendStatus{
		BaseURL:        c.BaseURL(),
		Health:         h,
		OAuthAvailable: c.OAuthAvailable(ctx),
	}, nil
}

// SignInURL returns the backend URL where a user obtains a token.
func SignInURL(cfg *config.Config, redirectURI string) string {
	return remote.New(cfg.Remote.BaseURL).GoogleAuthURL(redirectURI)
}

// Login encrypts token with passphrase and saves it for later runs.
func Login(cfg *config.Config, token, passphrase string, now time.Time) (remote.Session, error) {
	if passphrase == "" {
		return remote.Session{}, errors.New("a passphrase is required to protect the token")
	}
	s := remote.NewSession(token)
	if s.Anonymous() {
		return s, fmt.Errorf("token is empty: %w", remote.ErrNoSession)
	}
	if s.Expired(now) {
		return s, errors.New("token has already expired")
	}
	if err := credentials.NewAgeStore(cfg.Remote.CredentialsPath).Save(passphrase, s, now); err != nil {
		return s, err
	}
	return s, nil
}

// LoadSession unlocks the saved session.
func LoadSession(cfg *config.Config, passphrase string) (remote.Session, error) {
	return credentials.NewAgeStore(cfg.Remote.CredentialsPath).Load(passphrase)
}

// Logout removes saved credentials.
func Logout(cfg *config.Config) error {
	return credentials.NewAgeStore(cfg.Remote.CredentialsPath).Delete()
}

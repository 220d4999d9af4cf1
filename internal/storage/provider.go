package storage

import (
	"io"

	"storecast/internal/config"
)

// Provider defines the behavior for any media storage backend.
// URL must be a local computation (presigning counts): it sits on the
// manifest hot path and may not do network round-trips.
type Provider interface {
	URL(key string) (string, error)
	Put(key string, body io.ReadSeeker, contentType string) error
	Exists(key string) (bool, error)
}

// New selects the backend from config.
func New(cfg *config.Config) Provider {
	if cfg.Storage.Provider == "local" {
		return NewLocalProvider(cfg.Storage.LocalPath, cfg.Storage.PublicBaseURL)
	}
	return NewS3Provider(cfg)
}

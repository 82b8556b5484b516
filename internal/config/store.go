// Package config loads and saves the operator settings of the codec daemon.
package config

import "github.com/micro-nova/acodec-go/internal/models"

// Store is the interface for persisting operator settings.
type Store interface {
	// Load loads the current settings. Returns DefaultSettings if no file exists.
	Load() (*models.Settings, error)

	// Save persists the settings. Implementations may debounce rapid saves.
	Save(s *models.Settings) error

	// Path returns the file path used by this store.
	Path() string

	// Flush forces an immediate write of any pending settings.
	Flush() error
}

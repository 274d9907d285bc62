// Package store provides persistence backends for the watcher's single
// durable state record.
package store

import (
	"context"

	"github.com/fuelwatch/fuelwatch/internal/models"
)

// Store is the load/save contract for the persisted refresh state. One
// record exists per configured instance; it is read once at startup and
// written back after every refresh cycle.
type Store interface {
	// Load returns the persisted state, or a fresh empty state when none
	// has been written yet.
	Load(ctx context.Context) (*models.PersistedState, error)

	// Save writes the state to durable storage.
	Save(ctx context.Context, st *models.PersistedState) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Package localstore persists small pieces of client state (session descriptor,
// selected language) under string keys.
package localstore

import (
	"context"
)

const (
	// SessionKey holds the serialized session descriptor.
	SessionKey = "chatUser"
	// LanguageKey holds the selected display language code.
	LanguageKey = "language"
)

// Store is a string key-value store. Get returns models.ErrNotFound for absent
// keys; deleting an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Driver string

const (
	DriverFile   Driver = "file"
	DriverSQLite Driver = "sqlite"
	DriverMongo  Driver = "mongo"
)

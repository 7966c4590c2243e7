// Package storage is the tool's "local storage": a small string key/value
// store backed by a JSON file or SQLite.
package storage

import (
	"context"
	"fmt"
	"strings"
)

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

type Config struct {
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`
	Path   string `json:"path" yaml:"path" mapstructure:"path"`
}

// Open picks the backend named by cfg.Driver. An empty driver means file.
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverFile:
		return OpenFile(cfg.Path)
	case DriverSQLite:
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func validKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("storage key is required")
	}
	return key, nil
}

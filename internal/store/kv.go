package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// KV is the durable string key-value store the collections are persisted in.
// Get reports found=false for a missing key; that is not an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Supported KV backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendValkey = "valkey"
)

// KVConfig selects and configures a KV backend.
type KVConfig struct {
	// Backend is one of memory, file, sqlite, valkey.
	Backend string
	// DataDir is used by the file backend and as the default location of
	// the sqlite database.
	DataDir string
	// SQLitePath overrides the sqlite database file.
	SQLitePath string
	Valkey     ValkeyConfig
}

// OpenKV opens the backend named by cfg.Backend.
func OpenKV(ctx context.Context, cfg KVConfig) (KV, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendMemory:
		return NewMemoryKV(), nil
	case BackendFile, "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("file backend requires a data directory")
		}
		return NewFileKV(cfg.DataDir)
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			if cfg.DataDir == "" {
				return nil, fmt.Errorf("sqlite backend requires a database path or data directory")
			}
			path = filepath.Join(cfg.DataDir, "mailcampaign.db")
		}
		return NewSQLiteKV(ctx, path)
	case BackendValkey:
		return NewValkeyKV(cfg.Valkey)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q (valid: memory, file, sqlite, valkey)", cfg.Backend)
	}
}

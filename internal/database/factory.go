package database

import (
	"fmt"
	"os"
	"path/filepath"

	"ecorpus-go/internal/config"
)

// NewDatabaseFromConfig opens the catalog described by cfg and brings its
// schema up to date.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (*DB, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for sqlite database")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		path = cfg.Path
	case "memory":
		path = MemoryPath
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return db, nil
}

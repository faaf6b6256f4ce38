package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/tbourn/go-repair-scheduler/internal/config"
	"github.com/tbourn/go-repair-scheduler/internal/repo"
	"github.com/tbourn/go-repair-scheduler/internal/services"
)

// backend is an opened storage backend. db is non-nil for the SQL backends
// and also carries the idempotency table.
type backend struct {
	store services.BlobStore
	db    *gorm.DB
	close func() error
}

// ready probes the backend. SQL backends only stat the row.
func (b *backend) ready(ctx context.Context, key string) error {
	if s, ok := b.store.(*repo.SQLStore); ok {
		_, _, err := s.Stat(ctx, key)
		return err
	}
	_, _, err := b.store.Get(ctx, key)
	return err
}

// openBackend opens the blob store named by cfg.Backend.
func openBackend(cfg config.StorageConfig) (*backend, error) {
	switch cfg.Backend {
	case "sqlite":
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.DBPath, err)
		}
		return sqlBackend(db)
	case "postgres":
		db, err := repo.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return sqlBackend(db)
	case "bolt":
		bs, err := repo.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("open bolt %s: %w", cfg.BoltPath, err)
		}
		return &backend{store: bs, close: bs.Close}, nil
	case "file":
		fs, err := repo.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("open file store %s: %w", cfg.Dir, err)
		}
		return &backend{store: fs, close: func() error { return nil }}, nil
	case "memory":
		return &backend{store: repo.NewMemoryStore(), close: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func sqlBackend(db *gorm.DB) (*backend, error) {
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &backend{
		store: repo.NewSQLStore(db),
		db:    db,
		close: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}

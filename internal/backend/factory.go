package backend

import (
	"context"
	"fmt"
	"log/slog"

	"viajjo/internal/storage"
)

// Backend is an opened store and the function that releases it.
type Backend struct {
	Store   storage.Store
	Cleanup func() error
}

// Open validates cfg and opens the selected store. SQL backends are
// migrated before they are returned.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec, err := storage.CodecByName(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	var store storage.Store
	switch cfg.Type {
	case MemoryBackend:
		store = storage.NewMemoryStore(codec)
		logger.Warn("Using memory store, data is lost on restart", "encoding", codec.Name())
	case SQLiteBackend:
		if store, err = storage.NewSQLiteStore(cfg.SQLiteDBPath, codec); err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("Opened SQLite store", "db_path", cfg.SQLiteDBPath, "encoding", codec.Name())
	case PostgresBackend:
		if store, err = storage.NewPostgresStore(cfg.PostgresDSN, codec); err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		logger.Info("Opened Postgres store", "encoding", codec.Name())
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ping %s store: %w", cfg.Type, err)
	}
	return &Backend{Store: store, Cleanup: store.Close}, nil
}

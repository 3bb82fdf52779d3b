package backend

import (
	"context"
	"path/filepath"
	"testing"

	"viajjo/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "./x.db", StoreEncoding: "opaque"}
	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bc.Type != SQLiteBackend || bc.Encoding != "opaque" || bc.SQLiteDBPath != "./x.db" {
		t.Fatalf("unexpected backend config %+v", bc)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "v.db"), Encoding: "json"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without dsn", Config{Type: PostgresBackend}, true},
		{"bad encoding", Config{Type: MemoryBackend, Encoding: "rot13"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Open(ctx, tt.config, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := res.Store.Ping(ctx); err != nil {
				t.Fatalf("ping: %v", err)
			}
			if err := res.Cleanup(); err != nil {
				t.Fatalf("cleanup: %v", err)
			}
		})
	}
}

package backend

import (
	"errors"
	"fmt"

	"viajjo/internal/config"
)

// BackendType names a storage engine for user records and sessions.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// requiredSetting names the config field each engine cannot start without.
var requiredSetting = map[BackendType]string{
	MemoryBackend:   "",
	SQLiteBackend:   "SQLITE_DB_PATH",
	PostgresBackend: "POSTGRES_DSN",
}

func (bt BackendType) IsValid() bool {
	_, ok := requiredSetting[bt]
	return ok
}

// Config is the subset of the app config needed to open a store.
type Config struct {
	Type BackendType
	// Encoding is "json" or "opaque"; empty means json.
	Encoding string

	SQLiteDBPath string
	PostgresDSN  string
}

func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("backend: nil app config")
	}
	bc := Config{
		Type:         BackendType(cfg.DataBackend),
		Encoding:     cfg.StoreEncoding,
		SQLiteDBPath: cfg.SQLiteDBPath,
		PostgresDSN:  cfg.PostgresDSN,
	}
	if !bc.Type.IsValid() {
		return Config{}, fmt.Errorf("backend: unknown DATA_BACKEND %q", cfg.DataBackend)
	}
	return bc, nil
}

func (c Config) location() string {
	switch c.Type {
	case SQLiteBackend:
		return c.SQLiteDBPath
	case PostgresBackend:
		return c.PostgresDSN
	}
	return ""
}

func (c Config) Validate() error {
	setting, ok := requiredSetting[c.Type]
	if !ok {
		return fmt.Errorf("backend: unknown type %q", c.Type)
	}
	if setting != "" && c.location() == "" {
		return fmt.Errorf("backend: %s is required for the %s backend", setting, c.Type)
	}
	return nil
}

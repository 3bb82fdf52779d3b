package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL driver, placeholder style and migration set.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

const (
	entriesTable = "kv_entries"
	colKey       = "entry_key"
	colValue     = "entry_value"
	colUpdatedAt = "updated_at"
)

func (d Dialect) driverName() string {
	return string(d)
}

func (d Dialect) builder() sq.StatementBuilderType {
	if d == Postgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// SQLStore keeps documents in a single key/value table.
type SQLStore struct {
	db      *sql.DB
	sb      sq.StatementBuilderType
	codec   Codec
	dialect Dialect
	now     func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database file at dbPath and
// applies migrations.
func NewSQLiteStore(dbPath string, codec Codec) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return openSQLStore(SQLite, dbPath, codec)
}

// NewPostgresStore connects to dsn and applies migrations.
func NewPostgresStore(dsn string, codec Codec) (*SQLStore, error) {
	return openSQLStore(Postgres, dsn, codec)
}

func openSQLStore(dialect Dialect, dsn string, codec Codec) (*SQLStore, error) {
	if codec == nil {
		codec = JSONCodec{}
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == SQLite {
		// one writer at a time avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLStore{
		db:      db,
		sb:      dialect.builder(),
		codec:   codec,
		dialect: dialect,
		now:     time.Now,
	}, nil
}

func (s *SQLStore) Save(ctx context.Context, key string, value any) error {
	b, err := s.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	query := s.sb.Insert(entriesTable).
		Columns(colKey, colValue, colUpdatedAt).
		Values(key, b, s.now().UTC().Unix()).
		Suffix(fmt.Sprintf("ON CONFLICT(%[1]s) DO UPDATE SET %[2]s = excluded.%[2]s, %[3]s = excluded.%[3]s",
			colKey, colValue, colUpdatedAt))

	if _, err := query.RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, key string, dst any) error {
	query := s.sb.Select(colValue).
		From(entriesTable).
		Where(sq.Eq{colKey: key})

	var b []byte
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := s.codec.Decode(b, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	query := s.sb.Delete(entriesTable).Where(sq.Eq{colKey: key})
	if _, err := query.RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

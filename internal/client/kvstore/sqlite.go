package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/chafidzadlan/anotherfile/internal/client/migrations"
	"github.com/chafidzadlan/anotherfile/internal/common"
	"github.com/chafidzadlan/anotherfile/internal/dbx"
	"github.com/pressly/goose/v3"
)

// SQLiteStore persists key-value pairs in the local client database.
type SQLiteStore struct {
	db dbx.DBTX
}

func NewSQLiteStore(db dbx.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	// Set the database dialect
	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatal("failed to set goose dialect:", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if necessary) the local sqlite database and
// applies migrations. The caller owns the returned handle.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM kv_state WHERE key = ?`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}

	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	query := `INSERT INTO kv_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}

	return nil
}

// SetAll writes every pair in one transaction when the store was built on a
// *sql.DB, so related keys never end up half-updated. On a transactional
// handle it degrades to sequential writes.
func (s *SQLiteStore) SetAll(ctx context.Context, pairs map[string][]byte) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		for key, value := range pairs {
			if err := s.Set(ctx, key, value); err != nil {
				return err
			}
		}
		return nil
	}

	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		inner := NewSQLiteStore(tx)
		for key, value := range pairs {
			if err := inner.Set(ctx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

package keyvault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// SQLiteStore reads records from the encrypted_keys table of an existing,
// provisioned database. It never creates the file or the schema.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: sqlite key store %q: %v", ErrConfiguration, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: sqlite key store %q is a directory", ErrConfiguration, path)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrConfiguration, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping sqlite: %v", ErrConfiguration, err)
	}
	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'encrypted_keys'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite key store %q has no encrypted_keys table", ErrConfiguration, path)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: inspect sqlite schema: %v", ErrConfiguration, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, wallet string) (string, error) {
	var record string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM encrypted_keys WHERE wallet = ?`, wallet).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query key record: %w", err)
	}
	return record, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

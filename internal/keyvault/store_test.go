package keyvault

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"
)

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	wallet := solana.NewWallet().PublicKey().String()
	if err := os.WriteFile(filepath.Join(dir, wallet+".key"), []byte("cmVjb3Jk\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	got, err := store.Get(context.Background(), wallet)
	if err != nil || got != "cmVjb3Jk" {
		t.Fatalf("expected record, got %q (%v)", got, err)
	}
	if _, err := store.Get(context.Background(), solana.NewWallet().PublicKey().String()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(context.Background(), "../../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed wallet, got %v", err)
	}
}

func TestFileStoreMissingDir(t *testing.T) {
	if _, err := NewFileStore(filepath.Join(t.TempDir(), "absent")); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

// provisionSQLite creates a key database the way an operator would, outside the store.
func provisionSQLite(t *testing.T, path string, rows map[string]string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE encrypted_keys (wallet TEXT PRIMARY KEY, record TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for wallet, record := range rows {
		if _, err := db.Exec(`INSERT INTO encrypted_keys (wallet, record) VALUES (?, ?)`, wallet, record); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.db")
	wallet := solana.NewWallet().PublicKey().String()
	provisionSQLite(t, path, map[string]string{wallet: "cmVjb3Jk"})

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	got, err := store.Get(context.Background(), wallet)
	if err != nil || got != "cmVjb3Jk" {
		t.Fatalf("expected record, got %q (%v)", got, err)
	}
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.db.Exec(`INSERT INTO encrypted_keys (wallet, record) VALUES ('x', 'y')`); err == nil {
		t.Fatalf("store connection should be read-only")
	}
}

func TestSQLiteStoreMissingPathIsNotCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.db")
	if _, err := NewSQLiteStore(path); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("missing key store must not be created, stat: %v", err)
	}
}

func TestSQLiteStoreWithoutTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE other (id INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	db.Close()

	if _, err := NewSQLiteStore(path); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

type fakeHash map[string]string

func (f fakeHash) HGet(_ context.Context, _, field string) *redis.StringCmd {
	if v, ok := f[field]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func TestRedisStore(t *testing.T) {
	store := &RedisStore{client: fakeHash{"wallet-a": "cmVjb3Jk"}, key: "keyvault:records"}
	got, err := store.Get(context.Background(), "wallet-a")
	if err != nil || got != "cmVjb3Jk" {
		t.Fatalf("expected record, got %q (%v)", got, err)
	}
	if _, err := store.Get(context.Background(), "wallet-b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

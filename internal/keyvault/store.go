package keyvault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	solana "github.com/gagliardetto/solana-go"
)

// Store is the read path of the encrypted key records, one per wallet address.
// Missing records return ErrNotFound.
type Store interface {
	Get(ctx context.Context, wallet string) (string, error)
	Close() error
}

// FileStore keeps each record in <dir>/<wallet>.key.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: key directory: %v", ErrConfiguration, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrConfiguration, dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Get(_ context.Context, wallet string) (string, error) {
	// only well-formed addresses may become file names
	if _, err := solana.PublicKeyFromBase58(wallet); err != nil {
		return "", ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, wallet+".key"))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read key record: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) Close() error { return nil }

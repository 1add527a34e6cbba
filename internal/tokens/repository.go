package tokens

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/efactura/internal/filex"
)

// Repository stores the encoded token record.
type Repository interface {
	// Read returns the stored bytes, or nil when nothing is stored.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// FileRepository keeps the record in a single file readable only by its owner.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Path() string { return r.path }

func (r *FileRepository) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file %s: %w", r.path, err)
	}
	return data, nil
}

func (r *FileRepository) Write(ctx context.Context, data []byte) error {
	if err := filex.EnsureDir(filepath.Dir(r.path)); err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(r.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

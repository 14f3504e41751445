package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"newsdigest/internal/domain"
)

// FileStore хранит артефакт закладок в JSON-файле.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path возвращает путь к файлу артефакта.
func (s *FileStore) Path() string { return s.path }

// ReadArtifact читает файл целиком.
func (s *FileStore) ReadArtifact(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, domain.ErrNoBookmarkContext)
		}
		return nil, fmt.Errorf("failed to read bookmark context %s: %w", s.path, err)
	}
	return data, nil
}

// WriteArtifact атомарно заменяет файл: пишет во временный и переименовывает.
func (s *FileStore) WriteArtifact(ctx context.Context, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".bookmark_context-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write bookmark context: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close bookmark context: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to move bookmark context into place: %w", err)
	}
	return nil
}

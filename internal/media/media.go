package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"techstore-backend/internal/apperr"
)

// Store persists an uploaded image and returns a reference URL for it.
// Remove discards a previously saved image; removing an unknown reference
// is not an error.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// LocalStore writes uploads to a directory served under BasePath.
type LocalStore struct {
	Dir      string
	BasePath string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{Dir: dir, BasePath: "/uploads"}, nil
}

func (s *LocalStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", apperr.Field(apperr.ErrValidation, "image", "allowed formats: jpg, jpeg, png")
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}

	return s.BasePath + "/" + name, nil
}

func (s *LocalStore) Remove(ctx context.Context, url string) error {
	name := filepath.Base(strings.TrimPrefix(url, s.BasePath+"/"))
	if name == "" || name == "." || name == "/" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload file: %w", err)
	}
	return nil
}

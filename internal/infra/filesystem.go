package infra

import (
	"context"
	"io/fs"
	"os"

	"github.com/fpt/editagent/internal/repository"
)

// OSFilesystemRepository implements repository.FilesystemRepository using os package
type OSFilesystemRepository struct{}

// NewOSFilesystemRepository creates a new OS-based filesystem repository
func NewOSFilesystemRepository() repository.FilesystemRepository {
	return &OSFilesystemRepository{}
}

func (r *OSFilesystemRepository) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (r *OSFilesystemRepository) WriteFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// CreateFile opens path with O_EXCL so a concurrent creator cannot be overwritten.
func (r *OSFilesystemRepository) CreateFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (r *OSFilesystemRepository) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (r *OSFilesystemRepository) MkdirAll(ctx context.Context, path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Exists reports whether path exists. Errors other than fs.ErrNotExist are returned.
func (r *OSFilesystemRepository) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

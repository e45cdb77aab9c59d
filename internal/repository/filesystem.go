package repository

import (
	"context"
	"io/fs"
)

// FilesystemRepository abstracts the filesystem operations the editor engine needs.
// Errors keep their fs sentinel identity (fs.ErrNotExist, fs.ErrExist, fs.ErrPermission)
// so callers can classify them with errors.Is.
type FilesystemRepository interface {
	// File operations
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error
	// CreateFile writes data to a new file and fails with fs.ErrExist if path exists.
	CreateFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error
	Stat(ctx context.Context, path string) (fs.FileInfo, error)

	// Directory operations
	MkdirAll(ctx context.Context, path string, perm fs.FileMode) error

	// File existence
	Exists(ctx context.Context, path string) (bool, error)
}

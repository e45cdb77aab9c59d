package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// UserConfig locates per-user data under ~/.editagent
type UserConfig struct {
	BaseDir     string // $HOME/.editagent
	HistoryFile string // $HOME/.editagent/history
	LogDir      string // $HOME/.editagent/logs
}

// DefaultUserConfig creates the default user configuration
func DefaultUserConfig() (*UserConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user home directory")
	}

	config := NewUserConfig(filepath.Join(homeDir, ".editagent"))
	if err := config.EnsureDirectories(); err != nil {
		return nil, errors.Wrap(err, "failed to create user directories")
	}
	return config, nil
}

// NewUserConfig lays out the data files under baseDir.
func NewUserConfig(baseDir string) *UserConfig {
	return &UserConfig{
		BaseDir:     baseDir,
		HistoryFile: filepath.Join(baseDir, "history"),
		LogDir:      filepath.Join(baseDir, "logs"),
	}
}

// EnsureDirectories creates the user configuration directories if they don't exist
func (c *UserConfig) EnsureDirectories() error {
	for _, dir := range []string{c.BaseDir, c.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	return nil
}

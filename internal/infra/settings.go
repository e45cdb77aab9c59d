package infra

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/fpt/editagent/internal/repository"
)

const (
	settingsDirName  = ".editagent"
	settingsLockWait = 5 * time.Second
	lockPollInterval = 50 * time.Millisecond
)

// settingsFileNames lists the accepted names in lookup order.
var settingsFileNames = []string{"settings.json", "settings.yaml", "settings.yml", "settings.toml"}

// FileSettingsRepository persists settings in a JSON, YAML or TOML file.
type FileSettingsRepository struct {
	configPath string   // Specific path (empty means search for file)
	searchDirs []string // Directories searched when configPath is empty
}

// InMemorySettingsRepository represents in-memory-only settings repository
type InMemorySettingsRepository struct {
	data   []byte
	format string
}

// NewFileSettingsRepository searches ./.editagent then ~/.editagent when
// configPath is empty.
func NewFileSettingsRepository(configPath string) *FileSettingsRepository {
	dirs := []string{settingsDirName}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, settingsDirName))
	}
	return NewFileSettingsRepositoryWithSearchDirs(configPath, dirs...)
}

// NewFileSettingsRepositoryWithSearchDirs uses an explicit search order.
func NewFileSettingsRepositoryWithSearchDirs(configPath string, dirs ...string) *FileSettingsRepository {
	return &FileSettingsRepository{configPath: configPath, searchDirs: dirs}
}

// DefaultSettingsPath is where a first run writes its settings.
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(home, settingsDirName, "settings.json"), nil
}

// NewInMemorySettingsRepository creates a new in-memory settings repository
func NewInMemorySettingsRepository() *InMemorySettingsRepository {
	return &InMemorySettingsRepository{format: repository.SettingsFormatJSON}
}

// NewInMemorySettingsRepositoryWithFormat stores documents in the given format.
func NewInMemorySettingsRepositoryWithFormat(format string, data []byte) *InMemorySettingsRepository {
	return &InMemorySettingsRepository{format: format, data: data}
}

// FileSettingsRepository methods
func (fr *FileSettingsRepository) Load() ([]byte, error) {
	path, err := fr.resolve()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New("no settings file found")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("settings file does not exist: %s", path)
		}
		return nil, errors.Wrap(err, "failed to read settings file")
	}
	return data, nil
}

// Save writes the document under an exclusive lock on <file>.lock.
func (fr *FileSettingsRepository) Save(data []byte) error {
	path, err := fr.resolve()
	if err != nil {
		return err
	}
	if path == "" {
		if path, err = DefaultSettingsPath(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	ctx, cancel := context.WithTimeout(context.Background(), settingsLockWait)
	defer cancel()

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockPollInterval)
	if err != nil {
		return errors.Wrapf(err, "failed to lock settings file %s", path)
	}
	if !locked {
		return errors.Errorf("settings file %s is locked by another process", path)
	}
	defer lock.Unlock()

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write settings file")
	}
	return nil
}

func (fr *FileSettingsRepository) FindSettingsFile() (string, error) {
	for _, dir := range fr.searchDirs {
		for _, name := range settingsFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}
	return "", nil
}

// Format follows the extension of the resolved file; JSON when unknown.
func (fr *FileSettingsRepository) Format() string {
	path, _ := fr.resolve()
	return FormatForPath(path)
}

func (fr *FileSettingsRepository) resolve() (string, error) {
	if fr.configPath != "" {
		return fr.configPath, nil
	}
	return fr.FindSettingsFile()
}

// FormatForPath maps a settings file extension to its encoding.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return repository.SettingsFormatYAML
	case ".toml":
		return repository.SettingsFormatTOML
	default:
		return repository.SettingsFormatJSON
	}
}

// InMemorySettingsRepository methods
func (mr *InMemorySettingsRepository) Load() ([]byte, error) {
	if mr.data == nil {
		return nil, errors.New("no data stored in memory repository")
	}
	return mr.data, nil
}

func (mr *InMemorySettingsRepository) Save(data []byte) error {
	mr.data = make([]byte, len(data))
	copy(mr.data, data)
	return nil
}

func (mr *InMemorySettingsRepository) FindSettingsFile() (string, error) {
	// In-memory repository doesn't have files
	return "", nil
}

func (mr *InMemorySettingsRepository) Format() string { return mr.format }

package repository

// Settings document encodings, chosen by file extension.
const (
	SettingsFormatJSON = "json"
	SettingsFormatYAML = "yaml"
	SettingsFormatTOML = "toml"
)

// SettingsRepository abstracts settings persistence
type SettingsRepository interface {
	Load() ([]byte, error)
	Save(data []byte) error
	FindSettingsFile() (string, error)
	// Format reports how the stored document is encoded.
	Format() string
}

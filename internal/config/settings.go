package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fpt/editagent/internal/infra"
	"github.com/fpt/editagent/internal/repository"
	"github.com/fpt/editagent/pkg/agent/domain"
	pkgLogger "github.com/fpt/editagent/pkg/logger"
)

// Default maximum iterations for agents
const DefaultAgentMaxIterations = 30

// Supported LLM backends
const (
	BackendAnthropic  = "anthropic"
	BackendOpenAI     = "openai"
	BackendOllama     = "ollama"
	BackendGemini     = "gemini"
	BackendCompatible = "compatible"
)

// Backends lists the backend names in display order.
var Backends = []string{BackendAnthropic, BackendOpenAI, BackendGemini, BackendOllama, BackendCompatible}

// Settings represents the main application settings
type Settings struct {
	LLM    LLMSettings    `json:"llm" yaml:"llm" toml:"llm"`
	Editor EditorSettings `json:"editor" yaml:"editor" toml:"editor"`
	MCP    MCPSettings    `json:"mcp" yaml:"mcp" toml:"mcp"`
	Agent  AgentSettings  `json:"agent" yaml:"agent" toml:"agent"`

	// Repository for persistence (nil for in-memory only)
	settingsRepository repository.SettingsRepository `json:"-" yaml:"-" toml:"-"`
}

// LLMSettings contains LLM client configuration
type LLMSettings struct {
	Backend        string   `json:"backend" yaml:"backend" toml:"backend"`
	Model          string   `json:"model" yaml:"model" toml:"model"`
	BaseURL        string   `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	APIKeyEnvName  string   `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty" toml:"api_key_env,omitempty"`
	MaxTokens      int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature,omitempty"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"`
	MaxRetries     int      `json:"max_retries,omitempty" yaml:"max_retries,omitempty" toml:"max_retries,omitempty"`

	// NativeEditorTool declares the editor as Anthropic's built-in text editor tool.
	NativeEditorTool bool `json:"native_editor_tool" yaml:"native_editor_tool" toml:"native_editor_tool"`
}

// EditorSettings tunes the file editing tool
type EditorSettings struct {
	StrictInsertLine bool `json:"strict_insert_line" yaml:"strict_insert_line" toml:"strict_insert_line"`
	LogOperations    bool `json:"log_operations" yaml:"log_operations" toml:"log_operations"`
}

// MCPSettings contains MCP server configuration
type MCPSettings struct {
	Servers []domain.MCPServerConfig `json:"servers,omitempty" yaml:"servers,omitempty" toml:"servers,omitempty"`
}

// AgentSettings contains agent behavior configuration
type AgentSettings struct {
	MaxIterations int    `json:"max_iterations" yaml:"max_iterations" toml:"max_iterations"`
	LogLevel      string `json:"log_level" yaml:"log_level" toml:"log_level"`
	SystemPrompt  string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty" toml:"system_prompt,omitempty"`
}

// NewSettings creates new settings with in-memory repository
func NewSettings() *Settings {
	return NewSettingsWithRepository(infra.NewInMemorySettingsRepository())
}

// NewSettingsWithRepository creates new settings with injected repository
func NewSettingsWithRepository(settingsRepository repository.SettingsRepository) *Settings {
	settings := GetDefaultSettings()
	settings.settingsRepository = settingsRepository
	return settings
}

// NewSettingsWithPath creates new settings with file-based repository
func NewSettingsWithPath(configPath string) *Settings {
	return NewSettingsWithRepository(infra.NewFileSettingsRepository(configPath))
}

// Load replaces the settings with the stored document. Fields the document
// omits keep their defaults; the model default follows the loaded backend.
func (s *Settings) Load() error {
	if s.settingsRepository == nil {
		return errors.New("no settings repository configured")
	}

	data, err := s.settingsRepository.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load settings")
	}

	loaded := GetDefaultSettings()
	loaded.LLM.Backend = ""
	loaded.LLM.Model = ""
	if err := decodeSettings(s.settingsRepository.Format(), data, loaded); err != nil {
		return errors.Wrap(err, "failed to parse settings")
	}
	applyDefaults(loaded)

	loaded.settingsRepository = s.settingsRepository
	*s = *loaded
	return nil
}

// Save saves settings to the repository
func (s *Settings) Save() error {
	if s.settingsRepository == nil {
		return errors.New("no settings repository configured")
	}

	data, err := encodeSettings(s.settingsRepository.Format(), s)
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}
	return s.settingsRepository.Save(data)
}

func decodeSettings(format string, data []byte, s *Settings) error {
	switch format {
	case repository.SettingsFormatYAML:
		return yaml.Unmarshal(data, s)
	case repository.SettingsFormatTOML:
		return toml.Unmarshal(data, s)
	default:
		return json.Unmarshal(data, s)
	}
}

func encodeSettings(format string, s *Settings) ([]byte, error) {
	switch format {
	case repository.SettingsFormatYAML:
		return yaml.Marshal(s)
	case repository.SettingsFormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(s); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return json.MarshalIndent(s, "", "  ")
	}
}

// LoadSettings loads settings from configPath, or from the first file found
// in the search order. A default file is written when none exists.
func LoadSettings(configPath string) (*Settings, error) {
	settings := NewSettingsWithPath(configPath)

	if configPath == "" {
		foundPath, _ := settings.settingsRepository.FindSettingsFile()
		if foundPath == "" {
			return createDefaultSettingsFile()
		}
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createSettingsFileAtPath(configPath)
	}

	if err := settings.Load(); err != nil {
		return nil, err
	}
	return settings, nil
}

// GetDefaultSettings returns default application settings
func GetDefaultSettings() *Settings {
	return &Settings{
		LLM: GetDefaultLLMSettingsForBackend(BackendAnthropic),
		Editor: EditorSettings{
			StrictInsertLine: false,
			LogOperations:    true,
		},
		Agent: AgentSettings{
			MaxIterations: DefaultAgentMaxIterations,
			LogLevel:      "info",
		},
	}
}

// GetDefaultLLMSettingsForBackend returns default LLM settings for a specific backend
func GetDefaultLLMSettingsForBackend(backend string) LLMSettings {
	base := LLMSettings{
		Backend:          backend,
		TimeoutSeconds:   120,
		MaxRetries:       2,
		NativeEditorTool: true,
	}
	switch backend {
	case BackendAnthropic:
		base.Model = "claude-sonnet-4-5"
	case BackendOpenAI:
		base.Model = "gpt-5-mini"
	case BackendGemini:
		base.Model = "gemini-2.5-flash"
	case BackendOllama:
		base.Model = "gpt-oss:20b"
		base.BaseURL = "http://localhost:11434"
	case BackendCompatible:
		base.BaseURL = "http://localhost:4000/v1"
	default:
		return GetDefaultLLMSettingsForBackend(BackendAnthropic)
	}
	return base
}

// applyDefaults fills in missing fields with default values
func applyDefaults(settings *Settings) {
	if settings.LLM.Backend == "" {
		settings.LLM.Backend = BackendAnthropic
	}
	settings.LLM.Backend = strings.ToLower(settings.LLM.Backend)
	if settings.LLM.Backend == "claude" {
		settings.LLM.Backend = BackendAnthropic
	}

	defaults := GetDefaultLLMSettingsForBackend(settings.LLM.Backend)
	if settings.LLM.Model == "" {
		settings.LLM.Model = defaults.Model
	}
	if settings.LLM.BaseURL == "" && settings.LLM.Backend == BackendOllama {
		settings.LLM.BaseURL = defaults.BaseURL
	}

	if settings.Agent.MaxIterations == 0 {
		settings.Agent.MaxIterations = DefaultAgentMaxIterations
	}
	if settings.Agent.LogLevel == "" {
		settings.Agent.LogLevel = "info"
	}
}

// DefaultAPIKeyEnv names the environment variable holding the backend's key.
func DefaultAPIKeyEnv(backend string) string {
	switch backend {
	case BackendAnthropic:
		return "ANTHROPIC_API_KEY"
	case BackendOpenAI, BackendCompatible:
		return "OPENAI_API_KEY"
	case BackendGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// APIKeyEnv returns the configured key variable or the backend default.
func (l LLMSettings) APIKeyEnv() string {
	if l.APIKeyEnvName != "" {
		return l.APIKeyEnvName
	}
	return DefaultAPIKeyEnv(l.Backend)
}

// APIKey reads the key from the environment.
func (l LLMSettings) APIKey() string {
	if name := l.APIKeyEnv(); name != "" {
		return os.Getenv(name)
	}
	return ""
}

// Timeout converts TimeoutSeconds; zero means no client timeout.
func (l LLMSettings) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// ValidateSettings validates the settings configuration
func ValidateSettings(settings *Settings) error {
	llm := settings.LLM
	switch llm.Backend {
	case BackendAnthropic, BackendOpenAI, BackendOllama, BackendGemini, BackendCompatible:
	default:
		return errors.Errorf("unsupported LLM backend: %s (must be one of %s)", llm.Backend, strings.Join(Backends, ", "))
	}

	if llm.Model == "" {
		return errors.New("LLM model is required")
	}

	switch llm.Backend {
	case BackendAnthropic, BackendOpenAI, BackendGemini:
		if llm.APIKey() == "" {
			return errors.Errorf("%s API key is required (set %s environment variable)", llm.Backend, llm.APIKeyEnv())
		}
	case BackendCompatible:
		if llm.BaseURL == "" {
			return errors.New("base_url is required for the compatible backend")
		}
	}

	if llm.MaxTokens < 0 {
		return errors.New("max_tokens must not be negative")
	}
	if llm.MaxRetries < 0 {
		return errors.New("max_retries must not be negative")
	}
	if llm.TimeoutSeconds < 0 {
		return errors.New("timeout_seconds must not be negative")
	}

	if settings.Agent.MaxIterations <= 0 {
		return errors.New("max_iterations must be positive")
	}

	for _, serverConfig := range settings.MCP.Servers {
		if err := ValidateMCPServerConfig(serverConfig); err != nil {
			return errors.Wrapf(err, "invalid MCP server configuration for %s", serverConfig.Name)
		}
	}

	return nil
}

// ValidateMCPServerConfig validates an MCP server configuration
func ValidateMCPServerConfig(config domain.MCPServerConfig) error {
	if config.Name == "" {
		return errors.New("server name is required")
	}

	switch config.Type {
	case domain.MCPServerTypeStdio:
		if config.Command == "" {
			return errors.New("command is required for stdio servers")
		}
	case domain.MCPServerTypeSSE:
		if config.URL == "" {
			return errors.New("URL is required for HTTP/SSE servers")
		}
	default:
		return errors.Errorf("unsupported server type: %s", config.Type)
	}

	return nil
}

// createDefaultSettingsFile creates ~/.editagent/settings.json
func createDefaultSettingsFile() (*Settings, error) {
	settingsPath, err := infra.DefaultSettingsPath()
	if err != nil {
		return GetDefaultSettings(), nil
	}
	return createSettingsFileAtPath(settingsPath)
}

// createSettingsFileAtPath writes defaults to settingsPath. When the write
// fails the defaults are still returned.
func createSettingsFileAtPath(settingsPath string) (*Settings, error) {
	settings := NewSettingsWithPath(settingsPath)

	log := pkgLogger.NewComponentLogger("settings")
	if err := settings.Save(); err != nil {
		log.WarnWithIntention(pkgLogger.IntentionWarning, "Could not create settings file", "path", settingsPath, "error", err)
		return GetDefaultSettings(), nil
	}

	log.InfoWithIntention(pkgLogger.IntentionConfig, "Created default settings file", "path", settingsPath)
	return settings, nil
}

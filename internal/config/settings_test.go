package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpt/editagent/internal/infra"
	"github.com/fpt/editagent/internal/repository"
	"github.com/fpt/editagent/pkg/agent/domain"
)

func TestCreateDefaultSettingsFile(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), ".editagent", "settings.json")
	settings, err := createSettingsFileAtPath(settingsPath)
	if err != nil {
		t.Fatalf("createSettingsFileAtPath failed: %v", err)
	}
	if settings.LLM.Backend != BackendAnthropic {
		t.Errorf("Expected backend 'anthropic', got '%s'", settings.LLM.Backend)
	}
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		t.Fatal("Settings file was not created")
	}

	loaded, err := LoadSettings(settingsPath)
	if err != nil {
		t.Fatalf("Failed to load created settings file: %v", err)
	}
	if loaded.LLM.Backend != settings.LLM.Backend || !loaded.LLM.NativeEditorTool {
		t.Errorf("Round trip changed settings: %+v", loaded.LLM)
	}
}

func TestLoadSettingsCreatesFileWhenNoneExists(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	settings, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if settings == nil {
		t.Fatal("Expected non-nil settings")
	}
	if _, err := os.Stat(filepath.Join(home, ".editagent", "settings.json")); err != nil {
		t.Fatalf("Settings file was not created in home directory: %v", err)
	}
}

func TestLoadKeepsDefaultsForOmittedFields(t *testing.T) {
	tests := []struct {
		name   string
		format string
		doc    string
	}{
		{"json", repository.SettingsFormatJSON, `{"llm":{"backend":"ollama"},"editor":{"strict_insert_line":true}}`},
		{"yaml", repository.SettingsFormatYAML, "llm:\n  backend: ollama\neditor:\n  strict_insert_line: true\n"},
		{"toml", repository.SettingsFormatTOML, "[llm]\nbackend = \"ollama\"\n\n[editor]\nstrict_insert_line = true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := infra.NewInMemorySettingsRepositoryWithFormat(tt.format, []byte(tt.doc))
			settings := NewSettingsWithRepository(repo)
			if err := settings.Load(); err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			if settings.LLM.Backend != BackendOllama {
				t.Errorf("backend = %q", settings.LLM.Backend)
			}
			if settings.LLM.Model != "gpt-oss:20b" {
				t.Errorf("model should default per backend, got %q", settings.LLM.Model)
			}
			if settings.LLM.BaseURL != "http://localhost:11434" {
				t.Errorf("base_url = %q", settings.LLM.BaseURL)
			}
			if !settings.Editor.StrictInsertLine {
				t.Error("strict_insert_line should be loaded")
			}
			if !settings.Editor.LogOperations {
				t.Error("log_operations should keep its default")
			}
			if settings.Agent.MaxIterations != DefaultAgentMaxIterations {
				t.Errorf("max_iterations = %d", settings.Agent.MaxIterations)
			}
		})
	}
}

func TestSaveUsesRepositoryFormat(t *testing.T) {
	for _, format := range []string{repository.SettingsFormatJSON, repository.SettingsFormatYAML, repository.SettingsFormatTOML} {
		t.Run(format, func(t *testing.T) {
			repo := infra.NewInMemorySettingsRepositoryWithFormat(format, nil)
			settings := NewSettingsWithRepository(repo)
			settings.LLM = GetDefaultLLMSettingsForBackend(BackendGemini)
			settings.MCP.Servers = []domain.MCPServerConfig{{Name: "fs", Type: domain.MCPServerTypeStdio, Command: "mcp-fs", Enabled: true}}
			if err := settings.Save(); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			reloaded := NewSettingsWithRepository(repo)
			if err := reloaded.Load(); err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if reloaded.LLM.Backend != BackendGemini || reloaded.LLM.Model != "gemini-2.5-flash" {
				t.Errorf("llm = %+v", reloaded.LLM)
			}
			if len(reloaded.MCP.Servers) != 1 || reloaded.MCP.Servers[0].Command != "mcp-fs" {
				t.Errorf("servers = %+v", reloaded.MCP.Servers)
			}
		})
	}
}

func TestLoadRejectsMalformedDocument(t *testing.T) {
	repo := infra.NewInMemorySettingsRepositoryWithFormat(repository.SettingsFormatJSON, []byte("{not json"))
	if err := NewSettingsWithRepository(repo).Load(); err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestValidateSettings(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("MY_GATEWAY_KEY", "secret")

	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"ollama needs no key", func(s *Settings) { s.LLM = GetDefaultLLMSettingsForBackend(BackendOllama) }, ""},
		{"unknown backend", func(s *Settings) { s.LLM.Backend = "bard" }, "unsupported LLM backend"},
		{"missing anthropic key", func(s *Settings) {}, "ANTHROPIC_API_KEY"},
		{"custom key variable", func(s *Settings) { s.LLM.APIKeyEnvName = "MY_GATEWAY_KEY" }, ""},
		{"compatible needs base url", func(s *Settings) {
			s.LLM = GetDefaultLLMSettingsForBackend(BackendCompatible)
			s.LLM.Model = "qwen"
			s.LLM.BaseURL = ""
		}, "base_url"},
		{"compatible needs model", func(s *Settings) { s.LLM = GetDefaultLLMSettingsForBackend(BackendCompatible) }, "model is required"},
		{"iterations", func(s *Settings) {
			s.LLM = GetDefaultLLMSettingsForBackend(BackendOllama)
			s.Agent.MaxIterations = 0
		}, "max_iterations"},
		{"bad mcp server", func(s *Settings) {
			s.LLM = GetDefaultLLMSettingsForBackend(BackendOllama)
			s.MCP.Servers = []domain.MCPServerConfig{{Name: "x", Type: domain.MCPServerTypeSSE}}
		}, "URL is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := GetDefaultSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUserConfigLayout(t *testing.T) {
	base := filepath.Join(t.TempDir(), ".editagent")
	cfg := NewUserConfig(base)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	if cfg.HistoryFile != filepath.Join(base, "history") {
		t.Errorf("HistoryFile = %q", cfg.HistoryFile)
	}
	if _, err := os.Stat(cfg.LogDir); err != nil {
		t.Errorf("log dir not created: %v", err)
	}
}

package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fpt/editagent/internal/repository"
)

func TestFindSettingsFileOrder(t *testing.T) {
	project := t.TempDir()
	home := t.TempDir()

	repo := NewFileSettingsRepositoryWithSearchDirs("", project, home)
	if path, _ := repo.FindSettingsFile(); path != "" {
		t.Fatalf("Expected no settings file, got %q", path)
	}

	homeFile := filepath.Join(home, "settings.toml")
	if err := os.WriteFile(homeFile, []byte("[llm]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if path, _ := repo.FindSettingsFile(); path != homeFile {
		t.Errorf("Expected %q, got %q", homeFile, path)
	}

	projectFile := filepath.Join(project, "settings.yaml")
	if err := os.WriteFile(projectFile, []byte("llm: {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if path, _ := repo.FindSettingsFile(); path != projectFile {
		t.Errorf("Project settings should win, got %q", path)
	}
	if repo.Format() != repository.SettingsFormatYAML {
		t.Errorf("Format = %q, want yaml", repo.Format())
	}
}

func TestFileSettingsRepositorySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	repo := NewFileSettingsRepository(path)

	if _, err := repo.Load(); err == nil {
		t.Fatal("Expected error loading a missing file")
	}

	if err := repo.Save([]byte(`{"llm":{}}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := repo.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != `{"llm":{}}` {
		t.Errorf("Unexpected data: %s", data)
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Errorf("Expected lock file next to settings: %v", err)
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]string{
		"settings.json": repository.SettingsFormatJSON,
		"settings.YAML": repository.SettingsFormatYAML,
		"settings.yml":  repository.SettingsFormatYAML,
		"settings.toml": repository.SettingsFormatTOML,
		"":              repository.SettingsFormatJSON,
	}
	for path, want := range tests {
		if got := FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestInMemorySettingsRepository(t *testing.T) {
	repo := NewInMemorySettingsRepository()
	if _, err := repo.Load(); err == nil {
		t.Error("Expected error on empty repository")
	}
	src := []byte("data")
	if err := repo.Save(src); err != nil {
		t.Fatal(err)
	}
	src[0] = 'X'
	got, _ := repo.Load()
	if string(got) != "data" {
		t.Errorf("Save should copy the input, got %q", got)
	}
}

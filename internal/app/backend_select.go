package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"

	"github.com/fpt/editagent/internal/config"
)

// BackendChoice is one entry of the first-run backend picker.
type BackendChoice struct {
	Name   string
	Model  string
	KeyEnv string
	Ready  bool // key present, or none required
}

// BackendChoices describes every backend with its default model and whether
// its API key is already set in the environment.
func BackendChoices(getenv func(string) string) []BackendChoice {
	choices := make([]BackendChoice, 0, len(config.Backends))
	for _, name := range config.Backends {
		llm := config.GetDefaultLLMSettingsForBackend(name)
		env := config.DefaultAPIKeyEnv(name)
		choices = append(choices, BackendChoice{
			Name:   name,
			Model:  llm.Model,
			KeyEnv: env,
			Ready:  env == "" || name == config.BackendCompatible || getenv(env) != "",
		})
	}
	return choices
}

// SelectBackend asks the user to pick a backend. Backends whose key is set
// are listed first.
func SelectBackend(stdin io.ReadCloser, stdout io.WriteCloser) (string, error) {
	choices := BackendChoices(os.Getenv)
	ordered := make([]BackendChoice, 0, len(choices))
	for _, c := range choices {
		if c.Ready {
			ordered = append(ordered, c)
		}
	}
	for _, c := range choices {
		if !c.Ready {
			ordered = append(ordered, c)
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Name | cyan }} {{ .Model | faint }}{{ if not .Ready }} {{ printf \"(set %s)\" .KeyEnv | red }}{{ end }}",
		Inactive: "  {{ .Name | cyan }} {{ .Model | faint }}{{ if not .Ready }} {{ printf \"(set %s)\" .KeyEnv | red }}{{ end }}",
		Selected: "Backend: {{ .Name | cyan }}",
	}

	prompt := promptui.Select{
		Label:     "Choose an LLM backend",
		Items:     ordered,
		Templates: templates,
		Size:      len(ordered),
		Searcher: func(input string, index int) bool {
			return strings.Contains(ordered[index].Name, strings.ToLower(strings.TrimSpace(input)))
		},
		Stdin:  stdin,
		Stdout: stdout,
	}

	i, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt || err == promptui.ErrEOF {
			return "", errors.New("backend selection cancelled")
		}
		return "", errors.Wrap(err, "backend selection failed")
	}
	return ordered[i].Name, nil
}

// ApplyBackendChoice switches settings to backend's defaults and persists
// them. A failed save is reported but the in-memory choice stands.
func ApplyBackendChoice(settings *config.Settings, backend string) error {
	settings.LLM = config.GetDefaultLLMSettingsForBackend(backend)
	if err := settings.Save(); err != nil {
		return fmt.Errorf("could not save backend choice: %w", err)
	}
	return nil
}

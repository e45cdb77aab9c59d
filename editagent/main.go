package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fpt/editagent/internal/app"
	"github.com/fpt/editagent/internal/config"
	"github.com/fpt/editagent/internal/editor"
	"github.com/fpt/editagent/internal/infra"
	"github.com/fpt/editagent/internal/mcp"
	"github.com/fpt/editagent/internal/tool"
	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/client"
	pkgLogger "github.com/fpt/editagent/pkg/logger"
)

// resolveStringFlag returns the non-empty value, preferring short flag over long flag
func resolveStringFlag(shortVal, longVal string) string {
	if shortVal != "" {
		return shortVal
	}
	return longVal
}

func printUsage() {
	fmt.Println("editagent - file editing assistant driven by an LLM")
	fmt.Println()
	fmt.Println("Backends: anthropic, openai, gemini, ollama, compatible")
	fmt.Println()
	fmt.Println("Settings are read from:")
	fmt.Println("  --settings <file>        Explicit path (.json, .yaml, .yml or .toml)")
	fmt.Println("  .editagent/settings.*    Project settings")
	fmt.Println("  ~/.editagent/settings.*  User settings (created on first run)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  editagent                                  # Interactive mode")
	fmt.Println("  editagent \"Fix the typo in README.md\"      # One-shot mode")
	fmt.Println("  editagent -b gemini \"Add a license header\" # Use the Gemini backend")
	fmt.Println("  editagent --workdir ./site \"Rename the title\"")
	fmt.Println()
}

func main() {
	var backend = flag.String("b", "", "LLM backend")
	var backendLong = flag.String("backend", "", "LLM backend")
	var model = flag.String("m", "", "Model name to use")
	var modelLong = flag.String("model", "", "Model name to use")
	var workdir = flag.String("workdir", "", "Working directory for relative paths")
	var settingsPath = flag.String("settings", "", "Path to settings file")
	var maxIterations = flag.Int("max-iterations", 0, "Maximum model round trips per request")
	var verbose = flag.Bool("v", false, "Enable verbose logging (debug level)")
	var verboseLong = flag.Bool("verbose", false, "Enable verbose logging (debug level)")
	var help = flag.Bool("h", false, "Show this help message")
	var helpLong = flag.Bool("help", false, "Show this help message")

	flag.Usage = func() {
		printUsage()
		fmt.Println("Flags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *help || *helpLong {
		flag.Usage()
		return
	}

	opts := options{
		backend:       strings.ToLower(resolveStringFlag(*backend, *backendLong)),
		model:         resolveStringFlag(*model, *modelLong),
		workdir:       *workdir,
		settingsPath:  *settingsPath,
		maxIterations: *maxIterations,
		verbose:       *verbose || *verboseLong,
		request:       strings.TrimSpace(strings.Join(flag.Args(), " ")),
	}

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	backend       string
	model         string
	workdir       string
	settingsPath  string
	maxIterations int
	verbose       bool
	request       string
}

func run(ctx context.Context, opts options) error {
	interactive := opts.request == ""
	firstRun := !settingsFileExists(opts.settingsPath)

	settings, err := config.LoadSettings(opts.settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load settings: %v\n", err)
		settings = config.GetDefaultSettings()
	}

	logLevel := settings.Agent.LogLevel
	if opts.verbose {
		logLevel = "debug"
	}
	logger := pkgLogger.New(pkgLogger.Options{Level: pkgLogger.ParseLogLevel(logLevel), Console: os.Stderr})
	pkgLogger.SetGlobal(logger)
	logger.DebugWithIntention(pkgLogger.IntentionConfig, "Verbose logging enabled", "log_level", logLevel)

	if firstRun && interactive && opts.backend == "" && app.IsTerminal(os.Stdin) {
		choice, err := app.SelectBackend(os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		if err := app.ApplyBackendChoice(settings, choice); err != nil {
			logger.WarnWithIntention(pkgLogger.IntentionWarning, "Backend choice not saved", "error", err)
		}
	}

	applyOverrides(settings, opts)
	if err := config.ValidateSettings(settings); err != nil {
		return err
	}

	workingDir, err := resolveWorkingDir(opts.workdir)
	if err != nil {
		return err
	}

	llmClient, err := client.NewLLMClient(settings.LLM)
	if err != nil {
		return err
	}
	logger.DebugWithIntention(pkgLogger.IntentionConfig, "LLM client ready",
		"backend", settings.LLM.Backend, "model", llmClient.ModelID())

	// The agent already prints each tool call; the operation log goes to the log file only.
	var opLog *pkgLogger.Logger
	if settings.Editor.LogOperations {
		opLog = pkgLogger.New(pkgLogger.Options{Level: pkgLogger.ParseLogLevel(logLevel), Console: io.Discard}).WithComponent("editor")
	}
	engine := editor.NewEngine(infra.NewOSFilesystemRepository(), editor.NewBackupStore(), workingDir)
	dispatcher := editor.NewDispatcher(engine, editor.ParseOptions{StrictInsertLine: settings.Editor.StrictInsertLine}, opLog)
	editorManager := tool.NewEditorToolManager(dispatcher)

	var external []domain.ToolManager
	if hasEnabledMCPServers(settings.MCP.Servers) {
		integration := mcp.NewIntegration()
		defer integration.Close()
		if n := integration.ConnectServers(ctx, settings.MCP.Servers); n > 0 {
			stats := integration.GetStats()
			logger.InfoWithIntention(pkgLogger.IntentionSuccess, "Connected MCP servers",
				"servers", stats.ServerNames, "tools", stats.TotalTools)
			external = append(external, integration.GetToolManager())
		}
	}

	a := app.NewAgent(llmClient, workingDir, editorManager, external, settings, logger, os.Stdout)

	if interactive {
		historyFile := ""
		if userConfig, err := config.DefaultUserConfig(); err == nil {
			historyFile = userConfig.HistoryFile
		} else {
			logger.WarnWithIntention(pkgLogger.IntentionWarning, "Input history disabled", "error", err)
		}
		app.StartInteractiveMode(ctx, a, historyFile)
		return nil
	}
	return executeCommand(ctx, a, opts.request)
}

func executeCommand(ctx context.Context, a *app.Agent, userInput string) error {
	colored := app.IsTerminal(os.Stdout)
	a.SetColored(colored)

	response, err := a.Invoke(ctx, userInput)
	if err != nil {
		return err
	}

	app.WriteResponseHeader(os.Stdout, a.GetLLMClient().ModelID(), colored)
	app.WriteResponse(os.Stdout, response.Content(), colored)
	if usage := app.FormatTokenUsage(a.GetLLMClient()); usage != "" {
		fmt.Fprintln(os.Stderr, usage)
	}
	return nil
}

// applyOverrides lets -b/-m/--max-iterations win over the settings file.
// A backend switch starts from that backend's defaults.
func applyOverrides(settings *config.Settings, opts options) {
	if opts.backend == "claude" {
		opts.backend = config.BackendAnthropic
	}
	if opts.backend != "" && opts.backend != settings.LLM.Backend {
		settings.LLM = config.GetDefaultLLMSettingsForBackend(opts.backend)
		settings.LLM.Backend = opts.backend
	}
	if opts.model != "" {
		settings.LLM.Model = opts.model
	}
	if opts.maxIterations > 0 {
		settings.Agent.MaxIterations = opts.maxIterations
	}
}

func resolveWorkingDir(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("working directory does not exist: %s", dir)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working directory is not a directory: %s", dir)
	}
	return abs, nil
}

func settingsFileExists(path string) bool {
	if path != "" {
		_, err := os.Stat(path)
		return err == nil
	}
	found, _ := infra.NewFileSettingsRepository("").FindSettingsFile()
	return found != ""
}

// hasEnabledMCPServers checks if there are any enabled MCP servers
func hasEnabledMCPServers(servers []domain.MCPServerConfig) bool {
	for _, server := range servers {
		if server.Enabled {
			return true
		}
	}
	return false
}

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/manifoldco/promptui"

	"github.com/fpt/editagent/pkg/message"
)

// SlashCommand represents a command that starts with /
type SlashCommand struct {
	Name        string
	Description string
	Handler     func(*Agent) bool // Returns true if should exit
}

// getSlashCommands returns all available slash commands
func getSlashCommands() []SlashCommand {
	return []SlashCommand{
		{
			Name:        "help",
			Description: "Show available commands and usage information",
			Handler: func(a *Agent) bool {
				showInteractiveHelp(a.OutWriter())
				return false
			},
		},
		{
			Name:        "history",
			Description: "Show the conversation so far",
			Handler: func(a *Agent) bool {
				history := a.GetConversationPreview(1000)
				if strings.TrimSpace(history) == "" {
					fmt.Fprintln(a.OutWriter(), "No conversation history.")
					return false
				}
				fmt.Fprint(a.OutWriter(), history)
				return false
			},
		},
		{
			Name:        "clear",
			Description: "Start a new conversation (undo snapshots are kept)",
			Handler: func(a *Agent) bool {
				a.ClearHistory()
				fmt.Fprintln(a.OutWriter(), "Conversation history cleared.")
				return false
			},
		},
		{
			Name:        "backups",
			Description: "List files that undo_edit can restore",
			Handler: func(a *Agent) bool {
				showBackups(a.OutWriter(), a.Backups())
				return false
			},
		},
		{
			Name:        "tools",
			Description: "List the tools offered to the model",
			Handler: func(a *Agent) bool {
				for _, name := range a.ToolNames() {
					fmt.Fprintf(a.OutWriter(), "  %s\n", name)
				}
				return false
			},
		},
		{
			Name:        "quit",
			Description: "Exit the interactive session",
			Handler: func(a *Agent) bool {
				fmt.Fprintln(a.OutWriter(), "Goodbye!")
				return true
			},
		},
		{
			Name:        "exit",
			Description: "Exit the interactive session (alias for quit)",
			Handler: func(a *Agent) bool {
				fmt.Fprintln(a.OutWriter(), "Goodbye!")
				return true
			},
		},
	}
}

// isSlashCommand also accepts the bare words exit and quit.
func isSlashCommand(input string) bool {
	trimmed := strings.TrimSpace(input)
	return strings.HasPrefix(trimmed, "/") || trimmed == "exit" || trimmed == "quit"
}

// handleSlashCommand processes commands that start with /
// Returns true if the command requests program exit, false otherwise
func handleSlashCommand(input string, a *Agent) bool {
	if strings.TrimSpace(input) == "/" {
		return showCommandSelector(a)
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	commandName := strings.TrimPrefix(parts[0], "/")
	commands := getSlashCommands()

	for _, cmd := range commands {
		if cmd.Name == commandName {
			return cmd.Handler(a)
		}
	}

	w := a.OutWriter()
	fmt.Fprintf(w, "Unknown command: /%s\n", commandName)
	fmt.Fprintln(w, "Available commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  /%s - %s\n", cmd.Name, cmd.Description)
	}
	return false
}

// showCommandSelector shows an interactive command selector using promptui
func showCommandSelector(a *Agent) bool {
	commands := getSlashCommands()

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "▸ {{ .Name | cyan }} - {{ .Description | faint }}",
		Inactive: "  {{ .Name | cyan }} - {{ .Description | faint }}",
		Selected: "{{ .Name | cyan }}",
	}

	searcher := func(input string, index int) bool {
		name := strings.ToLower(commands[index].Name)
		return strings.Contains(name, strings.ToLower(strings.TrimSpace(input)))
	}

	prompt := promptui.Select{
		Label:     "Choose a command",
		Items:     commands,
		Templates: templates,
		Size:      len(commands),
		Searcher:  searcher,
	}

	i, _, err := prompt.Run()
	if err != nil {
		if err != promptui.ErrInterrupt {
			fmt.Fprintf(a.OutWriter(), "Command selection failed: %v\n", err)
		}
		return false
	}
	return commands[i].Handler(a)
}

// StartInteractiveMode runs the readline-based REPL. historyFile may be empty
// to keep input history in memory only.
func StartInteractiveMode(ctx context.Context, a *Agent, historyFile string) {
	contextDisplay := NewContextDisplay()
	colored := IsTerminal(os.Stdout)
	a.SetColored(colored)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "> ",
		HistoryFile:         historyFile,
		AutoComplete:        createAutoCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		HistoryLimit:        2000,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize interactive mode: %v\n", err)
		fmt.Fprintln(os.Stderr, "Use one-shot mode instead: editagent \"your request\"")
		return
	}
	defer rl.Close()

	model := a.GetLLMClient().ModelID()
	WriteSplashScreen(os.Stdout, model, a.WorkingDir(), colored)
	fmt.Println("Commands start with '/', everything else goes to the assistant. Type /help for more.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		userInput := strings.TrimSpace(line)
		if userInput == "" {
			continue
		}

		if isSlashCommand(userInput) {
			if handleSlashCommand(userInput, a) {
				break
			}
			continue
		}

		response, wasCanceled, invokeErr := runTurn(ctx, a, userInput)
		if invokeErr != nil {
			if wasCanceled {
				fmt.Println("Cancelled. History kept up to the last completed step.")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", invokeErr)
			}
			continue
		}

		WriteResponseHeader(os.Stdout, model, colored)
		WriteResponse(os.Stdout, response.Content(), colored)

		if usage := FormatTokenUsage(a.GetLLMClient()); usage != "" {
			fmt.Fprintln(os.Stderr, usage)
		}
		if status := contextDisplay.ShowContextUsage(a.GetMessageState(), a.GetLLMClient(), colored); status != "" {
			fmt.Fprintln(os.Stderr, status)
		}
	}
}

// runTurn invokes the agent with Ctrl-C bound to cancelling this turn only.
func runTurn(ctx context.Context, a *Agent, userInput string) (message.Message, bool, error) {
	execCtx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT)

	go func() {
		select {
		case <-sigChan:
			fmt.Println()
			cancel()
		case <-execCtx.Done():
		}
	}()

	response, invokeErr := a.Invoke(execCtx, userInput)

	wasCanceled := execCtx.Err() == context.Canceled && ctx.Err() == nil
	signal.Stop(sigChan)
	cancel()

	if invokeErr != nil {
		return nil, wasCanceled, invokeErr
	}
	return response, false, nil
}

// createAutoCompleter creates an autocompletion function for readline
func createAutoCompleter() *readline.PrefixCompleter {
	var pcItems []readline.PrefixCompleterInterface
	for _, cmd := range getSlashCommands() {
		pcItems = append(pcItems, readline.PcItem("/"+cmd.Name))
	}
	pcItems = append(pcItems, readline.PcItem("/"))
	for _, pattern := range []string{
		"View", "Create a file", "Replace", "Insert", "Undo the last edit to", "Fix the typo in",
	} {
		pcItems = append(pcItems, readline.PcItem(pattern))
	}
	return readline.NewPrefixCompleter(pcItems...)
}

// filterInput filters input runes to handle special keys
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showBackups(w io.Writer, paths []string) {
	if len(paths) == 0 {
		fmt.Fprintln(w, "No edits to undo.")
		return
	}
	fmt.Fprintf(w, "Files with an undo snapshot (%d):\n", len(paths))
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

func showInteractiveHelp(w io.Writer) {
	fmt.Fprintln(w, "\nInteractive Commands:")
	fmt.Fprintf(w, "  /%-15s - %s\n", "", "Show interactive command selector")
	for _, cmd := range getSlashCommands() {
		fmt.Fprintf(w, "  /%-15s - %s\n", cmd.Name, cmd.Description)
	}
	fmt.Fprintln(w, "\nKeys:")
	fmt.Fprintln(w, "  Ctrl+C           - Cancel the running request, or the current input")
	fmt.Fprintln(w, "  Ctrl+D           - Exit")
	fmt.Fprintln(w, "  Ctrl+R           - Search input history")
	fmt.Fprintln(w, "  Tab              - Auto-complete commands")
	fmt.Fprintln(w, "\nExample requests:")
	fmt.Fprintln(w, "  > Fix the typo in README.md")
	fmt.Fprintln(w, "  > Rename the function parseArgs to parseFlags in main.go")
	fmt.Fprintln(w, "  > Undo the last change to config.yaml")
}

package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	accentColor = lipgloss.Color("#5FAFFF")
	dimColor    = lipgloss.Color("245")
	errorColor  = lipgloss.Color("203")
)

// paint colors s when colored is set. Tabs are kept since file listings
// rely on them.
func paint(colored bool, color lipgloss.TerminalColor, s string) string {
	if !colored {
		return s
	}
	return lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion).Foreground(color).Render(s)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of stdout, 80 when unknown.
func TerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// WriteSplashScreen writes the interactive banner to w.
func WriteSplashScreen(w io.Writer, model, workDir string, colored bool) {
	if w == nil {
		return
	}
	lines := []string{
		"editagent",
		"file editing assistant",
		"",
		"model:   " + model,
		"workdir: " + workDir,
	}
	if !colored {
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
		fmt.Fprintln(w)
		return
	}

	width := TerminalWidth() - 4
	if width < 20 {
		width = 20
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 2).
		MaxWidth(width)
	title := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(lines[0])
	body := paint(true, dimColor, strings.Join(lines[1:], "\n"))
	fmt.Fprintln(w, box.Render(title+"\n"+body))
	fmt.Fprintln(w)
}

// WriteResponseHeader writes a standardized response header to w.
func WriteResponseHeader(w io.Writer, model string, colored bool) {
	if w == nil {
		return
	}
	fmt.Fprintln(w, paint(colored, accentColor, fmt.Sprintf("editagent (%s)", model)))
}

// WriteResponse writes an assistant reply. Colored output renders the reply
// as markdown; plain output writes it verbatim so pipes see the raw text.
func WriteResponse(w io.Writer, content string, colored bool) {
	if w == nil {
		return
	}
	if colored {
		if rendered, ok := renderMarkdown(content, TerminalWidth()); ok {
			fmt.Fprint(w, rendered)
			return
		}
	}
	fmt.Fprintln(w, content)
}

func renderMarkdown(content string, width int) (string, bool) {
	if width > 120 {
		width = 120
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", false
	}
	out, err := r.Render(content)
	if err != nil {
		return "", false
	}
	return out, true
}

// runeLen returns the number of runes in s.
func runeLen(s string) int { return utf8.RuneCountInString(s) }

// truncateRunes cuts s to at most n runes, ending with "..." when cut.
func truncateRunes(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

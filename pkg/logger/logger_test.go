package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogLevelDebug,
		" INFO ":  LogLevelInfo,
		"warning": LogLevelWarn,
		"warn":    LogLevelWarn,
		"error":   LogLevelError,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConsoleOutputIsPlain(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: LogLevelInfo, Console: &buf, LogFile: "-"}).WithComponent("editor")

	l.InfoWithIntention(IntentionTool, "str_replace", "path", "a.txt")
	l.Debug("hidden")

	out := buf.String()
	if !strings.HasPrefix(out, iconFor(IntentionTool)+" str_replace") {
		t.Errorf("unexpected console line: %q", out)
	}
	if !strings.Contains(out, "path=a.txt") {
		t.Errorf("missing attribute in %q", out)
	}
	if strings.Contains(out, "component") || strings.Contains(out, "hidden") {
		t.Errorf("console leaked meta or debug output: %q", out)
	}
}

func TestWarningsCarryLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: LogLevelWarn, Console: &buf, LogFile: "-"})
	l.Info("skipped")
	l.Warn("disk almost full")
	if got := strings.TrimSpace(buf.String()); got != "WARN: disk almost full" {
		t.Errorf("got %q", got)
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	l := New(Options{Level: LogLevelDebug, Console: &bytes.Buffer{}, LogFile: path})
	l.DebugWithIntention(IntentionDebug, "recorded", "n", 3)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "msg=recorded") || !strings.Contains(s, "intention=debug") || !strings.Contains(s, "n=3") {
		t.Errorf("unexpected file record: %q", s)
	}
}

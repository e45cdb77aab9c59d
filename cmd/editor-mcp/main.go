package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fpt/editagent/internal/config"
	"github.com/fpt/editagent/internal/editor"
	"github.com/fpt/editagent/internal/infra"
	"github.com/fpt/editagent/internal/mcp"
	pkgLogger "github.com/fpt/editagent/pkg/logger"
)

const version = "0.1.0"

func main() {
	workdir := flag.String("workdir", "", "Directory relative paths are resolved against (default: current directory)")
	settingsPath := flag.String("settings", "", "Path to settings file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	// stdout carries the protocol; everything else goes to stderr and the log file.
	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load settings: %v\n", err)
		settings = config.GetDefaultSettings()
	}
	level := settings.Agent.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logger := pkgLogger.New(pkgLogger.Options{Level: pkgLogger.ParseLogLevel(level), Console: os.Stderr})
	pkgLogger.SetGlobal(logger)

	dir := *workdir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: working directory %s is not a directory\n", dir)
		os.Exit(1)
	}

	var opLog *pkgLogger.Logger
	if settings.Editor.LogOperations {
		opLog = logger.WithComponent("editor")
	}
	engine := editor.NewEngine(infra.NewOSFilesystemRepository(), editor.NewBackupStore(), dir)
	dispatcher := editor.NewDispatcher(engine, editor.ParseOptions{StrictInsertLine: settings.Editor.StrictInsertLine}, opLog)
	srv := mcp.NewEditorServer(dispatcher, version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.InfoWithIntention(pkgLogger.IntentionStatus, "Serving editor tool on stdio", "workdir", dir)
	errLog := slog.NewLogLogger(logger.Handler(), slog.LevelError)
	if err := mcp.ServeStdio(ctx, srv, os.Stdin, os.Stdout, errLog); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

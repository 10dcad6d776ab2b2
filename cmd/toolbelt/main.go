package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"toolbelt/internal/config"
	"toolbelt/internal/storage"
	"toolbelt/internal/tools"
)

var (
	flagConfig   string
	flagLogLevel string
	flagQuiet    bool
)

func main() {
	root := &cobra.Command{
		Use:           "toolbelt",
		Short:         "One-shot file operation toolkit",
		Long:          "toolbelt exposes a set of one-shot file operations (edit, multiedit, notebook editing, search, shell) that each return a single human-readable result string.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config JSON (comments allowed)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress logging output")

	root.AddCommand(newCallCmd(), newServeCmd(), newToolsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "toolbelt: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	if flagQuiet {
		return zerolog.Nop()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(flagLogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// setup loads the config, opens the store and assembles the full registry.
// The caller owns the returned store.
func setup() (*tools.Registry, storage.Store, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	store, err := storage.NewSQLiteStore(filepath.Join(cfg.Storage.BaseDir, "toolbelt.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	reg := tools.NewRegistry(
		tools.NewEditTool(),
		tools.NewMultiEditTool(),
		tools.NewWriteTool(),
		tools.NewReadTool(cfg.Read),
		tools.NewLSTool(),
		tools.NewGlobTool(),
		tools.NewGrepTool(cfg.Search.MaxMatches),
		tools.NewBashTool(cfg.Shell),
		tools.NewTodoWriteTool(store),
		tools.NewTodoReadTool(store),
		tools.NewNotebookEditTool(),
		tools.NewNotebookReadTool(),
	)
	reg.SetLogger(newLogger())
	reg.SetAudit(store)
	return reg, store, nil
}

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/actionflow/internal/app"
	"github.com/dshills/actionflow/internal/config"
	"github.com/dshills/actionflow/internal/terminal"
)

type runOptions struct {
	configPath string
	keymaps    []string
	activate   []string
	watch      bool
	logFile    string
	logLevel   string
}

func newRunCmd() *cobra.Command {
	return newRunCmdWith(&runOptions{})
}

func newRunCmdWith(opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the input handler against the terminal",
		Long: `Opens the terminal, feeds key and mouse input into the handler every
tick and prints the emitted action events. Escape or Ctrl+C quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, *opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "configuration file (TOML)")
	f.StringSliceVarP(&opts.keymaps, "keymap", "k", nil, "extra keymap files to load")
	f.StringSliceVar(&opts.activate, "activate", nil, "contexts to activate, replacing the configured list")
	f.BoolVarP(&opts.watch, "watch", "w", false, "reload keymap files when they change")
	f.StringVar(&opts.logFile, "log-file", "", "write logs to this file; logs are discarded otherwise")
	f.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	return cmd
}

// loadConfig loads the configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command, opts runOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("activate") {
		cfg.Input.Activate = opts.activate
	}
	if cmd.Flags().Changed("watch") {
		cfg.Input.Watch = opts.watch
	}
	if opts.logLevel != "" {
		cfg.Input.LogLevel = opts.logLevel
	}
	return cfg, cfg.Validate()
}

func runApp(cmd *cobra.Command, opts runOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}

	application, err := app.New(app.Options{
		Config:      cfg,
		KeymapFiles: opts.keymaps,
		LogOutput:   logOut,
	})
	if err != nil {
		return err
	}
	defer application.Shutdown()

	screen, err := terminal.NewScreen(fmt.Sprintf("actionflow %s | contexts: %v", version, cfg.Input.Activate))
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return application.Run(ctx, screen)
}

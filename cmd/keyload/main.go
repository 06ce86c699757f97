// Package main provides the CLI entrypoint for keyload.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyload/internal/config"
	"github.com/verte-zerg/keyload/internal/corpus"
	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/model"
	"github.com/verte-zerg/keyload/internal/queue"
	"github.com/verte-zerg/keyload/internal/runner"
	"github.com/verte-zerg/keyload/internal/store"
)

const (
	defaultChunkSize   = corpus.DefaultChunkSize
	defaultStrategy    = string(runner.Sequential)
	defaultWorkers     = runner.DefaultWorkers
	defaultMaxAttempts = runner.DefaultMaxAttempts
	defaultTimeout     = runner.DefaultTimeout
	defaultCurveWindow = 5
	defaultSampleWords = 20000
	defaultCaps        = 0.05
	defaultPunct       = 0.1
)

const defaultPunctSet = ",.!?-"

var (
	verbose bool
	dbPath  string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keyload",
		Short:         "Finger load scoring for Cyrillic keyboard layouts",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
			if err := layout.Validate(); err != nil {
				return fmt.Errorf("invalid layout table: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "run history database (default: $XDG_DATA_HOME/keyload/keyload.db)")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newWorkerCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newTraceCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSampleCmd())
	rootCmd.AddCommand(newLayoutsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

func openStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	d, err := time.ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("invalid %s in config: %w", name, err)
	}
	*target = d
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# keyload configuration
# Uncomment a value to enable it. CLI flags override config values.

[analyze]
# chunk-size = %d         # Characters per chunk
# strategy = %q           # sequential, pool, or queue
# workers = %d            # Goroutines for pool, local workers for queue
# layouts = "all"         # Comma-separated layout ids
# max-attempts = %d       # Attempts per chunk before the queue run fails
# timeout = %q            # Wait for the next queue completion

[queue]
# redis-addr = ""         # Empty keeps the queue in memory
# redis-password = ""
# redis-db = 0
# prefix = %q             # Namespace for Redis keys

[report]
# curve-window = %d       # Moving average window for chunk curves

[sample]
# words = %d              # Words per generated corpus
# caps = %.2f             # Probability of capitalized first letter (0-1)
# punct = %.2f            # Punctuation probability per word (0-1)
# punct-set = %q          # Punctuation set
`,
		defaultChunkSize,
		defaultStrategy,
		defaultWorkers,
		defaultMaxAttempts,
		defaultTimeout.String(),
		queue.DefaultPrefix,
		defaultCurveWindow,
		defaultSampleWords,
		defaultCaps,
		defaultPunct,
		defaultPunctSet,
	)
}

func validateConfig(cfg model.AnalyzeConfig) error {
	if cfg.ChunkSize <= 0 {
		return fmt.Errorf("--chunk-size must be > 0")
	}
	if _, err := runner.ParseStrategy(cfg.Strategy); err != nil {
		return fmt.Errorf("--strategy: %w", err)
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("--workers must be > 0")
	}
	if cfg.MaxAttempts <= 0 {
		return fmt.Errorf("--max-attempts must be > 0")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	if _, err := layout.ParseList(strings.Join(cfg.Layouts, ",")); err != nil {
		return fmt.Errorf("--layouts: %w", err)
	}
	if cfg.Resume != "" {
		if strategy, _ := runner.ParseStrategy(cfg.Strategy); strategy != runner.Queue {
			return fmt.Errorf("--resume needs --strategy queue")
		}
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

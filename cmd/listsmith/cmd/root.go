package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/solatis/listsmith/internal/core/config"
	"github.com/solatis/listsmith/internal/core/logging"
)

const Version = "0.1.0"

var (
	rootDir    string
	configFile string
	logLevel   string
	logFormat  string
	quiet      bool
	verbose    bool

	// appFs backs every command; tests swap in a memory filesystem.
	appFs afero.Fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:          "listsmith",
	Short:        "Lint, deduplicate and publish domain blocklists",
	Long:         `listsmith maintains hand-curated blocklist sources and builds them into hosts, uBlock Origin, uBlacklist and other list formats.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.SetupLoggerTo(cmd.ErrOrStderr(), logging.Options{
			Level:  logLevel,
			Format: logFormat,
			Quiet:  quiet,
			Debug:  verbose,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "repository root; relative task paths resolve against it")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default <root>/src/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	rootCmd.MarkFlagsMutuallyExclusive("quiet", "verbose")
}

// Execute runs the root command with SIGINT and SIGTERM cancelling the
// command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// root returns the absolute repository root.
func root() (string, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	return abs, nil
}

// loadConfig locates and loads the config file for the current root.
func loadConfig() (*config.Config, string, error) {
	dir, err := root()
	if err != nil {
		return nil, "", err
	}
	path, err := config.Locate(appFs, dir, configFile)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadConfig(appFs, path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, dir, nil
}

// absPaths makes command-line file arguments absolute against the working
// directory, so they do not resolve against --root.
func absPaths(args []string) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return nil, err
		}
		out[i] = abs
	}
	return out, nil
}

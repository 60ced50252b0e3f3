package main

import (
	"context"
	"fmt"
	"os"

	"autohonk/internal/config"
	"autohonk/internal/logging"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	configPath string
	verbose    bool
	journalDir string
	keyName    string
	dryRun     bool

	// Set by PersistentPreRunE
	cfg    *config.Config
	logger *logging.Logger
)

// rootCmd runs the monitor
var rootCmd = &cobra.Command{
	Use:   "autohonk",
	Short: "Hold the discovery scanner after every hyperspace jump",
	Long: `autohonk follows the Elite Dangerous journal. After each FSD jump it
focuses the game window and holds the Primary Fire key until the discovery
scan completes or the safety cutoff expires.

Run without arguments to start monitoring. Press Ctrl+C to stop; a held key
is always released before exit.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		l, err := logging.New(logging.Options{
			Level:      c.Logging.Level,
			Format:     c.Logging.Format,
			Dir:        c.Logging.Dir,
			DebugMode:  c.Logging.DebugMode,
			Categories: c.Logging.Categories,
			Verbose:    verbose,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	},
	RunE: runMonitor,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&journalDir, "journal-dir", "", "Journal directory (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&keyName, "key", "k", "", "Key to hold, e.g. numpad_add (skips binding detection)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log key events instead of sending them")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(bindingCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the config file and layers command-line flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load(resolvedConfigPath())
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("journal-dir") {
		c.Journal.Dir = journalDir
	}
	if flags.Changed("key") {
		c.Key.Override = keyName
	}
	if flags.Changed("dry-run") {
		c.DryRun = dryRun
	}
	return c, nil
}

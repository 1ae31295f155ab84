// Package cli implements the command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msr-creativetech/vibekit/internal/config"
	"github.com/msr-creativetech/vibekit/internal/ui"
)

var (
	// Global flags
	chdirFlag  string
	configPath string

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vibekit",
	Short: "Manage innovation kits inside a project",
	Long: `vibekit installs, updates, and removes innovation kit bundles in a
project's .vibe-kit directory, and aggregates each kit's customization
files (chat modes, prompts, instructions, agents) into the flat
directories the surrounding tools consume.

Kits come from a local innovation-kit-repository directory or from a
remote repository archive named by VIBEKIT_BASE_PATH.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadGlobalConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)
		return nil
	},
}

// Execute runs the CLI. Coded failures print their own diagnostics before
// returning; everything else (usage mistakes, config problems) is reported
// here because the root command silences cobra's own printing.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var coded *exitError
		if !errors.As(err, &coded) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&chdirFlag, "chdir", "C", "", "Run as if started in this directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
}

func loadGlobalConfig() (*config.Config, error) {
	if strings.TrimSpace(configPath) != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// getConfig returns the loaded config, or an empty one when a command runs
// without the root command's setup.
func getConfig() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

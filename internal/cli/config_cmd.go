package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msr-creativetech/vibekit/internal/config"
)

var configInitFlag bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the global configuration",
	Long: `Prints the effective global configuration with environment overrides
applied. With --init, writes a commented default config file when none
exists.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configInitFlag {
			return runConfigInit()
		}
		return runConfigShow()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a global configuration value",
	Long: `Persists one configuration key to the global config file.

Keys: accent, code-theme, baseline-source, init-template.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigSet(args[0], args[1])
	},
}

func init() {
	configCmd.Flags().BoolVar(&configInitFlag, "init", false, "Create the default config file if missing")
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit() error {
	targetPath := config.ResolveConfigPath(configPath)
	_, statErr := os.Stat(targetPath)
	existed := statErr == nil

	createdPath, err := config.CreateDefaultAt(targetPath)
	if err != nil {
		return failf(codeIO, "Failed to create config: %v", err)
	}
	if existed {
		fmt.Printf("Config already exists: %s\n", createdPath)
	} else {
		fmt.Printf("Created config: %s\n", createdPath)
	}
	return nil
}

func runConfigShow() error {
	path := config.ResolveConfigPath(configPath)
	c := getConfig()

	if isJSONOutput() {
		printJSON(map[string]interface{}{
			"config_path":     path,
			"repositories":    c.Repositories,
			"baseline_source": c.ResolvedBaselineSource(),
			"init_template":   c.ResolvedInitTemplate(),
			"ui": map[string]string{
				"accent":     strings.TrimSpace(c.UI.Accent),
				"code_theme": strings.TrimSpace(c.UI.CodeTheme),
			},
		})
		return nil
	}

	fmt.Printf("config: %s\n", path)
	if len(c.Repositories) > 0 {
		fmt.Printf("repositories: %s\n", strings.Join(c.Repositories, ", "))
	}
	fmt.Printf("baseline_source: %s\n", c.ResolvedBaselineSource())
	if v := c.ResolvedInitTemplate(); v != "" {
		fmt.Printf("init_template: %s\n", v)
	}
	if v := strings.TrimSpace(c.UI.Accent); v != "" {
		fmt.Printf("ui.accent: %s\n", v)
	}
	if v := strings.TrimSpace(c.UI.CodeTheme); v != "" {
		fmt.Printf("ui.code_theme: %s\n", v)
	}
	return nil
}

func runConfigSet(key, value string) error {
	path := config.ResolveConfigPath(configPath)
	c, err := loadConfigForEdit(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value = strings.TrimSpace(value)
	switch key {
	case "accent":
		c.UI.Accent = value
	case "code-theme":
		c.UI.CodeTheme = value
	case "baseline-source":
		c.BaselineSource = value
	case "init-template":
		c.InitTemplate = value
	default:
		return failf(codeResolution, "Unknown config key: %s (expected accent, code-theme, baseline-source, or init-template)", key)
	}

	if err := config.SaveTo(path, c); err != nil {
		return failf(codeIO, "Failed to write config %s: %v", path, err)
	}
	fmt.Printf("Updated config: %s\n", path)
	return nil
}

func loadConfigForEdit(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &config.Config{}, nil
	}
	return config.LoadFrom(path)
}

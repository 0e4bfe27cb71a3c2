package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/omopkit/omopload/internal/config"
	"github.com/omopkit/omopload/internal/tui"
	"github.com/omopkit/omopload/internal/tui/wizards"
)

var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Interactively create or edit omopload.yaml configuration",
	Long: `Launches an interactive wizard to create or edit omopload.yaml configuration.

The wizard guides you through:
  1. Database connection setup (host, port, authentication)
  2. DDL parameter configuration (key-value pairs)
  3. Run timeout settings

This command requires an interactive terminal. For non-interactive use,
create omopload.yaml manually or use environment variables.

Examples:
  # Create config in current directory
  omopload config

  # Create config in a specific project directory
  omopload config ./my-project`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeDirectories,
	RunE:              runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	// Require interactive terminal
	if !tui.IsInteractive() {
		return fmt.Errorf("config command requires an interactive terminal\n" +
			"For non-interactive use, create omopload.yaml manually or use environment variables")
	}

	// Check if config already exists
	existingCfg, err := config.Load(targetDir)
	if err == nil && existingCfg != nil {
		fmt.Println("Found existing omopload.yaml")
		if !tui.PromptContinue("Overwrite existing configuration?") {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	// Run connection wizard
	connResult, err := wizards.RunConnectionWizard()
	if err != nil {
		return fmt.Errorf("connection wizard failed: %w", err)
	}
	if connResult.Cancelled {
		fmt.Println("Cancelled.")
		return nil
	}

	// Run config wizard with the connection
	cfgResult, err := wizards.RunConfigWizard(connResult.Config)
	if err != nil {
		return fmt.Errorf("config wizard failed: %w", err)
	}
	if cfgResult.Cancelled {
		fmt.Println("Cancelled.")
		return nil
	}

	// Save the config
	configPath := filepath.Join(targetDir, config.ConfigFileName)
	data, err := yaml.Marshal(cfgResult.Config)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("\n✓ Configuration saved to %s\n", configPath)
	offerSavePgpass(&connResult.Config)
	return nil
}

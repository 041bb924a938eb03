package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/wikibots/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/wikibots.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new wikibots configuration file",
		Long: `Initialize creates a new .wikibots configuration file in the current directory.

The generated file includes:
- The wiki endpoint
- Defaults shared by every bot
- Commented per-bot overrides for cache prefix, edit summary, throttle and page selection

Credentials are not stored in this file. Put them in the environment or a .env file.

Examples:
  # Create .wikibots in current directory
  wikibots init

  # Create config file at a specific path
  wikibots init -o ~/.config/wikibots/config.yaml

  # Force overwrite existing file
  wikibots init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/wikibots.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure per-bot settings such as:")
	fmt.Fprintln(out, "  - Redis key prefixes")
	fmt.Fprintln(out, "  - Edit summaries and throttling")
	fmt.Fprintln(out, "  - Search queries and categories that select pages")

	return nil
}

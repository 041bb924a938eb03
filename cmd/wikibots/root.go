package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nao1215/wikibots/internal/bots"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wikibots.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikibots",
		Short: "Structured data bots for Wikimedia Commons",
		Long: `wikibots adds Structured Data on Commons to files imported from external
platforms, using the metadata those platforms publish.

Each bot selects candidate files, reads the source record and saves the
statements the file is missing. Processed files are remembered in a Redis
cache (TOOL_REDIS_URI) so that later runs skip them.

Credentials are read from the environment or a .env file:
  PWB_CONSUMER_TOKEN, PWB_CONSUMER_SECRET, PWB_ACCESS_TOKEN, PWB_ACCESS_SECRET
  or PWB_USERNAME and PWB_PASSWORD for a bot password.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	for _, name := range bots.Names() {
		cmd.AddCommand(NewBotCmd(name))
	}
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// resolveArgs returns the arguments for the root command. When the
// program is invoked under a bot's name, the bot subcommand is prepended.
func resolveArgs(argv0 string, args []string) []string {
	name := strings.TrimSuffix(filepath.Base(argv0), filepath.Ext(argv0))
	if isBotName(name) {
		return append([]string{name}, args...)
	}
	return args
}

// isBotName reports whether name is one of the bot subcommands.
func isBotName(name string) bool {
	return slices.Contains(bots.Names(), name)
}

// Execute runs the root command.
func Execute() {
	cmd := NewRootCmd()
	cmd.SetArgs(resolveArgs(os.Args[0], os.Args[1:]))
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

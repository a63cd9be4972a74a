package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI and the MCP server.
func SetVersion(v string) {
	version = v
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	envFiles   []string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "mailcampaign",
		Short: "Send email campaigns to contact groups through Gmail",
		Long: `mailcampaign keeps a local directory of contacts and groups and sends
email campaigns to a group through the signed-in Gmail account, either as one
personalised email per contact or as a single bulk email.

It can run as:
  - A CLI tool
  - An MCP (Model Context Protocol) server for AI assistants`,
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "mailcampaign version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/mailcampaign/config.toml)")
	rootCmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "Dotenv files to load before reading the config (default: .env)")

	rootCmd.AddCommand(newAuthCmd(opts))
	rootCmd.AddCommand(newContactsCmd(opts))
	rootCmd.AddCommand(newGroupsCmd(opts))
	rootCmd.AddCommand(newCampaignsCmd(opts))
	rootCmd.AddCommand(newStoreCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newGenerateDocsCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute is the main entry point for the CLI application
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mailcampaign version %s\n", version)
		},
	}
}

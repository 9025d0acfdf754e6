package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the adsmcp application
var rootCmd = &cobra.Command{
	Use:   "adsmcp",
	Short: "MCP server exposing Google Ads reporting tools",
	Long: `adsmcp is a Model Context Protocol (MCP) server that exposes Google Ads
reporting as tools for AI assistants.

It can run as:
  - A local stdio MCP server (default transport)
  - An OAuth-gated HTTP MCP server (sse or streamable-http transport)

Use the auth subcommand to authorize a Google account for local stdio use,
and the users subcommand to inspect stored accounts.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "adsmcp version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("adsmcp version %s\n", version)
		},
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newUsersCmd())
	rootCmd.AddCommand(newVersionCmd())
}

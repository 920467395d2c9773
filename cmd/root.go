package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calendar-mcp application
var rootCmd = &cobra.Command{
	Use:   "calendar-mcp",
	Short: "Google Calendar tools for AI assistants over MCP",
	Long: `calendar-mcp is a Model Context Protocol server that lets AI assistants
create, reschedule, delete and list Google Calendar events.

It can run as:
  - An MCP server over streamable HTTP (default) or stdio
  - A one-shot exporter that writes calendar events to an iCalendar file`,
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
	rootCmd.SetVersionTemplate(`{{printf "calendar-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

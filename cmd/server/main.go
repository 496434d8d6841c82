// Package main is the entrypoint for the Genesys Cloud MCP server.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:   "genesys-cloud-mcp-server",
		Short: "MCP server for Genesys Cloud analytics",
		Long: "Exposes Genesys Cloud queue, conversation and OAuth client analytics as MCP tools.\n" +
			"Configuration is read from the environment; running without a command starts the server.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.AddCommand(serve)
	root.AddCommand(newAPIKeyCmd())
	return root
}

// newLogger writes JSON logs to w. Stdout is reserved for the stdio transport.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/corpora-labs/docseek/internal/adapters/driving/mcp"
	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/logger"
	"github.com/corpora-labs/docseek/internal/metrics"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP
  - Prometheus metrics on /metrics (when metrics.enabled)

While the server runs, scheduled background sync keeps the index fresh
(when sync.enabled).

Examples:
  # Stdio mode (default, for Claude Desktop)
  docseek mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  docseek mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "docseek": {
        "command": "/path/to/docseek",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Search:   searchService,
		Document: documentService,
		Source:   sourceService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var settings *domain.AppSettings
	if settingsService != nil {
		settings, err = settingsService.Get()
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
	}

	// Background sync runs inside the serve process so the index stays
	// fresh while an assistant is connected.
	if schedulerService != nil && settings != nil && settings.Sync.Enabled {
		go func() {
			if err := schedulerService.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Scheduler stopped: %v", err)
			}
		}()
		defer func() {
			if err := schedulerService.Stop(); err != nil {
				logger.Warn("Scheduler stop: %v", err)
			}
		}()
	}

	if port > 0 {
		extra := make(map[string]http.Handler)
		if settings != nil && settings.Metrics.Enabled {
			extra["/metrics"] = metrics.Handler()
		}

		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr, extra)
	}

	return server.Run(ctx)
}

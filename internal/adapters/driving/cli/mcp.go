package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qamine/internal/adapters/driving/mcp"
)

var mcpAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the knowledge base to MCP clients",
	Long: `Serves the knowledge base over the Model Context Protocol so that
assistants can search it and feed it new messages.

The server speaks JSON-RPC on stdin/stdout unless --addr is given, in
which case it serves streamable HTTP on that address instead.

Registering with a desktop assistant:

  {"mcpServers": {"qamine": {"command": "qamine", "args": ["mcp", "serve"]}}}

Over HTTP:

  qamine mcp serve --addr localhost:8765`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpAddr, "addr", "", "serve HTTP on this address instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search: searchService,
		Ingest: ingestService,
		Index:  indexService,
		Stats:  statsService,
		Jobs:   jobService,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	stop := startScheduler(ctx)
	defer stop()

	if mcpAddr == "" {
		return server.Run(ctx)
	}
	cmd.PrintErrf("MCP server on http://%s (tools: %v)\n", mcpAddr, server.Tools())
	return server.RunHTTP(ctx, mcpAddr)
}

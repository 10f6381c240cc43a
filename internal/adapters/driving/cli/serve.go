package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qamine/internal/adapters/driving/api"
	"github.com/custodia-labs/qamine/internal/core/domain"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Starts the JSON HTTP API:

  POST /api/v1/conversations/:id/messages   ingest messages
  POST /api/v1/reindex                      rebuild the index
  GET  /api/v1/search                       search pairs
  GET  /api/v1/suggest                      complete query terms
  GET  /api/v1/categories                   list categories
  GET  /api/v1/stats                        knowledge base statistics
  GET  /healthz                             liveness

The background scheduler runs while the server is up, if enabled.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	cfg := domain.DefaultServerConfig()
	if settingsService != nil {
		cfg = settingsService.Server()
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	server, err := api.NewServer(&api.Ports{
		Search:   searchService,
		Ingest:   ingestService,
		Index:    indexService,
		Stats:    statsService,
		Settings: settingsService,
	}, cfg)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	stop := startScheduler(ctx)
	defer stop()

	cmd.Printf("HTTP API listening on %s\n", cfg.Addr)
	return server.Run(ctx, cfg.Addr)
}

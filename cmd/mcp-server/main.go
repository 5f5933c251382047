// Command mcp-server exposes the Crawlbase tools over MCP stdio: one
// process per client, credentials from the environment.
package main

import (
	"context"
	"os"

	"github.com/crawlbase/crawlbase-mcp/internal/config"
	"github.com/crawlbase/crawlbase-mcp/internal/server"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg)

	srv := server.New(server.Options{
		Credentials: cfg.Credentials,
		Logger:      logger,
	})

	if err := srv.Run(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}
}

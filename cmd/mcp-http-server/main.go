// Command mcp-http-server exposes the Crawlbase tools over a stateless
// streamable-HTTP MCP endpoint. Callers may override the configured tokens
// per request via the X-Crawlbase-Token and X-Crawlbase-JS-Token headers;
// each such request gets its own server instance so credentials are never
// shared across callers.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/crawlbase/crawlbase-mcp/internal/config"
	"github.com/crawlbase/crawlbase-mcp/internal/crawlbase"
	"github.com/crawlbase/crawlbase-mcp/internal/server"
)

const (
	headerToken   = "X-Crawlbase-Token"
	headerJSToken = "X-Crawlbase-JS-Token"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg)

	// Shared instance for requests that rely on the configured tokens.
	shared := server.New(server.Options{
		Credentials: cfg.Credentials,
		Logger:      logger,
	})

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		token := r.Header.Get(headerToken)
		jsToken := r.Header.Get(headerJSToken)
		if token == "" && jsToken == "" {
			return shared.MCP()
		}

		logger.Debug().Msg("Using per-request tokens from HTTP headers")
		return server.New(server.Options{
			Credentials: crawlbase.Credentials{Token: token, JSToken: jsToken},
			Logger:      logger,
		}).MCP()
	}, &mcp.StreamableHTTPOptions{Stateless: true})

	mux := http.NewServeMux()
	mux.Handle("/mcp", recoverJSONRPC(logger, handler))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info().Str("addr", addr).Msg("Crawlbase MCP HTTP server running")

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("HTTP server failed")
		os.Exit(1)
	}
}

// recoverJSONRPC converts a panic in the transport layer into a JSON-RPC
// internal-error response instead of killing the connection handler.
func recoverJSONRPC(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().Interface("panic", rec).Msg("MCP request handler panicked")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"jsonrpc": "2.0",
					"error": map[string]any{
						"code":    -32603,
						"message": fmt.Sprintf("%v", rec),
					},
					"id": nil,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

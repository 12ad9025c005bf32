package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/regions"
	"github.com/aretw0/regions/pkg/adapters/mcp"
	"github.com/aretw0/regions/pkg/observability"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes one state container as an MCP Server, so agents can select
regions and countries as tools and read the state as a resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sseAddr, _ := cmd.Flags().GetString("sse")

		store := regions.New(
			regions.WithFetcher(newFetcher()),
			regions.WithLogger(logger),
			regions.WithLifecycleHooks(observability.LoggingHooks(logger)),
		)
		defer store.Close()

		srv := mcp.NewServer(store, mcp.WithLogger(logger))

		if sseAddr == "" {
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting regions MCP Server (Stdio)")
			return srv.ServeStdio()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.ServeSSE(ctx, sseAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP Server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("sse", "", "Serve over SSE on this address instead of stdio (e.g. :8081)")
}

// Package mcp exposes a regions state container as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/regions"
	"github.com/aretw0/regions/internal/logging"
	"github.com/aretw0/regions/internal/validator"
	"github.com/aretw0/regions/pkg/domain"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StateURI is the resource exposing the current state.
const StateURI = "regions://state"

// StateResponse is the structured result of every tool.
type StateResponse struct {
	State domain.RegionState `json:"state" jsonschema_description:"The state after the tool ran"`
}

// Server wraps a regions Store and exposes it as an MCP Server.
// All tools act on the same store: one MCP connection is one session.
type Server struct {
	store     *regions.Store
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(store *regions.Store, opts ...Option) *Server {
	s := &Server{
		store:  store,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("regions-mcp", strings.TrimSpace(regions.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	withCORS := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
	})
	mux := http.NewServeMux()
	mux.Handle("/sse", withCORS(sseServer.SSEHandler()))
	mux.Handle("/message", withCORS(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_regions",
		mcp.WithDescription("List the regions that can be selected."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(strings.Join(s.store.InitialRegions(), ", ")), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the current state: selected region, loaded countries, selected country, loading flag and error."),
		mcp.WithOutputSchema[StateResponse](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.stateResult()
	})

	s.mcpServer.AddTool(mcp.NewTool("select_region",
		mcp.WithDescription("Select a region and load its countries."),
		mcp.WithString("region", mcp.Required(), mcp.Enum(domain.Regions()...), mcp.Description("Region to select")),
		mcp.WithBoolean("wait", mcp.Description("Wait for the countries to load (default true)")),
		mcp.WithOutputSchema[StateResponse](),
	), s.handleSelectRegion)

	s.mcpServer.AddTool(mcp.NewTool("select_country",
		mcp.WithDescription("Select a country of the loaded list to see its details."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Country name (case-insensitive)")),
		mcp.WithOutputSchema[StateResponse](),
	), s.handleSelectCountry)

	s.mcpServer.AddTool(mcp.NewTool("clear_error",
		mcp.WithDescription("Dismiss the current error message."),
		mcp.WithOutputSchema[StateResponse](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.store.ClearError(ctx)
		return s.stateResult()
	})

	s.mcpServer.AddTool(mcp.NewTool("retry",
		mcp.WithDescription("Clear the error and load the selected region again."),
		mcp.WithBoolean("wait", mcp.Description("Wait for the countries to load (default true)")),
		mcp.WithOutputSchema[StateResponse](),
	), s.handleRetry)

	s.mcpServer.AddTool(mcp.NewTool("reset",
		mcp.WithDescription("Return to the initial state."),
		mcp.WithOutputSchema[StateResponse](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.store.Reset()
		return s.stateResult()
	})
}

func (s *Server) handleSelectRegion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	region, err := request.RequireString("region")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.SelectRegion(ctx, region); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if request.GetBool("wait", true) {
		s.store.Wait()
	}
	return s.stateResult()
}

func (s *Server) handleSelectCountry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err == nil {
		name, err = validator.SanitizeInput(name)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.store.SelectCountryByName(ctx, name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.stateResult()
}

func (s *Server) handleRetry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.store.Retry(ctx); err != nil {
		if errors.Is(err, domain.ErrNoRegionSelected) {
			return mcp.NewToolResultError("no region selected: call select_region first"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	if request.GetBool("wait", true) {
		s.store.Wait()
	}
	return s.stateResult()
}

func (s *Server) stateResult() (*mcp.CallToolResult, error) {
	resp := StateResponse{State: s.store.State()}
	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return mcp.NewToolResultStructured(resp, string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Current regions state",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.store.State())
		if err != nil {
			return nil, fmt.Errorf("failed to encode state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StateURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

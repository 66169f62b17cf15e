package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxquote/internal/instrumentation"
	"github.com/teemow/inboxquote/internal/resources"
	"github.com/teemow/inboxquote/internal/server"
	"github.com/teemow/inboxquote/internal/tools/quote_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// ServeConfig holds everything the serve command needs to start.
type ServeConfig struct {
	Transport string
	HTTPAddr  string
	HTTP      server.HTTPConfig
	Metrics   MetricsConfig
	Quote     QuoteConfig
}

func newServeCmd() *cobra.Command {
	var cfg ServeConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide quoting tools
for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp with /healthz and /readyz

Every flag can also be set through the environment variable named in its
help text, or through a .env file in the working directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadServeEnvVars(cmd, &cfg); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Transport, "transport", transportStdio, "Transport type: stdio or streamable-http. Can also use MCP_TRANSPORT env var.")
	cmd.Flags().StringVar(&cfg.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport). Can also use MCP_HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&cfg.HTTP.DisableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")

	// TLS flags for HTTPS support
	cmd.Flags().StringVar(&cfg.HTTP.TLSCertFile, "tls-cert-file", "", "Path to TLS certificate file (PEM format). If provided with --tls-key-file, enables HTTPS. Can also use TLS_CERT_FILE env var.")
	cmd.Flags().StringVar(&cfg.HTTP.TLSKeyFile, "tls-key-file", "", "Path to TLS private key file (PEM format). If provided with --tls-cert-file, enables HTTPS. Can also use TLS_KEY_FILE env var.")

	// Per-client rate limiting on the MCP endpoint
	cmd.Flags().Float64Var(&cfg.HTTP.RateLimit, "rate-limit", 0, "Requests per second allowed per client IP on the MCP endpoint (0 disables). Can also use MCP_RATE_LIMIT env var.")
	cmd.Flags().IntVar(&cfg.HTTP.RateBurst, "rate-burst", server.DefaultRateBurst, "Burst size for the per-client rate limit. Can also use MCP_RATE_BURST env var.")
	cmd.Flags().BoolVar(&cfg.HTTP.TrustProxy, "trust-proxy", false, "Use X-Forwarded-For to identify clients. Only enable behind a trusted reverse proxy. Can also use MCP_TRUST_PROXY env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&cfg.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&cfg.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	addQuoteFlags(cmd, &cfg.Quote)

	return cmd
}

// loadServeEnvVars fills settings whose flags were not set from the environment.
func loadServeEnvVars(cmd *cobra.Command, cfg *ServeConfig) error {
	envString(cmd, "transport", "MCP_TRANSPORT", &cfg.Transport)
	envString(cmd, "http-addr", "MCP_HTTP_ADDR", &cfg.HTTPAddr)
	envString(cmd, "tls-cert-file", "TLS_CERT_FILE", &cfg.HTTP.TLSCertFile)
	envString(cmd, "tls-key-file", "TLS_KEY_FILE", &cfg.HTTP.TLSKeyFile)
	envString(cmd, "metrics-addr", "METRICS_ADDR", &cfg.Metrics.Addr)

	if err := envFloat(cmd, "rate-limit", "MCP_RATE_LIMIT", &cfg.HTTP.RateLimit); err != nil {
		return err
	}
	if err := envInt(cmd, "rate-burst", "MCP_RATE_BURST", &cfg.HTTP.RateBurst); err != nil {
		return err
	}
	if err := envBool(cmd, "trust-proxy", "MCP_TRUST_PROXY", &cfg.HTTP.TrustProxy); err != nil {
		return err
	}
	if err := envBool(cmd, "metrics-enabled", "METRICS_ENABLED", &cfg.Metrics.Enabled); err != nil {
		return err
	}
	return loadQuoteEnvVars(cmd, &cfg.Quote)
}

func runServe(cfg ServeConfig) error {
	if cfg.Transport != transportStdio && cfg.Transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default().With(slog.String("transport", cfg.Transport))

	// Initialize instrumentation provider
	instrConfig, err := instrumentation.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", slog.String("error", err.Error()))
		}
	}()

	// The metrics port is only useful for long-running network deployments
	if cfg.Transport != transportStdio && cfg.Metrics.Enabled && provider.PrometheusHandler() != nil {
		metricsServer, err := startMetricsServer(provider, cfg.Metrics.Addr, logger)
		if err != nil {
			return err
		}
		logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", slog.String("error", err.Error()))
			}
		}()
	}

	engine, clk, err := newQuoteEngine(cfg.Quote, slog.Default())
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(shutdownCtx, engine, clk)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", slog.String("error", err.Error()))
		}
	}()

	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLogger(nil, provider.AuditConfig()))
	}
	serverContext.Metrics().SetCatalogProducts(shutdownCtx, engine.Catalog().Len())

	logger.Info("catalog loaded",
		slog.Int("products", engine.Catalog().Len()),
		slog.String("currency", engine.Catalog().Currency()),
		slog.String("timezone", clk.DefaultZone().String()))

	mcpSrv := server.NewMCPServer(version, serverContext)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	go server.ExpireSessions(serverContext)

	switch cfg.Transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, logger)
	default:
		return runStdioServer(mcpSrv, logger)
	}
}

// startMetricsServer binds the Prometheus endpoint and serves it in the
// background. A failure after startup is logged, not fatal.
func startMetricsServer(provider *instrumentation.Provider, addr string, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(addr, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}
	go func() {
		if err := metricsServer.Serve(); err != nil {
			logger.Error("metrics server stopped", slog.String("error", err.Error()))
		}
	}()
	return metricsServer, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer, logger *slog.Logger) error {
	errorLogger := slog.NewLogLogger(logger.Handler(), slog.LevelError)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv, mcpserver.WithErrorLogger(errorLogger)); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Quote tools",
			register: func() error {
				return quote_tools.RegisterQuoteTools(mcpSrv, ctx)
			},
		},
		{
			name: "Catalog resources",
			register: func() error {
				return resources.RegisterCatalogResources(mcpSrv, ctx)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg ServeConfig, logger *slog.Logger) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, sc, cfg.HTTP)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	logger.Info("streamable HTTP server starting",
		slog.String("addr", cfg.HTTPAddr),
		slog.String("endpoint", server.DefaultEndpointPath),
		slog.Bool("tls", httpServer.TLSEnabled()),
		slog.Float64("rate_limit", cfg.HTTP.RateLimit))

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		logger.Info("HTTP server stopped normally")
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// DefaultEndpointPath is where the streamable HTTP transport is mounted.
const DefaultEndpointPath = "/mcp"

// HTTPConfig configures the streamable HTTP transport.
type HTTPConfig struct {
	// EndpointPath is the MCP endpoint (default: /mcp).
	EndpointPath string

	// DisableStreaming turns off SSE upgrades for clients that cannot handle them.
	DisableStreaming bool

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// RateLimit is the sustained requests per second allowed per client IP
	// on the MCP endpoint. Zero disables rate limiting.
	RateLimit float64
	RateBurst int

	// TrustProxy makes the rate limiter key clients by X-Forwarded-For.
	TrustProxy bool
}

// HTTPServer serves an MCP server over streamable HTTP together with the
// health endpoints.
type HTTPServer struct {
	mcpServer     *mcpserver.MCPServer
	serverContext *ServerContext
	health        *HealthChecker
	limiter       *RateLimiter
	config        HTTPConfig

	mu         sync.Mutex
	httpServer *http.Server
	addr       string
}

// NewHTTPServer creates an HTTP server for mcpServer.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext, config HTTPConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, fmt.Errorf("MCP server is required")
	}
	if (config.TLSCertFile == "") != (config.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS certificate and key files must be provided to enable HTTPS")
	}
	if config.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit must not be negative, got %v", config.RateLimit)
	}
	if config.EndpointPath == "" {
		config.EndpointPath = DefaultEndpointPath
	}

	return &HTTPServer{
		mcpServer:     mcpServer,
		serverContext: sc,
		health:        NewHealthChecker(sc),
		limiter:       NewRateLimiter(config.RateLimit, config.RateBurst, config.TrustProxy),
		config:        config,
	}, nil
}

// Health returns the health checker backing /healthz and /readyz.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// TLSEnabled reports whether the server serves HTTPS.
func (s *HTTPServer) TLSEnabled() bool {
	return s.config.TLSCertFile != ""
}

// Handler builds the request router.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(s.config.EndpointPath),
		mcpserver.WithDisableStreaming(s.config.DisableStreaming),
	)
	mux.Handle(s.config.EndpointPath, s.limiter.Middleware(streamable))

	s.health.RegisterHealthEndpoints(mux)

	return s.metricsMiddleware(mux)
}

// Start listens on addr and serves until Shutdown.
func (s *HTTPServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *HTTPServer) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	if s.serverContext != nil && s.limiter != nil {
		go s.limiter.Run(s.serverContext.Context(), limiterIdleTimeout)
	}

	if s.TLSEnabled() {
		slog.Info("starting MCP server", "addr", s.addr, "endpoint", s.config.EndpointPath, "tls", true)
		return srv.ServeTLS(ln, s.config.TLSCertFile, s.config.TLSKeyFile)
	}
	slog.Info("starting MCP server", "addr", s.addr, "endpoint", s.config.EndpointPath)
	return srv.Serve(ln)
}

// Addr returns the bound address once the server is serving.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// metricsMiddleware records every request in the HTTP metrics.
func (s *HTTPServer) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.serverContext == nil || s.serverContext.Metrics() == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.serverContext.Metrics().RecordHTTPRequest(r.Context(), r.Method, s.routeLabel(r.URL.Path), rec.status, time.Since(start))
	})
}

// routeLabel maps a request path to a bounded metric label.
func (s *HTTPServer) routeLabel(path string) string {
	switch path {
	case s.config.EndpointPath, "/healthz", "/readyz", "/healthz/detailed":
		return path
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE responses streaming through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

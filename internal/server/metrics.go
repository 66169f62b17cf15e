package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/teemow/inboxquote/internal/instrumentation"
)

// DefaultMetricsAddr is where the Prometheus endpoint listens unless
// METRICS_ADDR says otherwise.
const DefaultMetricsAddr = ":9090"

const (
	metricsTimeout     = 10 * time.Second
	metricsIdleTimeout = 60 * time.Second
)

// MetricsServer exposes the Prometheus registry of an instrumentation
// provider on its own port, separate from the MCP endpoint.
type MetricsServer struct {
	srv *http.Server
	ln  net.Listener
}

// NewMetricsServer binds addr and routes /metrics and /healthz. The port
// is taken here, so a busy address fails before the MCP server starts.
func NewMetricsServer(addr string, provider *instrumentation.Provider) (*MetricsServer, error) {
	if !provider.Enabled() {
		return nil, errors.New("instrumentation is disabled, there are no metrics to serve")
	}
	handler := provider.PrometheusHandler()
	if handler == nil {
		return nil, errors.New("metrics exporter is not prometheus, there is nothing to scrape")
	}
	if addr == "" {
		addr = DefaultMetricsAddr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", handler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		ln: ln,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: metricsTimeout,
			WriteTimeout:      metricsTimeout,
			IdleTimeout:       metricsIdleTimeout,
		},
	}, nil
}

// Addr returns the bound address, so ":0" resolves to the chosen port.
func (s *MetricsServer) Addr() string {
	return s.ln.Addr().String()
}

// Serve blocks until Shutdown and returns nil after a clean stop.
func (s *MetricsServer) Serve() error {
	slog.Info("serving metrics", "addr", s.Addr())
	if err := s.srv.Serve(s.ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server and releases the port, also when Serve was
// never called.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	if cerr := s.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
		err = errors.Join(err, cerr)
	}
	return err
}

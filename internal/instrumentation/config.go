package instrumentation

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// Exporter names accepted by METRICS_EXPORTER and TRACING_EXPORTER.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// DefaultMetricInterval is how often push exporters flush.
const DefaultMetricInterval = 10 * time.Second

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Config is the telemetry setup of one server process.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Enabled switches metrics, tracing and audit logging as a whole.
	Enabled bool

	Metrics MetricsConfig
	Tracing TracingConfig
	OTLP    OTLPConfig
	Audit   AuditLoggingConfig
}

// MetricsConfig selects how metrics leave the process.
type MetricsConfig struct {
	Exporter string

	// Interval applies to the otlp and stdout exporters. Prometheus is pulled.
	Interval time.Duration

	// DetailedLabels adds the customer email domain to tool metrics.
	DetailedLabels bool
}

// TracingConfig selects how spans leave the process.
type TracingConfig struct {
	Exporter string

	// SampleRatio is the fraction of root spans kept, from 0 to 1.
	SampleRatio float64
}

// OTLPConfig addresses the collector shared by the otlp exporters.
type OTLPConfig struct {
	// Endpoint is host:port without a scheme.
	Endpoint string

	// Insecure disables TLS. Only meant for a local collector.
	Insecure bool
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII logs full customer addresses instead of a hash and domain.
	IncludePII bool
}

// DefaultConfig returns the configuration used when no variable is set:
// prometheus metrics, no tracing, audit logging without PII.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "inboxquote",
		ServiceVersion: "unknown",
		Enabled:        true,
		Metrics: MetricsConfig{
			Exporter: ExporterPrometheus,
			Interval: DefaultMetricInterval,
		},
		Tracing: TracingConfig{
			Exporter:    ExporterNone,
			SampleRatio: 0.1,
		},
		Audit: AuditLoggingConfig{Enabled: true},
	}
}

// ConfigFromEnv reads the configuration from the process environment.
func ConfigFromEnv() (Config, error) {
	return LoadConfig(os.LookupEnv)
}

// LoadConfig overlays the variables found by lookup on DefaultConfig and
// validates the result. Malformed values are reported, not ignored.
func LoadConfig(lookup func(key string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	env := envReader{lookup: lookup}

	env.str("OTEL_SERVICE_NAME", &cfg.ServiceName)
	env.boolean("INSTRUMENTATION_ENABLED", &cfg.Enabled)
	env.str("METRICS_EXPORTER", &cfg.Metrics.Exporter)
	env.duration("METRICS_EXPORT_INTERVAL", &cfg.Metrics.Interval)
	env.boolean("METRICS_DETAILED_LABELS", &cfg.Metrics.DetailedLabels)
	env.str("TRACING_EXPORTER", &cfg.Tracing.Exporter)
	env.float("OTEL_TRACES_SAMPLER_ARG", &cfg.Tracing.SampleRatio)
	env.str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.OTLP.Endpoint)
	env.boolean("OTEL_EXPORTER_OTLP_INSECURE", &cfg.OTLP.Insecure)
	env.boolean("AUDIT_LOGGING_ENABLED", &cfg.Audit.Enabled)
	env.boolean("AUDIT_LOGGING_INCLUDE_PII", &cfg.Audit.IncludePII)

	if err := errors.Join(env.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks exporter names and the values they depend on.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("trace sampling ratio must be between 0 and 1, got %g", c.Tracing.SampleRatio)
	}
	if !slices.Contains(metricsExporters, c.Metrics.Exporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of %v", c.Metrics.Exporter, metricsExporters)
	}
	if !slices.Contains(tracingExporters, c.Tracing.Exporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of %v", c.Tracing.Exporter, tracingExporters)
	}
	if c.Metrics.Interval <= 0 {
		return fmt.Errorf("metrics export interval must be positive, got %s", c.Metrics.Interval)
	}
	if (c.Metrics.Exporter == ExporterOTLP || c.Tracing.Exporter == ExporterOTLP) && c.OTLP.Endpoint == "" {
		return errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required by the otlp exporter")
	}
	return nil
}

// envReader collects parse errors so all bad variables are reported at once.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *envReader) get(key string) (string, bool) {
	v, ok := r.lookup(key)
	return v, ok && v != ""
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *envReader) boolean(key string, dst *bool) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: must be true or false", key, v))
		return
	}
	*dst = b
}

func (r *envReader) float(key string, dst *float64) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: must be a number", key, v))
		return
	}
	*dst = f
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return
	}
	*dst = d
}

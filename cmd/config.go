package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxquote/internal/catalog"
	"github.com/teemow/inboxquote/internal/clock"
	"github.com/teemow/inboxquote/internal/logging"
	"github.com/teemow/inboxquote/internal/quote"
)

// QuoteConfig holds the settings shared by every command that prices emails.
type QuoteConfig struct {
	// CatalogFile is a TOML price list. Empty means the built-in catalog.
	CatalogFile string

	// Timezone is the IANA zone quotes are dated in and the default zone of
	// get_current_time. Empty means the zone detected on the host.
	Timezone string

	// ValidityDays is how long a quote stays valid.
	ValidityDays int

	// Terms replaces the default payment terms line.
	Terms string
}

func addQuoteFlags(cmd *cobra.Command, cfg *QuoteConfig) {
	cmd.Flags().StringVar(&cfg.CatalogFile, "catalog", "", "Path to a TOML product catalog. Uses the built-in demo catalog when empty. Can also use QUOTE_CATALOG_FILE env var.")
	cmd.Flags().StringVar(&cfg.Timezone, "timezone", "", "IANA timezone for quote timestamps and time lookups (default: detected local zone). Can also use QUOTE_TIMEZONE env var.")
	cmd.Flags().IntVar(&cfg.ValidityDays, "validity-days", int(quote.DefaultValidity/(24*time.Hour)), "Number of days a quote stays valid. Can also use QUOTE_VALIDITY_DAYS env var.")
	cmd.Flags().StringVar(&cfg.Terms, "terms", "", "Payment terms printed on every quote. Can also use QUOTE_TERMS env var.")
}

// loadQuoteEnvVars fills settings whose flags were not set from the environment.
func loadQuoteEnvVars(cmd *cobra.Command, cfg *QuoteConfig) error {
	envString(cmd, "catalog", "QUOTE_CATALOG_FILE", &cfg.CatalogFile)
	envString(cmd, "timezone", "QUOTE_TIMEZONE", &cfg.Timezone)
	envString(cmd, "terms", "QUOTE_TERMS", &cfg.Terms)
	return envInt(cmd, "validity-days", "QUOTE_VALIDITY_DAYS", &cfg.ValidityDays)
}

// newQuoteEngine loads the catalog and builds the engine and clock for cfg.
func newQuoteEngine(cfg QuoteConfig, logger *slog.Logger) (*quote.Engine, *clock.Clock, error) {
	if cfg.ValidityDays < 1 {
		return nil, nil, fmt.Errorf("quote validity must be at least one day, got %d", cfg.ValidityDays)
	}

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		var err error
		if cat, err = catalog.Load(cfg.CatalogFile); err != nil {
			return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}

	clk, err := clock.New(cfg.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure timezone: %w", err)
	}

	engine, err := quote.NewEngine(quote.Options{
		Catalog:  cat,
		Location: clk.DefaultZone(),
		Validity: time.Duration(cfg.ValidityDays) * 24 * time.Hour,
		Terms:    cfg.Terms,
		Logger:   logging.NewSlogAdapter(logger),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create quote engine: %w", err)
	}
	return engine, clk, nil
}

func envString(cmd *cobra.Command, flag, key string, target *string) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envBool(cmd *cobra.Command, flag, key string, target *bool) error {
	if cmd.Flags().Changed(flag) {
		return nil
	}
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s value %q (expected true/false)", key, v)
	}
	*target = parsed
	return nil
}

func envInt(cmd *cobra.Command, flag, key string, target *int) error {
	if cmd.Flags().Changed(flag) {
		return nil
	}
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s value %q (expected an integer)", key, v)
	}
	*target = parsed
	return nil
}

func envFloat(cmd *cobra.Command, flag, key string, target *float64) error {
	if cmd.Flags().Changed(flag) {
		return nil
	}
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s value %q (expected a number)", key, v)
	}
	*target = parsed
	return nil
}

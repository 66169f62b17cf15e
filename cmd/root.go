package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxquote/internal/logging"
)

var (
	envFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command for the inboxquote application
var rootCmd = &cobra.Command{
	Use:   "inboxquote",
	Short: "Turns customer emails into priced quotes",
	Long: `inboxquote reads product codes and quantities from customer emails,
prices them against a product catalog with volume discounts and returns a
quote.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (default)
  - A standalone CLI tool (quote, time, catalog)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initEnvironment(cmd)
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxquote version %s\n" .Version}}`)

	// If no subcommand is provided, run the MCP server by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// initEnvironment loads the .env file and installs the default logger.
// Logs always go to stderr; stdout carries the stdio transport and command
// output.
func initEnvironment(cmd *cobra.Command) error {
	if err := godotenv.Load(envFile); err != nil {
		// A missing default .env is normal; an explicit one must exist.
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	envString(cmd, "log-level", "LOG_LEVEL", &logLevel)
	envString(cmd, "log-format", "LOG_FORMAT", &logFormat)

	logger, err := logging.Setup(logLevel, logFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File with environment variables to load before reading configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error. Can also use LOG_LEVEL env var.")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json. Can also use LOG_FORMAT env var.")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newQuoteCmd())
	rootCmd.AddCommand(newTimeCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxquote/internal/message"
	"github.com/teemow/inboxquote/internal/quote"
)

func newQuoteCmd() *cobra.Command {
	var (
		cfg     QuoteConfig
		format  string
		rawMIME bool
	)

	cmd := &cobra.Command{
		Use:   "quote [file|-]",
		Short: "Generate a quote from an email",
		Long: `Read an email from a file, or from standard input when the argument is
"-" or missing, and print the quote for the products it asks for.

With --mime the input is a complete message as saved by a mail client
(.eml) and only its text body is parsed.

Example:
  echo "1) 08-50-0113, 20Kpcs" | inboxquote quote --format text
  inboxquote quote --mime request.eml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadQuoteEnvVars(cmd, &cfg); err != nil {
				return err
			}
			f, err := quote.ParseFormat(format)
			if err != nil {
				return err
			}

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			body, err := readEmail(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			if rawMIME {
				msg, err := message.Parse(body)
				if err != nil {
					return err
				}
				if msg.From != "" {
					slog.Debug("quoting message", "from", msg.From, "subject", msg.Subject)
				}
				body = msg.Body
			}

			return runQuote(cmd, cfg, f, body)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(quote.FormatText), "Output format: text or json")
	cmd.Flags().BoolVar(&rawMIME, "mime", false, "Treat the input as a raw RFC 5322 message and quote its text body")
	addQuoteFlags(cmd, &cfg)

	return cmd
}

func readEmail(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read email: %w", err)
	}
	return string(data), nil
}

func runQuote(cmd *cobra.Command, cfg QuoteConfig, format quote.Format, body string) error {
	engine, _, err := newQuoteEngine(cfg, slog.Default())
	if err != nil {
		return err
	}

	q, err := engine.Generate(cmd.Context(), body)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == quote.FormatText {
		_, err = fmt.Fprint(out, quote.Text(q))
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(q)
}

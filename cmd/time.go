package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxquote/internal/clock"
)

func newTimeCmd() *cobra.Command {
	var timezone string

	cmd := &cobra.Command{
		Use:   "time [zone]",
		Short: "Print the current time in a timezone",
		Long: `Print the current time in an IANA timezone such as Europe/London.
Without an argument the configured or detected local zone is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envString(cmd, "timezone", "QUOTE_TIMEZONE", &timezone)

			clk, err := clock.New(timezone)
			if err != nil {
				return err
			}

			zone := ""
			if len(args) == 1 {
				zone = args[0]
			}
			result, err := clk.CurrentTime(zone)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&timezone, "timezone", "", "Default IANA timezone when no zone argument is given (default: detected local zone). Can also use QUOTE_TIMEZONE env var.")

	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/sscreds/cmd/sscreds/commands"
	"github.com/systmms/sscreds/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		envFile string
		noColor bool
		debug   bool
	)

	opts := &commands.Options{}

	rootCmd := &cobra.Command{
		Use:   "sscreds",
		Short: "Retrieve credentials from Secret Server",
		Long: `sscreds resolves a secret's identity, secret and one-time-password
values from a Delinea Secret Server instance, authenticating with the
application account configured via SSAPP_USERNAME, SSAPP_PASSWORD and
SSAPP_BASEURL (optionally loaded from a .env file).`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.Logger = logging.New(debug, noColor)
			opts.EnvFile = envFile
			opts.Debug = debug
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file with SSAPP_* values")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewGetCommand(opts),
		commands.NewOTPCommand(opts),
		commands.NewCheckCommand(opts),
	)

	return rootCmd.Execute()
}

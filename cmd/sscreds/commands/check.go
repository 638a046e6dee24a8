package commands

import (
	"github.com/spf13/cobra"
)

// NewCheckCommand validates configuration and authentication without
// touching any secret.
func NewCheckCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and authentication",
		Long: `Verify that the SSAPP_* configuration is complete and that the
application account can obtain a token from the server. No secret is
read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				opts.Logger.Error("configuration invalid: %v", err)
				return err
			}
			opts.Logger.Info("configuration loaded")

			if err := client.Validate(cmd.Context()); err != nil {
				opts.Logger.Error("authentication failed: %v", err)
				return err
			}
			opts.Logger.Info("authenticated successfully")
			return nil
		},
	}

	return cmd
}

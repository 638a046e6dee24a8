package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/sscreds/pkg/secretserver"
)

// NewGetCommand resolves and prints a secret's credential values.
func NewGetCommand(opts *Options) *cobra.Command {
	var (
		secretID   int
		identSlug  string
		secretSlug string
		otpSlug    string
		withOTP    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Retrieve a credential's identity and secret",
		Long: `Resolve a secret by ID and print its identity and secret values.

By default the values are printed one per line for scripting. Use
--json for structured output, and --otp to also derive the current
time-based code when the secret stores a seed.

Examples:
  # Default username/password slugs
  sscreds get --id 1234

  # Custom slugs
  sscreds get --id 1234 --ident-slug email --secret-slug api_key

  # Include the current one-time code
  sscreds get --id 1234 --otp --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}

			cred, err := client.NewCredential(secretserver.CredentialSpec{
				SecretID:     secretID,
				IdentitySlug: identSlug,
				SecretSlug:   secretSlug,
				OTPSlug:      otpSlug,
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			opts.Logger.Debug("resolving credential request %s", cred.RequestID())

			identity, err := cred.Identity(ctx)
			if err != nil {
				var missing secretserver.FieldNotFoundError
				if !errors.As(err, &missing) {
					return err
				}
				opts.Logger.Warn("secret %d has no identity field %q", missing.SecretID, missing.Slug)
			}

			secret, err := cred.SecretValue(ctx)
			if err != nil {
				return err
			}

			var otp string
			if withOTP {
				if otp, err = cred.OTP(ctx); err != nil {
					return err
				}
			}

			if jsonOutput {
				out := map[string]string{
					"id":       fmt.Sprintf("%d", cred.SecretID()),
					"identity": identity,
					"secret":   secret,
				}
				if withOTP {
					out["otp"] = otp
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Println(identity)
			fmt.Println(secret)
			if withOTP && otp != "" {
				fmt.Println(otp)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&secretID, "id", 0, "Secret ID to retrieve (required)")
	cmd.Flags().StringVar(&identSlug, "ident-slug", "", "Field slug for the identity value (default username)")
	cmd.Flags().StringVar(&secretSlug, "secret-slug", "", "Field slug for the secret value (default password)")
	cmd.Flags().StringVar(&otpSlug, "otp-slug", "", "Field slug for the OTP seed (default totp)")
	cmd.Flags().BoolVar(&withOTP, "otp", false, "Also derive the current one-time code")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

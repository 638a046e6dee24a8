package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/sscreds/pkg/secretserver"
)

// NewOTPCommand prints just the current one-time code for a secret.
func NewOTPCommand(opts *Options) *cobra.Command {
	var (
		secretID int
		otpSlug  string
	)

	cmd := &cobra.Command{
		Use:   "otp",
		Short: "Derive the current one-time code for a secret",
		Long: `Fetch a secret's stored OTP seed and print the current time-based
code. The code is suitable for piping into other tools:

  curl -u "user:$(sscreds otp --id 1234)" ...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}

			cred, err := client.NewCredential(secretserver.CredentialSpec{
				SecretID: secretID,
				OTPSlug:  otpSlug,
			})
			if err != nil {
				return err
			}

			code, err := cred.OTP(cmd.Context())
			if err != nil {
				return err
			}
			if code == "" {
				return fmt.Errorf("secret %d stores no OTP seed", secretID)
			}

			fmt.Println(code)
			return nil
		},
	}

	cmd.Flags().IntVar(&secretID, "id", 0, "Secret ID holding the OTP seed (required)")
	cmd.Flags().StringVar(&otpSlug, "slug", "", "Field slug for the OTP seed (default totp)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

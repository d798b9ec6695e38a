// Command tokenctl issues and verifies bearer tokens with the secret shared
// by the services. It is meant for operators debugging authentication.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/kart-orders/internal/domain/auth"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tokenctl",
		Short: "Issue and verify kart bearer tokens",
		Long: `Issue and verify bearer tokens accepted by the order and user services.

The secret defaults to the SECRET_KEY environment variable.

Example:
  tokenctl issue alice
  tokenctl verify "$TOKEN"`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("secret", "s", "", "Token signing secret (default $SECRET_KEY)")
	rootCmd.PersistentFlags().String("context", auth.DefaultContext, "Context label mixed into the signing key")

	rootCmd.AddCommand(newIssueCmd(), newVerifyCmd())
	return rootCmd
}

func newIssueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issue <username>",
		Short: "Print a token for username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := codecFromFlags(cmd)
			if err != nil {
				return err
			}
			token, err := codec.Issue(args[0])
			if err != nil {
				return errors.Wrap(err, "issue token")
			}
			return writeLine(cmd.OutOrStdout(), token)
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Print the identity a token was issued for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := codecFromFlags(cmd)
			if err != nil {
				return err
			}
			id, err := codec.Verify(args[0])
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), id.String())
		},
	}
}

func codecFromFlags(cmd *cobra.Command) (*auth.Codec, error) {
	secret, err := cmd.Flags().GetString("secret")
	if err != nil {
		return nil, errors.Wrap(err, "get secret flag")
	}
	if secret == "" {
		secret = os.Getenv("SECRET_KEY")
	}

	label, err := cmd.Flags().GetString("context")
	if err != nil {
		return nil, errors.Wrap(err, "get context flag")
	}

	codec, err := auth.NewCodec(secret, auth.WithContext(label))
	if err != nil {
		return nil, errors.Wrap(err, "set --secret or SECRET_KEY")
	}
	return codec, nil
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}

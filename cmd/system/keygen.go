package system

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rodrigoprogmaster-prog/clinica/pkg/crypto"
	pasetotoken "github.com/rodrigoprogmaster-prog/clinica/pkg/paseto"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/util/password"
)

// NewKeygenCommand prints fresh secrets in config.yaml form. It reads no
// config so it can run before one exists.
func NewKeygenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate token, encryption and master password secrets",
		Long: `Print a v4.local PASETO key, an AES-256 key for clinical notes and,
with --master, the argon2id hash of a master password, ready to paste into
config.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			noteKey, err := crypto.NewKeyHex()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "authentication:")
			fmt.Fprintln(out, "  paseto:")
			fmt.Fprintf(out, "    local_key_hex: %q\n", pasetotoken.LocalKeyHex())
			fmt.Fprintln(out, "clinic:")
			fmt.Fprintf(out, "  encryption_key: %q\n", noteKey)

			master, _ := cmd.Flags().GetString("master")
			if master != "" {
				h, err := password.Hash(master)
				if err != nil {
					return fmt.Errorf("hash master password: %w", err)
				}
				fmt.Fprintf(out, "  master_password: %q\n", h)
			}
			return nil
		},
	}

	cmd.Flags().String("master", "", "Master password to hash")
	return cmd
}

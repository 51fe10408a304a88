package cli

import (
	"github.com/spf13/cobra"

	"github.com/memopark/keyward/internal/keys"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

// walletUseCmd selects the current wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletUseCmd = &cobra.Command{
	Use:   "use <address>",
	Short: "Select the current wallet",
	Long: `Select the wallet used by default for unlocking and signing.

Switching wallets drops any cached credential so the next signing
request authenticates against the newly selected keystore.

Example:
  keyward wallet use 5F3sa2TJ...`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletUse,
}

func runWalletUse(cmd *cobra.Command, args []string) error {
	cc, err := GetCmdContext()
	if err != nil {
		return err
	}

	address := args[0]
	if !keys.ValidAddress(address) {
		return kwerr.WithDetails(kwerr.ErrInvalidAddress, map[string]string{"address": address})
	}

	if err := cc.Keystore.SetCurrent(address); err != nil {
		return err
	}

	// Cached credentials for the previous wallet must not survive the
	// switch.
	cc.Credentials.Clear()

	w := cmd.OutOrStdout()
	if cc.Fmt.IsJSON() {
		return writeJSON(w, map[string]string{"current": address})
	}
	out(w, "Current wallet set to %s\n", address)
	return nil
}

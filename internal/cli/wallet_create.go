package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memopark/keyward/internal/config"
	"github.com/memopark/keyward/internal/keys"
	"github.com/memopark/keyward/internal/keystore"
	"github.com/memopark/keyward/internal/keywardcrypto"
	"github.com/memopark/keyward/internal/output"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

// walletCreateCmd creates a new wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCreateCmd = &cobra.Command{
	Use:   "create <label>",
	Short: "Create a new wallet",
	Long: `Create a new wallet with a BIP39 mnemonic phrase.

The mnemonic will be displayed once - write it down and store it securely.
You will be prompted for a password to encrypt the wallet keystore.

Example:
  keyward wallet create main
  keyward wallet create main --words 24`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletCreate,
}

func runWalletCreate(cmd *cobra.Command, args []string) error {
	cc, err := GetCmdContext()
	if err != nil {
		return err
	}

	label := config.SanitizeLabel(args[0])
	if label == "" {
		return kwerr.WithSuggestion(kwerr.ErrInvalidInput, "wallet label must contain letters or digits")
	}

	if createWords != 12 && createWords != 24 {
		return kwerr.WithSuggestion(kwerr.ErrInvalidInput, "word count must be 12 or 24")
	}

	mnemonic, err := keys.GenerateMnemonic(createWords)
	if err != nil {
		return fmt.Errorf("generating mnemonic: %w", err)
	}

	password, err := promptNewPasswordFn()
	if err != nil {
		return err
	}
	defer keywardcrypto.ZeroBytes(password)

	record, err := keystore.Create(mnemonic, label, password)
	if err != nil {
		return err
	}
	if err := cc.Keystore.Save(record); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if cc.Fmt.IsJSON() {
		return writeJSON(w, map[string]string{
			"address":  record.Address,
			"label":    record.Label,
			"mnemonic": mnemonic,
		})
	}

	outln(w, "Wallet created.")
	out(w, "  Address: %s\n", record.Address)
	out(w, "  Label:   %s\n", record.Label)
	outln(w)
	outln(w, "Recovery phrase (shown once, store it offline):")
	out(w, "  %s\n", mnemonic)
	output.Warn("Anyone with this phrase controls the wallet.")
	return nil
}

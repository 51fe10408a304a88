package cli

import (
	"github.com/spf13/cobra"

	"github.com/memopark/keyward/internal/config"
	"github.com/memopark/keyward/internal/keys"
	"github.com/memopark/keyward/internal/keystore"
	"github.com/memopark/keyward/internal/keywardcrypto"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

// walletImportCmd imports a wallet from an existing mnemonic.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletImportCmd = &cobra.Command{
	Use:   "import <label>",
	Short: "Import a wallet from a mnemonic phrase",
	Long: `Import a wallet from an existing BIP39 mnemonic phrase.

The phrase can be passed with --mnemonic or entered interactively.
You will be prompted for a password to encrypt the wallet keystore.

Example:
  keyward wallet import restored --mnemonic "legal winner thank ..."
  keyward wallet import restored`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletImport,
}

func runWalletImport(cmd *cobra.Command, args []string) error {
	cc, err := GetCmdContext()
	if err != nil {
		return err
	}

	label := config.SanitizeLabel(args[0])
	if label == "" {
		return kwerr.WithSuggestion(kwerr.ErrInvalidInput, "wallet label must contain letters or digits")
	}

	mnemonic := importMnemonic
	if mnemonic == "" {
		mnemonic, err = promptMnemonicFn()
		if err != nil {
			return err
		}
	}
	mnemonic = keys.NormalizeMnemonic(mnemonic)
	if err := keys.ValidateMnemonic(mnemonic); err != nil {
		return kwerr.WithSuggestion(kwerr.ErrInvalidMnemonic, "provide a 12 or 24 word BIP39 phrase")
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
			"address": record.Address,
			"label":   record.Label,
		})
	}

	outln(w, "Wallet imported.")
	out(w, "  Address: %s\n", record.Address)
	out(w, "  Label:   %s\n", record.Label)
	return nil
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/memopark/keyward/internal/output"
)

// walletListCmd lists all wallets.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	Long: `List all stored wallets and mark the currently selected one.

Example:
  keyward wallet list
  keyward wallet list -o json`,
	Aliases: []string{"ls"},
	RunE:    runWalletList,
}

type walletEntry struct {
	Address string `json:"address"`
	Label   string `json:"label"`
	Current bool   `json:"current"`
}

func runWalletList(cmd *cobra.Command, _ []string) error {
	cc, err := GetCmdContext()
	if err != nil {
		return err
	}

	addresses, err := cc.Keystore.List()
	if err != nil {
		return err
	}
	current := cc.Keystore.CurrentAddress()

	entries := make([]walletEntry, 0, len(addresses))
	for _, addr := range addresses {
		record, loadErr := cc.Keystore.Load(addr)
		if loadErr != nil {
			return loadErr
		}
		entries = append(entries, walletEntry{
			Address: record.Address,
			Label:   record.Label,
			Current: record.Address == current,
		})
	}

	w := cmd.OutOrStdout()
	if cc.Fmt.IsJSON() {
		return writeJSON(w, entries)
	}

	if len(entries) == 0 {
		outln(w, "No wallets found. Run 'keyward wallet create <label>' to add one.")
		return nil
	}

	table := output.NewTable("", "ADDRESS", "LABEL")
	for _, e := range entries {
		marker := " "
		if e.Current {
			marker = "*"
		}
		table.AddRow(marker, e.Address, e.Label)
	}
	return table.Render(w)
}

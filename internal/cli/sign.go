package cli

import (
	"encoding/hex"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memopark/keyward/internal/credential"
	"github.com/memopark/keyward/internal/signer"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	signAddress string
	signModule  string
	signMethod  string
	signArgs    string
	signRaw     string
)

// signCmd signs a transaction payload or raw bytes.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a transaction payload or raw bytes",
	Long: `Sign a structured transaction payload or raw bytes with the cached
wallet keypair. A cold cache triggers a password prompt first.

Example:
  keyward sign --module balances --method transfer --args 0x0004
  keyward sign --raw 0xdeadbeef
  keyward sign --raw 0xdeadbeef --address 5F3sa2TJ...`,
	Args: cobra.NoArgs,
	RunE: runSign,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(signCmd)
	signCmd.Flags().StringVar(&signAddress, "address", "", "signing address (default: currently selected wallet)")
	signCmd.Flags().StringVar(&signModule, "module", "", "dispatch module of the call, e.g. balances")
	signCmd.Flags().StringVar(&signMethod, "method", "", "dispatch method of the call, e.g. transfer")
	signCmd.Flags().StringVar(&signArgs, "args", "", "hex-encoded call arguments")
	signCmd.Flags().StringVar(&signRaw, "raw", "", "hex-encoded raw bytes to sign instead of a structured payload")
}

func runSign(cmd *cobra.Command, _ []string) error {
	cc, err := GetCmdContext()
	if err != nil {
		return err
	}
	defer cc.Sessions.Close()

	if _, _, err := cc.Sessions.Init(); err != nil {
		return err
	}

	var result *credential.Result
	switch {
	case signRaw != "":
		raw, decodeErr := decodeHex(signRaw)
		if decodeErr != nil {
			return decodeErr
		}
		result, err = cc.Signer.SignRaw(cmd.Context(), signAddress, raw)

	case signModule != "" && signMethod != "":
		args, decodeErr := decodeHex(signArgs)
		if decodeErr != nil {
			return decodeErr
		}
		result, err = cc.Signer.SignPayload(cmd.Context(), signer.TxPayload{
			Address: signAddress,
			Module:  signModule,
			Method:  signMethod,
			Args:    args,
		})

	default:
		return kwerr.WithSuggestion(kwerr.ErrInvalidInput,
			"provide either --raw or both --module and --method")
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if cc.Fmt.IsJSON() {
		return writeJSON(w, map[string]any{
			"id":        result.ID,
			"signature": "0x" + hex.EncodeToString(result.Signature),
		})
	}

	out(w, "Request ID: %d\n", result.ID)
	out(w, "Signature:  0x%s\n", hex.EncodeToString(result.Signature))
	return nil
}

// decodeHex decodes a hex string with or without a 0x prefix. Empty
// input yields nil bytes.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, nil
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, kwerr.WithDetails(kwerr.ErrInvalidInput, map[string]string{"hex": s})
	}
	return data, nil
}

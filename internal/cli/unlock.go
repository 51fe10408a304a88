package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/memopark/keyward/internal/keywardcrypto"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

// unlockCmd decrypts the current wallet into the credential cache.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var unlockCmd = &cobra.Command{
	Use:   "unlock [address]",
	Short: "Unlock a wallet for signing",
	Long: `Decrypt a wallet keystore into the in-memory credential cache and
start a session. Without an address the currently selected wallet is
unlocked.

Example:
  keyward unlock
  keyward unlock 5F3sa2TJ...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUnlock,
}

// lockCmd clears cached credentials and the session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Drop cached credentials and end the session",
	Long: `Drop the in-memory credential cache and clear the persisted session.

Use this when stepping away from your machine.

Example:
  keyward lock`,
	Args: cobra.NoArgs,
	RunE: runLock,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(lockCmd)
}

func runUnlock(cmd *cobra.Command, args []string) error {
	cc, err := GetCmdContext()
	if err != nil {
		return err
	}

	address := ""
	if len(args) == 1 {
		address = args[0]
	}
	if address == "" && cc.Keystore.CurrentAddress() == "" {
		return kwerr.WithSuggestion(kwerr.ErrNoKeystore, "create a wallet first with 'keyward wallet create'")
	}

	maxAttempts := cc.Config.Auth.MaxPasswordAttempts
	prompt := signerPrompt()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		password, promptErr := prompt(cmd.Context(), address, attempt, maxAttempts)
		if promptErr != nil {
			return promptErr
		}

		err = cc.Credentials.Activate(password, address, cc.Config.CredentialTTL())
		keywardcrypto.ZeroBytes(password)

		if err == nil {
			break
		}
		if !kwerr.Is(err, kwerr.ErrInvalidPassword) {
			return err
		}
	}
	if err != nil {
		return kwerr.ErrAuthExhausted
	}

	bound := cc.Credentials.BoundAddress()
	record, err := cc.Sessions.CreateSession(bound)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if cc.Fmt.IsJSON() {
		return writeJSON(w, map[string]any{
			"address":            bound,
			"session_id":         record.SessionID,
			"session_expires_at": record.ExpiresAt.Format(time.RFC3339),
			"credential_expires": cc.Credentials.ExpiresAt().Format(time.RFC3339),
		})
	}

	out(w, "Unlocked %s\n", bound)
	out(w, "  Session %s expires %s\n", record.SessionID, record.ExpiresAt.Format(time.RFC3339))
	return nil
}

func runLock(cmd *cobra.Command, _ []string) error {
	cc, err := GetCmdContext()
	if err != nil {
		return err
	}

	cc.Credentials.Clear()
	if err := cc.Sessions.ClearSession(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if cc.Fmt.IsJSON() {
		return writeJSON(w, map[string]string{"status": "locked"})
	}
	outln(w, "Credentials dropped and session cleared.")
	return nil
}

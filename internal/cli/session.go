package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/memopark/keyward/internal/output"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

// sessionCmd is the parent command for session operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the signing session",
	Long: `Inspect and refresh the persisted signing session.

A session records which wallet was unlocked, when it expires and the
device it was created on. Only non-secret metadata is stored; the
decrypted keypair never leaves memory.`,
}

// sessionStatusCmd shows the current session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the current session and remaining time",
	Long:    `Show the persisted session, its remaining lifetime, and any anomaly flags.`,
	Example: `  keyward session status`,
	RunE:    runSessionStatus,
}

// sessionRefreshCmd extends the current session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionRefreshCmd = &cobra.Command{
	Use:     "refresh",
	Short:   "Extend the current session",
	Long:    `Extend the current session for a full lifetime and rotate its refresh token.`,
	Example: `  keyward session refresh`,
	RunE:    runSessionRefresh,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionRefreshCmd)
}

type sessionStatusOutput struct {
	Active        bool   `json:"active"`
	SessionID     string `json:"session_id,omitempty"`
	Address       string `json:"address,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	Remaining     string `json:"remaining,omitempty"`
	LastActivity  string `json:"last_activity,omitempty"`
	ShouldRefresh bool   `json:"should_refresh,omitempty"`
	Anomaly       string `json:"anomaly,omitempty"`
}

func runSessionStatus(cmd *cobra.Command, _ []string) error {
	cc, err := GetCmdContext()
	if err != nil {
		return err
	}
	defer cc.Sessions.Close()

	record, anomaly, err := cc.Sessions.Init()
	if err != nil {
		return err
	}

	status := sessionStatusOutput{Active: record != nil}
	if record != nil {
		status.SessionID = record.SessionID
		status.Address = record.Address
		status.ExpiresAt = record.ExpiresAt.Format(time.RFC3339)
		status.Remaining = record.TTL(time.Now()).Round(time.Second).String()
		status.LastActivity = record.LastActivity.Format(time.RFC3339)
		status.ShouldRefresh = cc.Sessions.ShouldRefresh()
	}
	if anomaly.IsAnomalous {
		status.Anomaly = string(anomaly.Reason)
	}

	w := cmd.OutOrStdout()
	if cc.Fmt.IsJSON() {
		return writeJSON(w, status)
	}

	if !status.Active {
		outln(w, "No active session. Run 'keyward unlock' to start one.")
		return nil
	}

	outln(w, "Session active.")
	out(w, "  ID:            %s\n", status.SessionID)
	out(w, "  Address:       %s\n", status.Address)
	out(w, "  Expires:       %s (%s remaining)\n", status.ExpiresAt, status.Remaining)
	out(w, "  Last activity: %s\n", status.LastActivity)
	if status.ShouldRefresh {
		outln(w, "  Session is close to expiry; run 'keyward session refresh'.")
	}
	if status.Anomaly != "" {
		output.Warnf("Session anomaly: %s", status.Anomaly)
	}
	return nil
}

func runSessionRefresh(cmd *cobra.Command, _ []string) error {
	cc, err := GetCmdContext()
	if err != nil {
		return err
	}
	defer cc.Sessions.Close()

	if _, _, err := cc.Sessions.Init(); err != nil {
		return err
	}

	record, err := cc.Sessions.RefreshSession()
	if err != nil {
		return err
	}
	if record == nil {
		return kwerr.WithSuggestion(kwerr.ErrSessionInactive, "run 'keyward unlock' to start a session")
	}

	w := cmd.OutOrStdout()
	if cc.Fmt.IsJSON() {
		return writeJSON(w, sessionStatusOutput{
			Active:    true,
			SessionID: record.SessionID,
			Address:   record.Address,
			ExpiresAt: record.ExpiresAt.Format(time.RFC3339),
			Remaining: record.TTL(time.Now()).Round(time.Second).String(),
		})
	}

	out(w, "Session %s extended until %s\n", record.SessionID, record.ExpiresAt.Format(time.RFC3339))
	return nil
}

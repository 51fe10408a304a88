package cli

import (
	"context"
	"path/filepath"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/memopark/keyward/internal/config"
	"github.com/memopark/keyward/internal/credential"
	"github.com/memopark/keyward/internal/events"
	"github.com/memopark/keyward/internal/keystore"
	"github.com/memopark/keyward/internal/output"
	"github.com/memopark/keyward/internal/session"
	"github.com/memopark/keyward/internal/signer"
)

// CmdContext holds the wired dependencies for CLI commands. Tests build
// their own with temp directories; production commands get one from
// buildCmdContext.
type CmdContext struct {
	Config      *config.Config
	Log         zerolog.Logger
	Fmt         *output.Formatter
	Keystore    keystore.Store
	Credentials *credential.Cache
	Sessions    *session.Manager
	Signer      *signer.Adapter
}

// activeCmdContext overrides the default context when set; tests inject
// through it.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var activeCmdContext *CmdContext

// GetCmdContext returns the injected context, or wires the default one
// from global state.
func GetCmdContext() (*CmdContext, error) {
	if activeCmdContext != nil {
		return activeCmdContext, nil
	}
	return buildCmdContext()
}

// buildCmdContext wires the service graph from the global config.
func buildCmdContext() (*CmdContext, error) {
	home := config.ExpandHome(cfg.Home)

	ks := keystore.NewFileStore(filepath.Join(home, "keystore"))
	cache := credential.NewCache(ks)

	sessions := session.NewManager(
		session.NewFileStore(filepath.Join(home, "session")),
		newSessionBus(logger),
		logger,
		session.Config{
			SessionDuration:   cfg.SessionDuration(),
			RefreshThreshold:  cfg.RefreshThreshold(),
			InactivityWarn:    cfg.InactivityWarn(),
			InactivityStale:   cfg.InactivityStale(),
			StrictDeviceCheck: cfg.Session.StrictDeviceCheck,
		},
	)

	adapter := signer.New(cache, sessions, signerPrompt(), logger,
		signer.WithMaxAttempts(cfg.Auth.MaxPasswordAttempts),
		signer.WithCredentialTTL(cfg.CredentialTTL()),
	)

	return &CmdContext{
		Config:      cfg,
		Log:         logger,
		Fmt:         formatter,
		Keystore:    ks,
		Credentials: cache,
		Sessions:    sessions,
		Signer:      adapter,
	}, nil
}

// newSessionBus wires an in-process event bus with a subscriber that
// records session changes to the structured log. The bus lives for the
// process lifetime.
func newSessionBus(log zerolog.Logger) events.Publisher {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	messages, err := bus.Subscribe(context.Background(), events.SessionTopic)
	if err != nil {
		log.Warn().Err(err).Msg("session event bus unavailable")
		return events.NopPublisher{}
	}

	go func() {
		for msg := range messages {
			log.Debug().RawJSON("event", msg.Payload).Msg("session changed")
			msg.Ack()
		}
	}()

	return events.NewWatermillPublisher(bus)
}

package app

import (
	"context"
	"fmt"

	"github.com/kauth-dev/kauth/pkg/auth"
	"github.com/kauth-dev/kauth/pkg/auth/store"
	"github.com/kauth-dev/kauth/pkg/config"
	kautherr "github.com/kauth-dev/kauth/pkg/errors"
)

// Process exit codes, one per error class, so scripts wrapping kauth can
// react without parsing messages.
const (
	exitOK              = 0
	exitInternal        = 1
	exitNetwork         = 2
	exitProviderReject  = 3
	exitTimeout         = 4
	exitNotLoggedIn     = 5
	exitPortInUse       = 6
	exitLoginInProgress = 7
)

// ExitCode maps a command error to its process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case kautherr.IsNetwork(err):
		return exitNetwork
	case kautherr.IsProviderRejected(err), kautherr.IsMalformed(err):
		return exitProviderReject
	case kautherr.IsTimeout(err):
		return exitTimeout
	case kautherr.IsNotAuthenticated(err), kautherr.IsInvalidGrant(err):
		return exitNotLoggedIn
	case kautherr.IsPortInUse(err):
		return exitPortInUse
	case kautherr.IsLoginInProgress(err):
		return exitLoginInProgress
	default:
		return exitInternal
	}
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.NewLocalStore("").Load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("no identity provider configured: set server_url in the kauth config file")
	}
	return cfg, nil
}

// engineOverrides carries per-command flag overrides on top of the config.
type engineOverrides struct {
	realm    string
	port     int
	skipOpen bool
}

func newEngine(cfg *config.Config, o engineOverrides) (*auth.Engine, error) {
	contextStore, err := store.NewStore(cfg.ContextStorage)
	if err != nil {
		return nil, err
	}

	realm := cfg.Realm
	if o.realm != "" {
		realm = o.realm
	}
	port := cfg.CallbackPort
	if o.port != 0 {
		port = o.port
	}

	return auth.New(auth.Options{
		ServerURL:    cfg.ServerURL,
		Realm:        realm,
		ClientID:     cfg.ClientID,
		Scopes:       cfg.Scopes,
		CallbackPort: port,
		LoginTimeout: cfg.LoginTimeout.Duration,
		Store:        contextStore,
		SkipBrowser:  o.skipOpen,
	})
}

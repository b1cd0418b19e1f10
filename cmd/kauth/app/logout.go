package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kauth-dev/kauth/pkg/auth/store"
	"github.com/kauth-dev/kauth/pkg/config"
	kautherr "github.com/kauth-dev/kauth/pkg/errors"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and discard the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Logout needs only the context store, not a configured server.
			cfg, err := config.NewLocalStore("").Load(cmd.Context())
			if err != nil {
				return err
			}
			contextStore, err := store.NewStore(cfg.ContextStorage)
			if err != nil {
				return err
			}
			if err := contextStore.Clear(); err != nil {
				return kautherr.NewInternalError("unable to clear session", err)
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kauth-dev/kauth/pkg/auth"
	kautherr "github.com/kauth-dev/kauth/pkg/errors"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg, engineOverrides{})
			if err != nil {
				return err
			}
			authCtx, err := engine.CurrentContext()
			if err != nil {
				return err
			}
			if authCtx == nil {
				return kautherr.NewNotAuthenticatedError("not logged in, run kauth login", nil)
			}

			now := time.Now()
			fmt.Printf("Realm:   %s\n", authCtx.Realm)
			fmt.Printf("Issuer:  %s\n", authCtx.IssuerURL)
			fmt.Printf("Storage: %s\n", cfg.ContextStorage)

			switch {
			case authCtx.AccessTokenValid(now, auth.RefreshMargin):
				fmt.Printf("Token:   valid until %s\n", authCtx.ExpiresAt().Local().Format(time.RFC1123))
			case authCtx.RefreshTokenUsable(now):
				fmt.Println("Token:   expired, will refresh on next use")
			default:
				fmt.Println("Token:   expired, log in again")
			}

			if !authCtx.RefreshExpiresAt().IsZero() {
				fmt.Printf("Refresh: usable until %s\n", authCtx.RefreshExpiresAt().Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kauth-dev/kauth/pkg/networking"
)

func newLoginCmd() *cobra.Command {
	var (
		realm     string
		port      int
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a realm through your browser",
		Long: `Start an interactive browser login against the configured identity
provider. The resulting session is stored locally and used by the other
commands until it expires or you log out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			engine, err := newEngine(cfg, engineOverrides{
				realm:    realm,
				port:     port,
				skipOpen: noBrowser,
			})
			if err != nil {
				return err
			}

			// Check the port up front so a busy port fails before the
			// browser opens.
			callbackPort := cfg.CallbackPort
			if port != 0 {
				callbackPort = port
			}
			if err := networking.EnsureAvailable(callbackPort); err != nil {
				return err
			}

			authCtx, err := engine.Login(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Logged in to realm %q (session valid until %s)\n",
				authCtx.Realm, authCtx.ExpiresAt().Local().Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVar(&realm, "realm", "", "Realm to log in to (defaults to the configured realm)")
	cmd.Flags().IntVar(&port, "port", 0, "Local callback port (defaults to the configured port)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the login URL instead of opening a browser")

	return cmd
}

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kauth-dev/kauth/pkg/auth/oidc"
	"github.com/kauth-dev/kauth/pkg/config"
)

func newRealmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realm",
		Short: "Manage the default realm",
	}
	cmd.AddCommand(newRealmCurrentCmd())
	cmd.AddCommand(newRealmUseCmd())
	cmd.AddCommand(newRealmCheckCmd())
	return cmd
}

func newRealmCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the default realm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewLocalStore("").Load(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.Realm == "" {
				fmt.Println("No default realm configured")
				return nil
			}
			fmt.Println(cfg.Realm)
			return nil
		},
	}
}

func newRealmUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use NAME",
		Short: "Set the default realm",
		Long: `Set the default realm for future commands. The current session is kept:
it is replaced only once a login to the new realm succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			realm := args[0]
			err := config.NewLocalStore("").Update(cmd.Context(), func(c *config.Config) {
				c.Realm = realm
			})
			if err != nil {
				return err
			}
			fmt.Printf("Default realm set to %q\n", realm)
			return nil
		},
	}
}

func newRealmCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check NAME",
		Short: "Probe a realm's discovery document",
		Long: `Fetch the OIDC discovery document of the named realm and report its
endpoints. Useful to verify a realm name before switching to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			eps, err := oidc.Discover(cmd.Context(), cfg.Issuer(args[0]))
			if err != nil {
				return err
			}

			fmt.Printf("Issuer:         %s\n", eps.Issuer)
			fmt.Printf("Authorization:  %s\n", eps.AuthURL)
			fmt.Printf("Token:          %s\n", eps.TokenURL)
			if eps.UserInfoURL != "" {
				fmt.Printf("Userinfo:       %s\n", eps.UserInfoURL)
			}
			if eps.SupportsS256 {
				fmt.Println("PKCE:           S256 supported")
			} else {
				fmt.Println("PKCE:           S256 not advertised")
			}
			return nil
		},
	}
}

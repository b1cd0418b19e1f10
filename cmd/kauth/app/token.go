package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token",
		Long: `Print a valid access token for the current session to stdout,
refreshing it first when it is close to expiry. Intended for scripting:

  curl -H "Authorization: Bearer $(kauth token)" https://api.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg, engineOverrides{})
			if err != nil {
				return err
			}
			token, err := engine.GetToken(cmd.Context())
			if err != nil {
				return err
			}
			// The token is the only thing on stdout.
			fmt.Println(token)
			return nil
		},
	}
}

package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newWhoamiCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show who the current session belongs to",
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
			identity, err := engine.Whoami()
			if err != nil {
				return err
			}

			if jsonOutput {
				out, err := json.MarshalIndent(identity, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to serialize identity: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			if identity.Username != "" {
				fmt.Printf("Logged in as %s", identity.Username)
			} else {
				fmt.Printf("Logged in as subject %s", identity.Subject)
			}
			if identity.Email != "" {
				fmt.Printf(" <%s>", identity.Email)
			}
			fmt.Println()
			fmt.Printf("Realm:  %s\n", identity.Realm)
			fmt.Printf("Issuer: %s\n", identity.Issuer)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output identity as JSON")

	return cmd
}

// Package app provides the entry point for the kauth command-line application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kauth-dev/kauth/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "kauth",
	DisableAutoGenTag: true,
	Short:             "kauth is a browser-based login helper for Keycloak-protected services",
	Long: `kauth logs you in to a Keycloak realm through your browser (authorization
code flow with PKCE), keeps the resulting session on this machine, and hands
out fresh access tokens to scripts and other tools, refreshing transparently
when needed.

Typical usage:

  kauth login                # open the browser, complete the login
  curl -H "Authorization: Bearer $(kauth token)" https://api.example.com
  kauth logout`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

// NewRootCmd creates a new root command for the kauth CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRealmCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Silence printing the usage on error
	rootCmd.SilenceUsage = true

	return rootCmd
}

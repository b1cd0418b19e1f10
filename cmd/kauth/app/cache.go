package app

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/kauth-dev/kauth/pkg/tokencache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clean the service-account token cache",
	}
	cmd.AddCommand(newCacheListCmd())
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached service-account tokens",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			entries, err := tokencache.New().List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("Token cache is empty")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Options(
				tablewriter.WithHeader([]string{"Client ID", "Cached", "Expires", "State"}),
				tablewriter.WithRendition(
					tw.Rendition{
						Borders: tw.Border{
							Left:   tw.State(1),
							Top:    tw.State(1),
							Right:  tw.State(1),
							Bottom: tw.State(1),
						},
					},
				),
				tablewriter.WithAlignment(tw.MakeAlign(4, tw.AlignLeft)),
			)

			now := time.Now()
			for _, entry := range entries {
				state := "valid"
				if entry.Expired(now) {
					state = "expired"
				}
				if err := table.Append([]string{
					entry.ClientID,
					entry.CachedAt.Local().Format(time.RFC3339),
					entry.ExpiresAt.Local().Format(time.RFC3339),
					state,
				}); err != nil {
					return fmt.Errorf("failed to append row: %w", err)
				}
			}

			if err := table.Render(); err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached service-account tokens",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := tokencache.New().Clear(); err != nil {
				return err
			}
			fmt.Println("Token cache cleared")
			return nil
		},
	}
}

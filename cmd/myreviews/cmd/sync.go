package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var downloadOnly bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync reviews with the server",
	Long: `Push local changes (including deletes) to the server and pull the
shared review set back. With --download, only fetch and merge the server's
reviews without pushing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !prefs.SyncEnabled() {
			return fmt.Errorf("sync is disabled; enable it with 'myreviews settings --enable-sync'")
		}
		s, err := newSyncer()
		if err != nil {
			return err
		}

		start := time.Now()
		if downloadOnly {
			merged, err := s.Download(cmd.Context())
			if err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			fmt.Printf("Merged %d reviews from the server in %v.\n", merged, time.Since(start).Round(time.Millisecond))
			return nil
		}

		result, err := s.PerformSync(cmd.Context())
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Printf("%s in %v.\n", result.Message, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&downloadOnly, "download", false, "fetch server reviews without pushing local changes")
	rootCmd.AddCommand(syncCmd)
}

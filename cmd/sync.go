package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"liftlog/internal/engine"
)

var syncFull bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync with the server now",
	Long: `Push pending changes and pull remote ones. With --full the local
database is replaced wholesale by the server's snapshot instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		eng, err := a.engine()
		if err != nil {
			return err
		}
		defer eng.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if syncFull {
			if err := eng.FullSync(ctx); err != nil {
				return fmt.Errorf("full sync failed: %w", err)
			}
			fmt.Println("Full sync complete")
			return nil
		}

		if err := eng.SyncNow(ctx); err != nil {
			if errors.Is(err, engine.ErrAnonymous) {
				return fmt.Errorf("not signed in, run 'liftlog login' first")
			}
			return fmt.Errorf("sync failed: %w", err)
		}

		pending, err := a.db.PendingCount()
		if err != nil {
			return err
		}
		fmt.Printf("Sync complete, %d pending changes\n", pending)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "Replace local data with the server snapshot")
}

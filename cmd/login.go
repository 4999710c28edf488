package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var loginUserID int64

var loginCmd = &cobra.Command{
	Use:   "login TOKEN",
	Short: "Sign in and replace local data with the account's",
	Long: `Sign in with an access token. The local database is replaced by a
full snapshot of the account's data; unsynced anonymous changes are
discarded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.db.SetSession(loginUserID, args[0]); err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}

		eng, err := a.engine()
		if err != nil {
			return err
		}
		defer eng.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if err := eng.FullSync(ctx); err != nil {
			// Leave the session out rather than half applied
			a.db.ClearSession()
			return fmt.Errorf("login sync failed: %w", err)
		}

		fmt.Printf("Signed in as user %d\n", loginUserID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and return to the anonymous identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.db.ClearSession(); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}

		fmt.Println("Signed out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().Int64Var(&loginUserID, "user", 0, "Account id the token belongs to")
	loginCmd.MarkFlagRequired("user")
}

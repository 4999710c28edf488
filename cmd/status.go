package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"liftlog/internal/cycle"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show identity, sync and cycle status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		userID, _, err := a.db.Session()
		if err != nil {
			return err
		}
		if userID == 0 {
			fmt.Println("Identity: anonymous (local only)")
		} else {
			identity := fmt.Sprintf("user %d", userID)
			if u, err := a.db.GetUser(userID); err == nil && u != nil {
				identity = u.Username
			}
			fmt.Printf("Identity: %s\n", identity)
		}

		pending, err := a.db.PendingCount()
		if err != nil {
			return err
		}
		fmt.Printf("Pending changes: %d\n", pending)

		programme, err := a.db.ActiveProgramme(userID)
		if err != nil {
			return err
		}
		if programme == nil {
			fmt.Println("Active programme: none")
		} else {
			progress, err := cycle.Calculate(a.db, userID, programme.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Active programme: %s\n", programme.Name)
			fmt.Printf("  Cycle %d: %d of %d templates done\n",
				progress.CycleCount+1, len(progress.Completed), progress.Total)
		}

		entry, err := a.db.ScheduleForDay(userID, int(time.Now().Weekday()))
		if err != nil {
			return err
		}
		if entry == nil {
			fmt.Println("Today: rest day")
		} else {
			name := fmt.Sprintf("template %d", entry.TemplateID)
			if t, err := a.db.GetTemplate(entry.TemplateID); err == nil && t != nil {
				name = t.Name
			}
			fmt.Printf("Today: %s\n", name)
		}

		sessions, err := a.db.ListActiveSessions(userID)
		if err != nil {
			return err
		}
		for _, s := range sessions {
			done := 0
			for _, set := range s.Sets {
				if set.Done {
					done++
				}
			}
			fmt.Printf("In progress: template %d, %d of %d sets done\n",
				s.TemplateID, done, len(s.Sets))
			if s.RestEndsAt != nil {
				if left := time.Until(time.Unix(*s.RestEndsAt, 0)); left > 0 {
					fmt.Printf("  Resting, %ds left\n", int(left.Seconds()))
				}
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"liftlog/internal/cycle"
	"liftlog/internal/database"
)

var startCmd = &cobra.Command{
	Use:   "start [TEMPLATE_ID]",
	Short: "Start a workout session",
	Long: `Start a workout session from a template. Without an argument the
template scheduled for today is used. Working weights are prefilled
from the progressive overload rules.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		userID, err := a.userID()
		if err != nil {
			return err
		}

		var templateID int64
		if len(args) == 1 {
			templateID, err = strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid template id %q", args[0])
			}
		} else {
			entry, err := a.db.ScheduleForDay(userID, int(time.Now().Weekday()))
			if err != nil {
				return fmt.Errorf("failed to read schedule: %w", err)
			}
			if entry == nil {
				return fmt.Errorf("today is a rest day, pass a template id to train anyway")
			}
			templateID = entry.TemplateID
		}

		t, err := a.db.GetTemplate(templateID)
		if err != nil {
			return fmt.Errorf("failed to get template: %w", err)
		}
		if t == nil {
			return fmt.Errorf("template %d not found", templateID)
		}

		suggestions, err := cycle.ResolveTemplate(a.db, userID, t)
		if err != nil {
			return fmt.Errorf("failed to resolve working weights: %w", err)
		}

		now := time.Now().Unix()
		workout, err := a.db.StartWorkout(userID, &templateID, now)
		if err != nil {
			return fmt.Errorf("failed to start workout: %w", err)
		}

		var sets []database.SessionSet
		for i, ex := range t.Exercises {
			for j, s := range suggestions[i] {
				sets = append(sets, database.SessionSet{
					Exercise:  ex.Exercise,
					SetNumber: j + 1,
					Weight:    s.Weight,
					Reps:      s.Reps,
				})
			}
		}

		session := &database.ActiveSession{
			TemplateID: templateID,
			WorkoutID:  workout.ID,
			UserID:     userID,
			StartedAt:  now,
			Sets:       sets,
		}
		if err := a.db.CreateActiveSession(session); err != nil {
			if errors.Is(err, database.ErrSessionExists) {
				return fmt.Errorf("a session for template %d is already in progress, finish or cancel it first", templateID)
			}
			return fmt.Errorf("failed to create session: %w", err)
		}

		fmt.Printf("Started %q\n", t.Name)
		printSessionPlan(session)
		return nil
	},
}

func printSessionPlan(s *database.ActiveSession) {
	exercise := ""
	for _, set := range s.Sets {
		if set.Exercise != exercise {
			exercise = set.Exercise
			fmt.Printf("  %s\n", exercise)
		}
		mark := " "
		if set.Done {
			mark = "x"
		}
		fmt.Printf("    [%s] set %d: %d x %.5g\n", mark, set.SetNumber, set.Reps, set.Weight)
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
}

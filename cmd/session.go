package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"liftlog/internal/database"
)

var sessionTemplateID int64

// currentSession finds the session to operate on. With --template the
// choice is explicit; otherwise there must be exactly one in progress.
func currentSession(a *app, cmd *cobra.Command) (*database.ActiveSession, error) {
	if cmd.Flags().Changed("template") {
		s, err := a.db.GetActiveSession(sessionTemplateID)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, fmt.Errorf("no session in progress for template %d", sessionTemplateID)
		}
		return s, nil
	}

	userID, err := a.userID()
	if err != nil {
		return nil, err
	}
	sessions, err := a.db.ListActiveSessions(userID)
	if err != nil {
		return nil, err
	}
	switch len(sessions) {
	case 0:
		return nil, fmt.Errorf("no session in progress, use 'liftlog start' first")
	case 1:
		return &sessions[0], nil
	default:
		return nil, fmt.Errorf("%d sessions in progress, pick one with --template", len(sessions))
	}
}

var (
	setReps   int
	setWeight float64
)

var setCmd = &cobra.Command{
	Use:   "set EXERCISE SET_NUMBER",
	Short: "Record a set in the current session",
	Long: `Record a set in the current session. Without flags the prefilled
reps and weight are kept; --reps and --weight override them.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setNumber, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid set number %q", args[1])
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := currentSession(a, cmd)
		if err != nil {
			return err
		}

		found := false
		for i := range s.Sets {
			if s.Sets[i].Exercise == args[0] && s.Sets[i].SetNumber == setNumber {
				if cmd.Flags().Changed("reps") {
					s.Sets[i].Reps = setReps
				}
				if cmd.Flags().Changed("weight") {
					s.Sets[i].Weight = setWeight
				}
				s.Sets[i].Done = true
				found = true
				fmt.Printf("Done: %s set %d, %d x %.5g\n",
					s.Sets[i].Exercise, setNumber, s.Sets[i].Reps, s.Sets[i].Weight)
				break
			}
		}
		if !found {
			return fmt.Errorf("no set %d for %q in this session", setNumber, args[0])
		}

		if err := a.db.SaveActiveSession(s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	},
}

var restCmd = &cobra.Command{
	Use:   "rest [SECONDS]",
	Short: "Start the rest timer",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := currentSession(a, cmd)
		if err != nil {
			return err
		}

		seconds := 90
		if t, err := a.db.GetTemplate(s.TemplateID); err == nil && t != nil {
			seconds = t.RestSeconds
		}
		if len(args) == 1 {
			seconds, err = strconv.Atoi(args[0])
			if err != nil || seconds <= 0 {
				return fmt.Errorf("invalid rest duration %q", args[0])
			}
		}

		endsAt := time.Now().Add(time.Duration(seconds) * time.Second).Unix()
		s.RestEndsAt = &endsAt
		if err := a.db.SaveActiveSession(s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		fmt.Printf("Resting until %s (%ds)\n", time.Unix(endsAt, 0).Format("15:04:05"), seconds)
		return nil
	},
}

var finishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Complete the current session",
	Long: `Complete the current session. Sets marked done are written to the
workout history; unfinished sets are discarded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := currentSession(a, cmd)
		if err != nil {
			return err
		}

		now := time.Now().Unix()
		var sets []database.Set
		for _, set := range s.Sets {
			if !set.Done {
				continue
			}
			sets = append(sets, database.Set{
				WorkoutID:   s.WorkoutID,
				Exercise:    set.Exercise,
				SetNumber:   set.SetNumber,
				Weight:      set.Weight,
				Reps:        set.Reps,
				CompletedAt: now,
			})
		}

		if err := a.db.CompleteWorkout(s.WorkoutID, now, sets); err != nil {
			return fmt.Errorf("failed to complete workout: %w", err)
		}
		if err := a.db.DeleteActiveSession(s.TemplateID); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}

		fmt.Printf("Workout completed, %d sets recorded\n", len(sets))
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Abandon the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := currentSession(a, cmd)
		if err != nil {
			return err
		}

		if err := a.db.DeleteWorkout(s.WorkoutID); err != nil {
			return fmt.Errorf("failed to discard workout: %w", err)
		}

		fmt.Println("Session cancelled")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(restCmd)
	rootCmd.AddCommand(finishCmd)
	rootCmd.AddCommand(cancelCmd)

	for _, c := range []*cobra.Command{setCmd, restCmd, finishCmd, cancelCmd} {
		c.Flags().Int64Var(&sessionTemplateID, "template", 0, "Template of the session to operate on")
	}
	setCmd.Flags().IntVar(&setReps, "reps", 0, "Repetitions actually performed")
	setCmd.Flags().Float64Var(&setWeight, "weight", 0, "Weight actually used")
}

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"liftlog/internal/cycle"
	"liftlog/internal/database"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage workout templates",
}

var (
	templateProgrammeID int64
	templateRestSeconds int
	templateExercises   []string
)

// parseExerciseSpec parses "Name:increment:reps@weight,reps@weight".
// Example: "Bench Press:2.5:8@60,8@60,8@60"
func parseExerciseSpec(spec string) (database.TemplateExercise, error) {
	var ex database.TemplateExercise

	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return ex, fmt.Errorf("invalid exercise %q, want NAME:INCREMENT:SETS", spec)
	}

	ex.Exercise = strings.TrimSpace(parts[0])
	if ex.Exercise == "" {
		return ex, fmt.Errorf("invalid exercise %q, empty name", spec)
	}

	increment, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return ex, fmt.Errorf("invalid increment in %q: %w", spec, err)
	}
	ex.WeightIncrement = increment

	for _, set := range strings.Split(parts[2], ",") {
		repsWeight := strings.SplitN(set, "@", 2)
		if len(repsWeight) != 2 {
			return ex, fmt.Errorf("invalid set %q, want REPS@WEIGHT", set)
		}
		reps, err := strconv.Atoi(strings.TrimSpace(repsWeight[0]))
		if err != nil {
			return ex, fmt.Errorf("invalid reps in %q: %w", set, err)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(repsWeight[1]), 64)
		if err != nil {
			return ex, fmt.Errorf("invalid weight in %q: %w", set, err)
		}
		ex.TargetSets = append(ex.TargetSets, database.TargetSet{Reps: reps, Weight: weight})
	}
	if len(ex.TargetSets) == 0 {
		return ex, fmt.Errorf("invalid exercise %q, no sets", spec)
	}

	return ex, nil
}

var templateCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a workout template",
	Long: `Create a workout template.

Each --exercise takes NAME:INCREMENT:SETS, where SETS is a comma
separated list of REPS@WEIGHT. For example:

  liftlog template create "Push Day" --programme 1 \
    --exercise "Bench Press:2.5:8@60,8@60,8@60" \
    --exercise "Overhead Press:2.5:10@35,10@35"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(templateExercises) == 0 {
			return fmt.Errorf("at least one --exercise is required")
		}

		exercises := make([]database.TemplateExercise, 0, len(templateExercises))
		for _, spec := range templateExercises {
			ex, err := parseExerciseSpec(spec)
			if err != nil {
				return err
			}
			exercises = append(exercises, ex)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		userID, err := a.userID()
		if err != nil {
			return err
		}

		t := &database.Template{
			UserID:      userID,
			Name:        args[0],
			RestSeconds: templateRestSeconds,
			Exercises:   exercises,
		}
		if cmd.Flags().Changed("programme") {
			t.ProgrammeID = &templateProgrammeID
		}

		if err := a.db.CreateTemplate(t); err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}

		fmt.Printf("Created template %q (id %d)\n", t.Name, t.ID)
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	Args:  cobra.NoArgs,
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

		templates, err := a.db.ListTemplates(userID)
		if err != nil {
			return fmt.Errorf("failed to list templates: %w", err)
		}
		if len(templates) == 0 {
			fmt.Println("No templates yet.")
			return nil
		}

		for _, t := range templates {
			programme := "-"
			if t.ProgrammeID != nil {
				programme = strconv.FormatInt(*t.ProgrammeID, 10)
			}
			fmt.Printf("%d  %-24s programme=%s exercises=%d rest=%ds\n",
				t.ID, t.Name, programme, len(t.Exercises), t.RestSeconds)
		}
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a template with suggested working weights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid template id %q", args[0])
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		userID, err := a.userID()
		if err != nil {
			return err
		}

		t, err := a.db.GetTemplate(id)
		if err != nil {
			return fmt.Errorf("failed to get template: %w", err)
		}
		if t == nil {
			return fmt.Errorf("template %d not found", id)
		}

		suggestions, err := cycle.ResolveTemplate(a.db, userID, t)
		if err != nil {
			return fmt.Errorf("failed to resolve suggestions: %w", err)
		}

		fmt.Printf("%s (rest %ds)\n", t.Name, t.RestSeconds)
		for i, ex := range t.Exercises {
			fmt.Printf("  %s (+%.2g on cycle)\n", ex.Exercise, ex.WeightIncrement)
			for j := range suggestions[i] {
				fmt.Printf("    set %d: %d x %.5g\n", j+1, suggestions[i][j].Reps, suggestions[i][j].Weight)
			}
		}
		return nil
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid template id %q", args[0])
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.db.DeleteTemplate(id); err != nil {
			return fmt.Errorf("failed to delete template: %w", err)
		}

		fmt.Printf("Deleted template %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateCreateCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateDeleteCmd)

	templateCreateCmd.Flags().Int64Var(&templateProgrammeID, "programme", 0, "Programme this template rotates in")
	templateCreateCmd.Flags().IntVar(&templateRestSeconds, "rest", 90, "Rest timer between sets, in seconds")
	templateCreateCmd.Flags().StringArrayVar(&templateExercises, "exercise", nil, "Exercise as NAME:INCREMENT:SETS (repeatable)")
}

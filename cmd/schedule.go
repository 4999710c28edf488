package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var weekdayNames = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// parseWeekday accepts a day name ("monday", "mon") or a number 0-6
// with 0 as Sunday
func parseWeekday(arg string) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday %d out of range 0-6", n)
		}
		return n, nil
	}

	lower := strings.ToLower(arg)
	for i, name := range weekdayNames {
		if name == lower || (len(lower) >= 3 && strings.HasPrefix(name, lower)) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", arg)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage the weekly schedule",
}

var scheduleSetCmd = &cobra.Command{
	Use:   "set WEEKDAY TEMPLATE_ID",
	Short: "Assign a template to a weekday",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		weekday, err := parseWeekday(args[0])
		if err != nil {
			return err
		}
		templateID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid template id %q", args[1])
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

		entry, err := a.db.SetSchedule(userID, weekday, templateID)
		if err != nil {
			return fmt.Errorf("failed to set schedule: %w", err)
		}

		fmt.Printf("Scheduled template %d on %s\n", entry.TemplateID, weekdayNames[weekday])
		return nil
	},
}

var scheduleClearCmd = &cobra.Command{
	Use:   "clear WEEKDAY",
	Short: "Make a weekday a rest day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		weekday, err := parseWeekday(args[0])
		if err != nil {
			return err
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

		if err := a.db.ClearScheduleDay(userID, weekday); err != nil {
			return fmt.Errorf("failed to clear schedule: %w", err)
		}

		fmt.Printf("%s is now a rest day\n", weekdayNames[weekday])
		return nil
	},
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the weekly schedule",
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

		entries, err := a.db.Schedule(userID)
		if err != nil {
			return fmt.Errorf("failed to read schedule: %w", err)
		}

		byDay := make(map[int]int64, len(entries))
		for _, e := range entries {
			byDay[e.Weekday] = e.TemplateID
		}

		today := int(time.Now().Weekday())
		for day := 0; day < 7; day++ {
			marker := " "
			if day == today {
				marker = ">"
			}
			if templateID, ok := byDay[day]; ok {
				name := fmt.Sprintf("template %d", templateID)
				if t, err := a.db.GetTemplate(templateID); err == nil && t != nil {
					name = t.Name
				}
				fmt.Printf("%s %-10s %s\n", marker, weekdayNames[day], name)
			} else {
				fmt.Printf("%s %-10s rest\n", marker, weekdayNames[day])
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleSetCmd)
	scheduleCmd.AddCommand(scheduleClearCmd)
	scheduleCmd.AddCommand(scheduleShowCmd)
}

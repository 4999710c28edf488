package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var programmeCmd = &cobra.Command{
	Use:     "programme",
	Aliases: []string{"program"},
	Short:   "Manage training programmes",
}

var programmeCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a new programme",
	Args:  cobra.ExactArgs(1),
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

		p, err := a.db.CreateProgramme(userID, args[0])
		if err != nil {
			return fmt.Errorf("failed to create programme: %w", err)
		}

		fmt.Printf("Created programme %q (id %d)\n", p.Name, p.ID)
		return nil
	},
}

var programmeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List programmes",
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

		programmes, err := a.db.ListProgrammes(userID)
		if err != nil {
			return fmt.Errorf("failed to list programmes: %w", err)
		}
		if len(programmes) == 0 {
			fmt.Println("No programmes yet.")
			return nil
		}

		for _, p := range programmes {
			marker := " "
			if p.Active {
				marker = "*"
			}
			fmt.Printf("%s %d  %s\n", marker, p.ID, p.Name)
		}
		return nil
	},
}

var programmeActivateCmd = &cobra.Command{
	Use:   "activate ID",
	Short: "Make a programme the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid programme id %q", args[0])
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

		if err := a.db.ActivateProgramme(userID, id); err != nil {
			return fmt.Errorf("failed to activate programme: %w", err)
		}

		fmt.Printf("Programme %d is now active\n", id)
		return nil
	},
}

var programmeDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a programme and its templates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid programme id %q", args[0])
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.db.DeleteProgramme(id); err != nil {
			return fmt.Errorf("failed to delete programme: %w", err)
		}

		fmt.Printf("Deleted programme %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(programmeCmd)
	programmeCmd.AddCommand(programmeCreateCmd)
	programmeCmd.AddCommand(programmeListCmd)
	programmeCmd.AddCommand(programmeActivateCmd)
	programmeCmd.AddCommand(programmeDeleteCmd)
}

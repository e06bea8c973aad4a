package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Rerun the command now",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := postJSON("/trigger", nil); err != nil {
			return err
		}

		fmt.Println("triggered")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}

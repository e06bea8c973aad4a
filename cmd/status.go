package cmd

import (
	"fmt"
	"rewatch/internal/model"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the running rewatch is doing",
	RunE: func(cmd *cobra.Command, args []string) error {
		var snap model.RunSnapshot
		if err := getJSON("/status", &snap); err != nil {
			return err
		}

		fmt.Printf("command:  %s\n", strings.Join(snap.Command, " "))
		fmt.Printf("patterns: %s\n", strings.Join(snap.Patterns, " "))
		fmt.Printf("uptime:   %s\n", time.Since(snap.StartedAt).Round(time.Second))

		if snap.Running {
			fmt.Printf("state:    running #%d (pid %d %s)\n", snap.Seq, snap.Pid, snap.Executable)
		} else {
			fmt.Println("state:    idle")
		}

		fmt.Printf("runs:     %d (failed %d, canceled %d, not started %d)\n",
			snap.Runs, snap.Failed, snap.Canceled, snap.SpawnErrors)

		if h := snap.History; h != nil {
			fmt.Printf("history:  %d runs (success %d, failed %d, canceled %d)\n",
				h.Total, h.Success, h.Failed, h.Canceled)
		}

		if snap.LastChanged != nil {
			fmt.Printf("last:     %s exit=%d at %s\n",
				snap.LastStatus, snap.LastExit, snap.LastChanged.Format("2006-01-02 15:04:05"))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

package cmd

import (
	"fmt"
	"rewatch/internal/model"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyN      int
	historyFailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		var runs []model.Run
		path := fmt.Sprintf("/history?n=%d", historyN)
		if historyFailed {
			path += "&failed=true"
		}

		if err := getJSON(path, &runs); err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("no runs yet")
			return nil
		}

		for _, r := range runs {
			mark := "✓"
			switch r.Status {
			case model.RunCanceled:
				mark = "-"
			case model.RunFailed, model.RunSpawnError:
				mark = "✗"
			}

			took := "-"
			if !r.FinishedAt.IsZero() {
				took = r.FinishedAt.Sub(r.StartedAt).Round(10 * time.Millisecond).String()
			}

			fmt.Printf("%s #%-4d [%s] %-11s exit=%-3d %-8s %s\n",
				mark,
				r.Seq,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				r.ExitCode,
				took,
				r.Paths,
			)
		}

		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of runs to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only show runs that failed or could not start")
	rootCmd.AddCommand(historyCmd)
}

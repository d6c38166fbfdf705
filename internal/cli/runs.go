package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent batch runs",
		Args:  cobra.NoArgs,
		Run:   runRuns,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runRuns(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	j, err := openJournal()
	if err != nil {
		exitErr("open journal", err)
	}
	defer j.Close()

	runs, err := j.Runs(cmd.Context(), limit)
	if err != nil {
		exitErr("runs", err)
	}

	if formatFlag == "text" {
		for _, r := range runs {
			mode := ""
			if r.DryRun {
				mode = " (dry run)"
			}
			fmt.Printf("%s  %s  %d written, %d skipped, %d failed%s\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Written, r.Skipped, r.Failed, mode)
		}
		return
	}

	b, _ := json.MarshalIndent(runs, "", "  ")
	fmt.Println(string(b))
}

package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rcliao/gallerycaptions/internal/journal"
	"github.com/rcliao/gallerycaptions/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "Show journal entries",
		Long:  "Show recorded caption decisions, newest first. Pass a path (relative to the albums directory) to see one file.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runHistory,
	}

	cmd.Flags().String("run", "", "Filter by run ID")
	cmd.Flags().StringP("status", "s", "", "Filter by status (written, unchanged, missing, empty, excluded, failed, dry-run)")
	cmd.Flags().IntP("limit", "l", 100, "Max results")
	cmd.Flags().Bool("last", false, "Only the caption most recently written to path")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	runID, _ := cmd.Flags().GetString("run")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	last, _ := cmd.Flags().GetBool("last")

	if status != "" && !model.ValidStatuses[model.Status(status)] {
		exitErr("history", fmt.Errorf("unknown status %q", status))
	}

	p := journal.HistoryParams{
		RunID:  runID,
		Status: model.Status(status),
		Limit:  limit,
	}
	if len(args) == 1 {
		p.Path = filepath.Clean(args[0])
	}

	j, err := openJournal()
	if err != nil {
		exitErr("open journal", err)
	}
	defer j.Close()

	var entries []model.Entry
	if last {
		if p.Path == "" {
			exitErr("history", fmt.Errorf("--last needs a path"))
		}
		e, err := j.LastWritten(cmd.Context(), p.Path)
		if err != nil {
			exitErr("history", err)
		}
		if e != nil {
			entries = append(entries, *e)
		}
	} else {
		entries, err = j.History(cmd.Context(), p)
		if err != nil {
			exitErr("history", err)
		}
	}

	if formatFlag == "text" {
		for _, e := range entries {
			fmt.Printf("%s  %-9s  %s: %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Status, e.Path, e.Caption)
		}
		return
	}

	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}

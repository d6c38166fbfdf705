package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/gallerycaptions/internal/journal"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show journal statistics",
		Args:  cobra.NoArgs,
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	j, err := openJournal()
	if err != nil {
		exitErr("open journal", err)
	}
	defer j.Close()

	stats, err := j.Stats(cmd.Context(), getDBPath())
	if err != nil {
		exitErr("stats", err)
	}

	if formatFlag == "text" {
		printStats(os.Stdout, stats)
		return
	}

	b, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(b))
}

func printStats(w io.Writer, st *journal.Stats) {
	fmt.Fprintf(w, "journal:  %s (%d bytes)\n", st.DBPath, st.DBSizeBytes)
	fmt.Fprintf(w, "runs:     %d\n", st.Runs)
	fmt.Fprintf(w, "entries:  %d\n", st.Entries)
	fmt.Fprintf(w, "files:    %d\n", st.Files)
	for _, sc := range st.ByStatus {
		fmt.Fprintf(w, "  %-9s %d\n", sc.Status, sc.Count)
	}
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/progress"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Print per-week completion and the progress ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, courses, err := setup(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		tracker := progress.New(st.KV())
		if raw, _ := cmd.Flags().GetBool("json"); raw {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tracker.Get(cmd.Context()))
		}
		verbose, _ := cmd.Flags().GetBool("ledger")
		printProgress(cmd.Context(), cmd.OutOrStdout(), tracker, courses, verbose)
		return nil
	},
}

func init() {
	progressCmd.Flags().Bool("json", false, "Dump the raw ledger as JSON")
	progressCmd.Flags().BoolP("ledger", "l", false, "Also list every ledger entry")
}

// printProgress writes one completion line per week of each course, then
// optionally the ledger entries in key order.
func printProgress(ctx context.Context, w io.Writer, t *progress.Tracker, courses []*course.Course, ledger bool) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	for _, c := range courses {
		bold.Fprintf(w, "%s (%s)\n", c.Title, c.ID)
		for _, wk := range c.Weeks {
			pct := t.WeekProgress(ctx, c.ID, wk.ID, wk.TopicCount())
			line := fmt.Sprintf("  Week %d  %-32s %s %3d%%\n", wk.ID, truncate(wk.Title, 32), bar(pct, 20), pct)
			switch {
			case pct >= 100:
				green.Fprint(w, line)
			case pct > 0:
				yellow.Fprint(w, line)
			default:
				fmt.Fprint(w, line)
			}
		}
		fmt.Fprintln(w)
	}

	if !ledger {
		return
	}
	l := t.Get(ctx)
	if len(l) == 0 {
		cyan.Fprintln(w, "Ledger is empty.")
		return
	}
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	cyan.Fprintln(w, "Ledger")
	for _, k := range keys {
		fmt.Fprintf(w, "  %-28s %s\n", k, describeRecord(l[k]))
	}
}

func describeRecord(r progress.Record) string {
	when := time.UnixMilli(r.TS).Local().Format("2006-01-02 15:04")
	if r.QuizScore != nil {
		return fmt.Sprintf("quiz %d/%d (%d%%)  %s", r.Score, r.Total, r.Pct, when)
	}
	if r.Done {
		return "done  " + when
	}
	return when
}

// bar draws a fixed-width block bar for pct (clamped to 0..100).
func bar(pct, width int) string {
	pct = max(0, min(pct, 100))
	filled := pct * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

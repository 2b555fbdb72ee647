package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sitescope/sitescope/internal/core"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show audit runs",
	Long: `List persisted audit runs, or show the module breakdown of a single
run. Without an argument the most recent runs are listed; "latest"
resolves to the most recent run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var statusJSON bool

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openRunStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		var rec *core.RunRecord
		if args[0] == "latest" {
			rec, err = store.LatestRun(cmd.Context())
		} else {
			rec, err = store.LoadRun(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		if statusJSON {
			return outputJSON(rec)
		}
		printRunDetail(rec)
		return nil
	}

	runs, err := store.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	if statusJSON {
		return outputJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No audit runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSUBJECT\tSTATUS\tSCORE\tSTARTED\tDURATION")
	for _, r := range runs {
		score := "-"
		if r.Status == core.RunStatusCompleted {
			score = fmt.Sprintf("%.1f%%", r.Overall)
		}
		duration := "-"
		if r.CompletedAt != nil {
			duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(r.ID), r.Subject, statusGlyph(r.Status), score,
			r.StartedAt.Format("2006-01-02 15:04"), duration)
	}
	return w.Flush()
}

func printRunDetail(rec *core.RunRecord) {
	fmt.Printf("Run:     %s\n", rec.ID)
	fmt.Printf("Subject: %s\n", rec.Subject)
	fmt.Printf("Website: %s\n", rec.Website)
	fmt.Printf("Status:  %s\n", statusGlyph(rec.Status))
	if rec.Error != "" {
		fmt.Printf("Error:   %s\n", rec.Error)
	}
	if rec.Report == nil {
		return
	}

	r := rec.Report
	fmt.Printf("Overall: %s (%s)\n",
		paint(scoreStyle(r.OverallPercentage()), fmt.Sprintf("%.1f%%", r.OverallPercentage())),
		string(r.OverallOutcome()))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODULE\tSCORE\tPCT\tREVISIONS\tNOTES")
	for _, m := range r.Modules {
		if m.MaxPoints() == 0 {
			continue
		}
		notes := ""
		if m.Degraded {
			notes = "heuristic"
		}
		fmt.Fprintf(w, "%s\t%d/%d\t%.1f%%\t%d\t%s\n",
			m.Title, m.ActualPoints(), m.MaxPoints(), m.Percentage(),
			m.RevisionCount, notes)
	}
	w.Flush()

	if rec.ArtifactPath != "" {
		fmt.Printf("\nReport: %s\n", rec.ArtifactPath)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

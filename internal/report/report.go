// Package report renders the fleet summary for operators and exports it as
// JSON for unattended batch use.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"zapfleet/internal/zapfleet"
)

// Render writes the human-readable fleet summary: every skipped or failed
// device with its specific reason, a per-node success ratio, and the
// fleet-wide run-mode line.
func Render(w io.Writer, report zapfleet.FleetReport) {
	fmt.Fprintf(w, "\nFleet report %s (%s, %s)\n", report.RunID, report.Mode, report.Execution)
	fmt.Fprintf(w, "Started %s, finished %s\n\n",
		report.StartedAt.Format("2006-01-02 15:04:05"),
		report.FinishedAt.Format("2006-01-02 15:04:05"))

	totalAttempted := 0
	totalSucceeded := 0
	for _, summary := range report.Summaries {
		fmt.Fprintf(w, "Node %s:\n", summary.Node.Name)
		if summary.Err != "" {
			fmt.Fprintf(w, "  UNREACHABLE: %s\n", summary.Err)
			continue
		}
		if len(summary.Outcomes) == 0 {
			fmt.Fprintf(w, "  no candidate devices\n")
		}
		for _, outcome := range summary.Outcomes {
			switch outcome.Status {
			case zapfleet.ZapSkipped:
				fmt.Fprintf(w, "  /dev/%-12s skipped: %s\n", outcome.Device, outcome.Detail)
			case zapfleet.ZapDryRun:
				fmt.Fprintf(w, "  /dev/%-12s dry-run: would run: %s\n", outcome.Device, outcome.Detail)
			case zapfleet.ZapSucceeded:
				fmt.Fprintf(w, "  /dev/%-12s zapped\n", outcome.Device)
			case zapfleet.ZapFailed:
				fmt.Fprintf(w, "  /dev/%-12s FAILED: %s\n", outcome.Device, outcome.Detail)
			}
			if outcome.Advisory != "" {
				fmt.Fprintf(w, "  /dev/%-12s warning: %s\n", outcome.Device, outcome.Advisory)
			}
		}
		fmt.Fprintf(w, "  %d/%d succeeded\n", summary.Succeeded, summary.Attempted)
		totalAttempted += summary.Attempted
		totalSucceeded += summary.Succeeded
	}

	fmt.Fprintf(w, "\nFleet total: %d/%d succeeded across %d node(s), mode %s\n",
		totalSucceeded, totalAttempted, len(report.Summaries), report.Mode)
}

// WriteJSON exports the report to a file.
func WriteJSON(path string, report zapfleet.FleetReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

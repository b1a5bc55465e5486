package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/revcore/revcore/internal/record"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the dataset's lifecycle progress",
	Long: `Show how many records sit at each lifecycle status and which
operations can run next.

Examples:
  revcore status
  revcore status --human`,
	RunE: runStatus,
}

// StatusResult is the response for the status command.
type StatusResult struct {
	Total          int            `json:"total"`
	Counts         map[string]int `json:"counts"`
	NextOperations []string       `json:"next_operations"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	ds := mustOpenDataset(repoRoot)

	records, err := ds.Records()
	if err != nil {
		exitWithError(ExitDataError, "reading records: %v", err)
	}

	counts := make(map[string]int)
	var states []record.State
	seen := make(map[record.State]bool)
	for i := range records {
		status := records[i].Status
		counts[status.String()]++
		if !seen[status] {
			seen[status] = true
			states = append(states, status)
		}
	}

	result := StatusResult{
		Total:          len(records),
		Counts:         counts,
		NextOperations: record.ValidNextOperations(states...),
	}

	if humanOutput {
		fmt.Printf("%d records\n\n", result.Total)
		for _, state := range record.AllStates() {
			if n := counts[state.String()]; n > 0 {
				fmt.Printf("  %-32s %d\n", state, n)
			}
		}
		if len(result.NextOperations) > 0 {
			fmt.Printf("\nNext operations: %v\n", result.NextOperations)
		}
	} else {
		outputJSON(result)
	}
	return nil
}

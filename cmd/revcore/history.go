package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/revcore/revcore/internal/record"
)

var (
	historyAt      string
	historyChanged string
)

func init() {
	historyCmd.Flags().StringVar(&historyAt, "at", "", "List records as committed at this git reference")
	historyCmd.Flags().StringVar(&historyChanged, "changed", "", "List records changed in this commit relative to its parent")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [record-id]",
	Short: "Query the dataset's git history",
	Long: `Query the dataset's git history: the record set as of a commit,
the records a commit changed, or one record's status trail.

Examples:
  revcore history --at HEAD~3        # Records as committed three commits ago
  revcore history --changed HEAD     # What the last commit changed
  revcore history Smith2020          # Status trail of one record`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

// HistoryStep is one entry in a record's status trail.
type HistoryStep struct {
	Commit  string `json:"commit"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	ds := mustOpenDataset(repoRoot)

	switch {
	case historyAt != "":
		records, err := ds.RecordsAtCommit(historyAt)
		if err != nil {
			exitWithError(ExitDataError, "reading records at %s: %v", historyAt, err)
		}
		return outputRecordList(records)

	case historyChanged != "":
		records, err := ds.ChangedRecords(historyChanged)
		if err != nil {
			exitWithError(ExitDataError, "diffing records at %s: %v", historyChanged, err)
		}
		return outputRecordList(records)

	case len(args) == 1:
		trail, err := ds.History(args[0])
		if err != nil {
			exitWithError(ExitDataError, "reading history of %s: %v", args[0], err)
		}
		if len(trail) == 0 {
			exitWithError(ExitNotFound, "record %s has no committed history", args[0])
		}
		steps := make([]HistoryStep, len(trail))
		for i, step := range trail {
			steps[i] = HistoryStep{
				Commit:  step.CommitSHA,
				Message: step.CommitMsg,
				Status:  step.Status.String(),
			}
		}
		if humanOutput {
			for _, step := range steps {
				fmt.Printf("%s  %-32s %s\n", step.Commit, step.Status, step.Message)
			}
			return nil
		}
		return outputJSON(steps)
	}

	return fmt.Errorf("need --at, --changed, or a record ID")
}

func outputRecordList(records []record.Record) error {
	if humanOutput {
		for i := range records {
			fmt.Println(formatRecordLine(records[i].ID, records[i].Title, records[i].Status.String()))
		}
		return nil
	}
	if records == nil {
		records = []record.Record{}
	}
	return outputJSON(records)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/revcore/revcore/internal/config"
	"github.com/revcore/revcore/internal/dedupe"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the repository for consistency problems",
	Long: `Check the repository for consistency problems: settings values,
record statuses, missing origins, and curated records whose outlet is
claimed by more than one curation source.

Exits non-zero when problems are found.

Examples:
  revcore validate
  revcore validate --human`,
	RunE: runValidate,
}

// ValidationResult is the response for the validate command.
type ValidationResult struct {
	OK       bool     `json:"ok"`
	Records  int      `json:"records"`
	Problems []string `json:"problems,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	ds := mustOpenDataset(repoRoot)

	var problems []string

	if _, err := config.Load(repoRoot); err != nil {
		problems = append(problems, fmt.Sprintf("settings: %v", err))
	}

	records, err := ds.Records()
	if err != nil {
		exitWithError(ExitDataError, "reading records: %v", err)
	}

	for i := range records {
		rec := &records[i]
		if !rec.Status.Valid() {
			problems = append(problems, fmt.Sprintf("record %s: invalid status", rec.ID))
		}
		if len(rec.Origins) == 0 {
			problems = append(problems, fmt.Sprintf("record %s: no origin", rec.ID))
		}
	}

	if err := dedupe.ValidateOutlets(recordPtrs(records)); err != nil {
		problems = append(problems, err.Error())
	}

	result := ValidationResult{
		OK:       len(problems) == 0,
		Records:  len(records),
		Problems: problems,
	}

	if humanOutput {
		if result.OK {
			fmt.Printf("%d records, no problems found\n", result.Records)
		} else {
			fmt.Printf("%d records, %d problems:\n", result.Records, len(problems))
			for _, p := range problems {
				fmt.Printf("  - %s\n", p)
			}
		}
	} else {
		outputJSON(result)
	}

	if !result.OK {
		os.Exit(ExitDataError)
	}
	return nil
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/revcore/revcore/internal/dataset"
	"github.com/revcore/revcore/internal/dedupe"
	"github.com/revcore/revcore/internal/fingerprint"
	"github.com/revcore/revcore/internal/record"
)

var (
	dedupeShared bool
	dedupeMerge  bool
)

func init() {
	dedupeCmd.Flags().BoolVar(&dedupeShared, "shared", false, "Consult the shared per-user database")
	dedupeCmd.Flags().BoolVar(&dedupeMerge, "merge", false, "Merge the records in the dataset when the decision is yes")
	rootCmd.AddCommand(dedupeCmd)
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <id-a> <id-b>",
	Short: "Decide whether two dataset records are duplicates",
	Long: `Decide whether two dataset records are duplicates using their
fingerprints and, when those don't settle it, the indexed provenance of
both records.

The decision is "yes", "no", or "unknown"; unknown pairs need manual
adjudication.

Examples:
  revcore dedupe Smith2020 Smith2020a
  revcore dedupe Smith2020 Smith2020a --merge`,
	Args: cobra.ExactArgs(2),
	RunE: runDedupe,
}

// DedupeResult is the response for the dedupe command.
type DedupeResult struct {
	IDa      string `json:"id_a"`
	IDb      string `json:"id_b"`
	Decision string `json:"decision"`
	Merged   bool   `json:"merged,omitempty"`
}

func runDedupe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	repoRoot := mustFindRepository()
	ds := mustOpenDataset(repoRoot)

	records, err := ds.Records()
	if err != nil {
		exitWithError(ExitDataError, "reading records: %v", err)
	}

	idxA, foundA := dataset.FindByID(records, args[0])
	idxB, foundB := dataset.FindByID(records, args[1])
	if !foundA || !foundB {
		exitWithError(ExitNotFound, "both records must exist in the dataset")
	}
	recA, recB := &records[idxA], &records[idxB]

	store, ri, _ := mustOpenIndex(ctx, indexDBPath(repoRoot, dedupeShared))
	defer store.Close()

	engine := dedupe.NewEngine(ri)
	decision := engine.Classify(ctx, recordFingerprints(recA), recordFingerprints(recB))

	result := DedupeResult{IDa: recA.ID, IDb: recB.ID, Decision: string(decision)}

	if dedupeMerge && decision == dedupe.DecisionYes {
		merged := dataset.Merge(recA, recB)
		records[idxA] = merged
		records = append(records[:idxB], records[idxB+1:]...)
		if err := ds.Save(records); err != nil {
			exitWithError(ExitDataError, "saving merged dataset: %v", err)
		}
		result.Merged = true
	}

	if humanOutput {
		fmt.Printf("%s vs %s: %s\n", result.IDa, result.IDb, result.Decision)
		if result.Merged {
			fmt.Printf("Merged %s into %s\n", result.IDb, result.IDa)
		}
	} else {
		outputJSON(result)
	}
	return nil
}

// recordFingerprints returns the fingerprints a record carries plus its
// current one.
func recordFingerprints(rec *record.Record) []string {
	fps := append([]string(nil), rec.Fingerprints...)
	fp, err := fingerprint.Compute(rec)
	if err != nil && !errors.Is(err, fingerprint.ErrNotEnoughData) {
		return fps
	}
	if err == nil && !containsFingerprint(fps, fp) {
		fps = append(fps, fp)
	}
	return fps
}

func containsFingerprint(fps []string, fp string) bool {
	for _, existing := range fps {
		if existing == fp {
			return true
		}
	}
	return false
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/revcore/revcore/internal/batch"
	"github.com/revcore/revcore/internal/dedupe"
	"github.com/revcore/revcore/internal/docstore"
	"github.com/revcore/revcore/internal/record"
)

var (
	indexShared  bool
	indexRebuild bool
)

func init() {
	indexCmd.Flags().BoolVar(&indexShared, "shared", false, "Index into the shared per-user database")
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "Drop the index collections before indexing")
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the dataset's processed records",
	Long: `Index the dataset's records into the record and TOC indexes.

Only records at md_processed or beyond are indexed; earlier records are
skipped and reported. Re-indexing amends existing entries instead of
duplicating them, so the command is safe to re-run.

Examples:
  revcore index              # Index into the repository cache
  revcore index --shared     # Index into the shared per-user database
  revcore index --rebuild    # Start from empty collections`,
	RunE: runIndex,
}

// IndexResult is the response for the index command.
type IndexResult struct {
	Indexed    int   `json:"indexed"`
	Skipped    int   `json:"skipped"`
	Collisions int64 `json:"collisions,omitempty"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	repoRoot := mustFindRepository()
	settings := mustLoadSettings(repoRoot)
	ds := mustOpenDataset(repoRoot)

	records, err := ds.Records()
	if err != nil {
		exitWithError(ExitDataError, "reading records: %v", err)
	}

	// A curated repository stamps its records before they enter the index,
	// so retrievals elsewhere can see where the metadata was maintained.
	if settings.Project.CurationURL != "" {
		for i := range records {
			markCurated(&records[i], settings.Project.CurationURL)
		}
		if err := dedupe.ValidateOutlets(recordPtrs(records)); err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
	}

	store, ri, _ := mustOpenIndex(ctx, indexDBPath(repoRoot, indexShared))
	defer store.Close()

	if indexRebuild {
		for _, coll := range []string{docstore.RecordIndexCollection, docstore.TOCIndexCollection} {
			if err := store.DropCollection(ctx, coll); err != nil {
				exitWithError(ExitError, "dropping collection %s: %v", coll, err)
			}
			if err := store.CreateCollection(ctx, coll); err != nil {
				exitWithError(ExitError, "creating collection %s: %v", coll, err)
			}
		}
	}

	var indexable []*record.Record
	skipped := 0
	for i := range records {
		if records[i].Status.Precedes(record.StateMDProcessed) {
			skipped++
			continue
		}
		indexable = append(indexable, &records[i])
	}

	pool := batch.New(settings.Index.Workers, settings.Index.StoreRateLimit)
	err = batch.Run(ctx, pool, indexable, func(ctx context.Context, rec *record.Record) error {
		return ri.Index(ctx, rec, repoRoot)
	})
	if err != nil {
		exitWithError(ExitDataError, "indexing: %v", err)
	}

	result := IndexResult{
		Indexed:    len(indexable),
		Skipped:    skipped,
		Collisions: ri.CollisionCount(),
	}
	if humanOutput {
		fmt.Printf("Indexed %d records (%d skipped, not yet processed)\n", result.Indexed, result.Skipped)
		if result.Collisions > 0 {
			fmt.Printf("Resolved %d hash collisions\n", result.Collisions)
		}
	} else {
		outputJSON(result)
	}
	return nil
}

// markCurated stamps a record's masterdata as curated by the given source.
func markCurated(rec *record.Record, curationURL string) {
	if rec.MasterdataProvenance == nil {
		rec.MasterdataProvenance = make(map[string]record.ProvenanceEntry)
	}
	if _, ok := rec.MasterdataProvenance[record.CuratedKey]; !ok {
		rec.MasterdataProvenance[record.CuratedKey] = record.ProvenanceEntry{Source: curationURL}
	}
}

func recordPtrs(records []record.Record) []*record.Record {
	ptrs := make([]*record.Record, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	return ptrs
}

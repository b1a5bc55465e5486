package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/revcore/revcore/internal/dataset"
	"github.com/revcore/revcore/internal/index"
	"github.com/revcore/revcore/internal/record"
)

var (
	retrieveShared bool
	retrieveID     string
	retrieveQuery  record.Record
)

func init() {
	retrieveCmd.Flags().BoolVar(&retrieveShared, "shared", false, "Query the shared per-user database")
	retrieveCmd.Flags().StringVar(&retrieveID, "id", "", "Look up the dataset record with this ID")
	retrieveCmd.Flags().StringVar(&retrieveQuery.Author, "author", "", "Query author")
	retrieveCmd.Flags().StringVar(&retrieveQuery.Title, "title", "", "Query title")
	retrieveCmd.Flags().StringVar(&retrieveQuery.Year, "year", "", "Query year")
	retrieveCmd.Flags().StringVar(&retrieveQuery.Journal, "journal", "", "Query journal")
	retrieveCmd.Flags().StringVar(&retrieveQuery.Booktitle, "booktitle", "", "Query booktitle")
	retrieveCmd.Flags().StringVar(&retrieveQuery.Volume, "volume", "", "Query volume")
	retrieveCmd.Flags().StringVar(&retrieveQuery.Number, "number", "", "Query issue number")
	retrieveCmd.Flags().StringVar(&retrieveQuery.DOI, "doi", "", "Query DOI")
	retrieveCmd.Flags().StringVar(&retrieveQuery.EntryType, "type", "article", "Query entry type")
	rootCmd.AddCommand(retrieveCmd)
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Retrieve the indexed version of a record",
	Long: `Retrieve the indexed version of a record: exact fingerprint lookup
first, then global identifiers (DOI, DBLP key, URL), then fuzzy matching
against records of the same venue.

The returned record is a sanitized copy ready to merge into the dataset,
with its status set to md_prepared.

Examples:
  revcore retrieve --id Smith2020
  revcore retrieve --author "Smith, John" --title "On Widgets" --year 2020 --journal "Widget Review"
  revcore retrieve --doi 10.1234/widgets.2020.001`,
	RunE: runRetrieve,
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	repoRoot := mustFindRepository()
	settings := mustLoadSettings(repoRoot)

	query := retrieveQuery
	if retrieveID != "" {
		ds := mustOpenDataset(repoRoot)
		records, err := ds.Records()
		if err != nil {
			exitWithError(ExitDataError, "reading records: %v", err)
		}
		idx, found := dataset.FindByID(records, retrieveID)
		if !found {
			exitWithError(ExitNotFound, "record %s not in the dataset", retrieveID)
		}
		query = records[idx]
	} else if query.Author == "" && query.Title == "" && query.DOI == "" {
		return fmt.Errorf("need --id, --doi, or at least --author/--title")
	}

	store, ri, toc := mustOpenIndex(ctx, indexDBPath(repoRoot, retrieveShared))
	defer store.Close()

	got, err := ri.Retrieve(ctx, &query)
	if errors.Is(err, index.ErrNotInIndex) {
		got, err = toc.RetrieveFromTOC(ctx, ri, &query, settings.Index.TOCSimilarityThreshold)
	}
	if errors.Is(err, index.ErrNotInIndex) {
		exitWithError(ExitNotFound, "record not in index")
	}
	if err != nil {
		exitWithError(ExitError, "retrieving: %v", err)
	}

	if humanOutput {
		fmt.Println(formatRecordLine(got.ID, got.Title, got.Status.String()))
	} else {
		outputJSON(got)
	}
	return nil
}

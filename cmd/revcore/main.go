// Package main provides the revcore CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/revcore/revcore/internal/config"
	"github.com/revcore/revcore/internal/dataset"
	"github.com/revcore/revcore/internal/docstore"
	"github.com/revcore/revcore/internal/index"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "revcore",
	Short: "Content-addressable index for literature review records",
	Long: `revcore maintains the record collection of a literature review:
a git-versioned JSONL dataset, a content-addressable index keyed by
record fingerprints, and the record lifecycle from retrieval to
synthesis.

Core features:
  - Deterministic record fingerprints with SHA-256 slot addressing
  - Record and table-of-contents indexes with amendment on re-index
  - Duplicate classification from fingerprints and repository provenance
  - Lifecycle transitions validated against the committed git history

Data is stored in git-versionable JSONL with ephemeral SQLite for queries.
All commands output JSON by default for AI agent integration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (for XDG_CONFIG_HOME overrides etc.)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	repoRoot, err := config.FindRepository(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'revcore init' to create a repository.", err)
	}
	return repoRoot
}

// mustLoadSettings loads repository settings, exits on error.
func mustLoadSettings(repoRoot string) *config.Settings {
	settings, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading settings: %v", err)
	}
	return settings
}

// mustOpenDataset opens the versioned record store, exits on error. A
// repository outside git still gets a dataset, without history checks.
func mustOpenDataset(repoRoot string) *dataset.Dataset {
	ds, err := dataset.Open(repoRoot)
	if err != nil {
		return dataset.New(repoRoot, nil)
	}
	return ds
}

// mustOpenIndex opens the index database and returns the record and TOC
// indexes over it, exits on error. The caller is responsible for calling
// Close() on the returned store.
func mustOpenIndex(ctx context.Context, dbPath string) (*docstore.SQLiteStore, *index.RecordIndex, *index.TOCIndex) {
	store, err := docstore.OpenSQLite(dbPath)
	if err != nil {
		exitWithError(ExitError, "opening index database: %v", err)
	}
	for _, coll := range []string{docstore.RecordIndexCollection, docstore.TOCIndexCollection} {
		if err := store.CreateCollection(ctx, coll); err != nil {
			store.Close()
			exitWithError(ExitError, "creating collection %s: %v", coll, err)
		}
	}
	toc := index.NewTOCIndex(store)
	return store, index.NewRecordIndex(store, toc), toc
}

// indexDBPath resolves which index database a command talks to: the shared
// per-user index with --shared, the repository cache otherwise.
func indexDBPath(repoRoot string, shared bool) string {
	if shared {
		return config.SharedIndexPath()
	}
	return config.DBPath(repoRoot)
}

package dedupe

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/revcore/revcore/internal/docstore"
	"github.com/revcore/revcore/internal/fingerprint"
	"github.com/revcore/revcore/internal/index"
	"github.com/revcore/revcore/internal/record"
)

func newTestEngine(t *testing.T) (*Engine, *index.RecordIndex) {
	t.Helper()
	store, err := docstore.OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, coll := range []string{docstore.RecordIndexCollection, docstore.TOCIndexCollection} {
		if err := store.CreateCollection(ctx, coll); err != nil {
			t.Fatalf("creating collection %s: %v", coll, err)
		}
	}
	ri := index.NewRecordIndex(store, index.NewTOCIndex(store))
	return NewEngine(ri), ri
}

func paper(id, author, title, doi string) *record.Record {
	return &record.Record{
		ID:        id,
		EntryType: "article",
		Status:    record.StateMDProcessed,
		Author:    author,
		Year:      "2020",
		Title:     title,
		Journal:   "Widget Review",
		Volume:    "1",
		Number:    "2",
		DOI:       doi,
		Origins:   []string{"files.bib/" + id},
	}
}

func mustFingerprint(t *testing.T, rec *record.Record) string {
	t.Helper()
	fp, err := fingerprint.Compute(rec)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	return fp
}

func TestClassifyDegenerateInput(t *testing.T) {
	engine := NewEngine(nil)
	ctx := context.Background()

	long := "0123456789012345678901234567890123456789"
	tests := []struct {
		name       string
		fpsA, fpsB []string
	}{
		{"both empty", nil, nil},
		{"one empty", []string{long}, nil},
		{"short fingerprint", []string{long}, []string{"too-short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.Classify(ctx, tt.fpsA, tt.fpsB); got != DecisionUnknown {
				t.Errorf("Classify = %q, want unknown", got)
			}
		})
	}
}

func TestClassifyOverlapShortCircuits(t *testing.T) {
	// No index behind the engine: an overlap must decide before any lookup.
	engine := NewEngine(nil)

	shared := "v0.1|article|smith, j|2020|on widgets|widget review|1|2|55"
	other := "v0.1|article|doe, j|2019|something else|widget review|1|1|12"
	got := engine.Classify(context.Background(), []string{shared}, []string{shared, other})
	if got != DecisionYes {
		t.Errorf("Classify = %q, want yes", got)
	}
}

func TestClassifySameRepositoryEqualFingerprints(t *testing.T) {
	engine, ri := newTestEngine(t)
	ctx := context.Background()

	// Two renditions of the same paper from the same repository. Indexing
	// the second amends the first entry through the shared DOI, so the
	// entry ends up carrying both fingerprints.
	recA := paper("Smith2020", "Smith, John", "On Widgets", "10.1234/widgets")
	recB := paper("Smith2020a", "Smith, John", "On Widgets", "10.1234/widgets")
	recB.Volume = ""
	recB.Number = ""

	for _, rec := range []*record.Record{recA, recB} {
		if err := ri.Index(ctx, rec, "repo-x"); err != nil {
			t.Fatalf("Index failed: %v", err)
		}
	}

	fpA := mustFingerprint(t, recA)
	fpB := mustFingerprint(t, recB)
	if fpA == fpB {
		t.Fatal("fixture fingerprints must differ")
	}

	if got := engine.Classify(ctx, []string{fpA}, []string{fpB}); got != DecisionYes {
		t.Errorf("Classify = %q, want yes", got)
	}
}

func TestClassifySameRepositoryDistinctRecords(t *testing.T) {
	engine, ri := newTestEngine(t)
	ctx := context.Background()

	recA := paper("Smith2020", "Smith, John", "On Widgets", "10.1234/widgets")
	recC := paper("Doe2019", "Doe, Jane", "Widget Economics", "10.1234/economics")
	recC.Year = "2019"

	for _, rec := range []*record.Record{recA, recC} {
		if err := ri.Index(ctx, rec, "repo-x"); err != nil {
			t.Fatalf("Index failed: %v", err)
		}
	}

	got := engine.Classify(ctx, []string{mustFingerprint(t, recA)}, []string{mustFingerprint(t, recC)})
	if got != DecisionNo {
		t.Errorf("Classify = %q, want no", got)
	}
}

func TestClassifyDifferentCuratedRepositories(t *testing.T) {
	engine, ri := newTestEngine(t)
	ctx := context.Background()

	recA := paper("Smith2020", "Smith, John", "On Widgets", "10.1234/widgets")
	recA.MasterdataProvenance = map[string]record.ProvenanceEntry{
		record.CuratedKey: {Source: "https://curated.example.org/widget-review"},
	}
	recB := paper("Doe2019", "Doe, Jane", "Gadget Theory", "10.9999/gadgets")
	recB.Journal = "Gadget Letters"
	recB.MasterdataProvenance = map[string]record.ProvenanceEntry{
		record.CuratedKey: {Source: "https://curated.example.org/gadget-letters"},
	}

	if err := ri.Index(ctx, recA, "repo-a"); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if err := ri.Index(ctx, recB, "repo-b"); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	got := engine.Classify(ctx, []string{mustFingerprint(t, recA)}, []string{mustFingerprint(t, recB)})
	if got != DecisionNo {
		t.Errorf("Classify = %q, want no", got)
	}
}

func TestClassifyUnindexedIsUnknown(t *testing.T) {
	engine, _ := newTestEngine(t)

	recA := paper("Smith2020", "Smith, John", "On Widgets", "")
	recB := paper("Doe2019", "Doe, Jane", "Widget Economics", "")
	got := engine.Classify(context.Background(),
		[]string{mustFingerprint(t, recA)}, []string{mustFingerprint(t, recB)})
	if got != DecisionUnknown {
		t.Errorf("Classify = %q, want unknown", got)
	}
}

func TestClassifyDifferentUncuratedRepositories(t *testing.T) {
	engine, ri := newTestEngine(t)
	ctx := context.Background()

	recA := paper("Smith2020", "Smith, John", "On Widgets", "10.1234/widgets")
	recB := paper("Doe2019", "Doe, Jane", "Widget Economics", "10.1234/economics")
	recB.Year = "2019"

	if err := ri.Index(ctx, recA, "repo-a"); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if err := ri.Index(ctx, recB, "repo-b"); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	got := engine.Classify(ctx, []string{mustFingerprint(t, recA)}, []string{mustFingerprint(t, recB)})
	if got != DecisionUnknown {
		t.Errorf("Classify = %q, want unknown", got)
	}
}

func TestValidateOutlets(t *testing.T) {
	curated := func(id, journal, source string) *record.Record {
		rec := paper(id, "Smith, John", "On Widgets", "")
		rec.Journal = journal
		rec.MasterdataProvenance = map[string]record.ProvenanceEntry{
			record.CuratedKey: {Source: source},
		}
		return rec
	}

	t.Run("disjoint sources pass", func(t *testing.T) {
		records := []*record.Record{
			curated("a", "Widget Review", "https://curated.example.org/widgets"),
			curated("b", "Gadget Letters", "https://curated.example.org/gadgets"),
			curated("c", "Widget Review", "https://curated.example.org/widgets"),
		}
		if err := ValidateOutlets(records); err != nil {
			t.Errorf("ValidateOutlets failed: %v", err)
		}
	})

	t.Run("shared outlet fails", func(t *testing.T) {
		records := []*record.Record{
			curated("a", "Widget Review", "https://curated.example.org/widgets"),
			curated("b", "widget review", "https://elsewhere.example.org/widgets"),
		}
		err := ValidateOutlets(records)
		var outletErr *DuplicateOutletError
		if !errors.As(err, &outletErr) {
			t.Fatalf("ValidateOutlets error = %v, want DuplicateOutletError", err)
		}
		if outletErr.Outlet != "widget review" || len(outletErr.Sources) != 2 {
			t.Errorf("unexpected error detail: %+v", outletErr)
		}
	})

	t.Run("uncurated records ignored", func(t *testing.T) {
		records := []*record.Record{
			paper("a", "Smith, John", "On Widgets", ""),
			curated("b", "Widget Review", "https://curated.example.org/widgets"),
		}
		if err := ValidateOutlets(records); err != nil {
			t.Errorf("ValidateOutlets failed: %v", err)
		}
	})
}

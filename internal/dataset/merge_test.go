package dataset

import (
	"testing"

	"github.com/revcore/revcore/internal/record"
)

func TestMergeKeepsMoreMatureStatus(t *testing.T) {
	main := sample("Smith2020", record.StateMDImported)
	dup := sample("Smith2020a", record.StateMDProcessed)

	merged := Merge(&main, &dup)
	if merged.Status != record.StateMDProcessed {
		t.Errorf("merged status = %s, want md_processed", merged.Status)
	}

	// The survivor already being further along must not roll back.
	main.Status = record.StateRevPrescreenIncluded
	merged = Merge(&main, &dup)
	if merged.Status != record.StateRevPrescreenIncluded {
		t.Errorf("merged status = %s, want rev_prescreen_included", merged.Status)
	}
}

func TestMergeUnionsOriginsAndFingerprints(t *testing.T) {
	main := sample("Smith2020", record.StateMDProcessed)
	main.Fingerprints = []string{"fp-main"}
	dup := sample("Smith2020a", record.StateMDProcessed)
	dup.Origins = []string{"files.bib/Smith2020a", "files.bib/Smith2020"}
	dup.Fingerprints = []string{"fp-dup", "fp-main"}

	merged := Merge(&main, &dup)
	if len(merged.Origins) != 2 {
		t.Errorf("merged origins = %v, want both without duplicates", merged.Origins)
	}
	if len(merged.Fingerprints) != 2 || merged.Fingerprints[0] != "fp-main" {
		t.Errorf("merged fingerprints = %v", merged.Fingerprints)
	}
}

func TestMergeFirstSeenFieldsWin(t *testing.T) {
	main := sample("Smith2020", record.StateMDProcessed)
	main.Volume = "1"
	dup := sample("Smith2020a", record.StateMDProcessed)
	dup.Volume = "99"
	dup.Number = "2"
	dup.MasterdataProvenance = map[string]record.ProvenanceEntry{
		record.FieldNumber: {Source: "crossref"},
	}

	merged := Merge(&main, &dup)
	if merged.Volume != "1" {
		t.Errorf("merged volume = %q, survivor value must win", merged.Volume)
	}
	if merged.Number != "2" {
		t.Errorf("merged number = %q, duplicate must fill the gap", merged.Number)
	}
	if merged.MasterdataProvenance[record.FieldNumber].Source != "crossref" {
		t.Errorf("provenance for filled field not carried: %+v", merged.MasterdataProvenance)
	}
}

func TestMergeAdoptsCuratedMarker(t *testing.T) {
	main := sample("Smith2020", record.StateMDProcessed)
	dup := sample("Smith2020a", record.StateMDProcessed)
	dup.MasterdataProvenance = map[string]record.ProvenanceEntry{
		record.CuratedKey: {Source: "https://curated.example.org/widget-review"},
	}

	merged := Merge(&main, &dup)
	if !merged.MasterdataIsCurated() {
		t.Error("merged record lost the curated marker")
	}
}

func TestMergeLeavesInputsUntouched(t *testing.T) {
	main := sample("Smith2020", record.StateMDImported)
	dup := sample("Smith2020a", record.StateMDProcessed)
	dup.Extra = map[string]string{"note": "from duplicate"}

	merged := Merge(&main, &dup)
	if main.Status != record.StateMDImported {
		t.Error("Merge mutated the survivor")
	}
	if merged.Field("note") != "from duplicate" {
		t.Errorf("extra field not merged: %+v", merged.Extra)
	}
}

// Package dedupe classifies record pairs as duplicates using fingerprint
// overlap, index provenance, and the curation-uniqueness rule.
package dedupe

import (
	"context"
	"fmt"
	"strings"

	"github.com/revcore/revcore/internal/index"
	"github.com/revcore/revcore/internal/record"
)

// Decision is the outcome of a duplicate classification.
type Decision string

const (
	DecisionYes     Decision = "yes"
	DecisionNo      Decision = "no"
	DecisionUnknown Decision = "unknown"
)

// minFingerprintLength guards against degenerate fingerprints. Anything
// shorter cannot carry enough identity to decide on.
const minFingerprintLength = 20

// Engine decides whether two records are duplicates. Cheap set checks run
// first; index lookups only happen when the fingerprints alone cannot
// decide.
type Engine struct {
	index *index.RecordIndex
}

// NewEngine creates a decision engine backed by the given record index.
func NewEngine(ri *index.RecordIndex) *Engine {
	return &Engine{index: ri}
}

// Classify decides whether the records behind two fingerprint lists are
// duplicates. The ladder, cheapest first:
//
//  1. empty or degenerate fingerprint lists cannot be decided on
//  2. intersecting fingerprint sets are the same identity
//  3. both sides are looked up in the index; records sharing an origin
//     repository were already deduplicated there, so their stored
//     fingerprint sets decide
//  4. records from two different curated repositories never overlap, the
//     curation sources partition the literature by outlet
//
// Everything else needs manual adjudication. Index lookup failures degrade
// to DecisionUnknown rather than erroring: an undecidable pair is a valid
// outcome, not a fault.
func (e *Engine) Classify(ctx context.Context, fpsA, fpsB []string) Decision {
	if degenerate(fpsA) || degenerate(fpsB) {
		return DecisionUnknown
	}

	if intersects(fpsA, fpsB) {
		return DecisionYes
	}

	entryA, err := e.index.RetrieveByFingerprints(ctx, fpsA)
	if err != nil {
		return DecisionUnknown
	}
	entryB, err := e.index.RetrieveByFingerprints(ctx, fpsB)
	if err != nil {
		return DecisionUnknown
	}

	if intersects(entryA.RepositoryPaths, entryB.RepositoryPaths) {
		if sameSet(entryA.Fingerprints, entryB.Fingerprints) {
			return DecisionYes
		}
		return DecisionNo
	}

	if curatedApart(&entryA.Record, &entryB.Record) {
		return DecisionNo
	}

	return DecisionUnknown
}

// degenerate reports whether a fingerprint list is empty or contains an
// entry too short to identify a record.
func degenerate(fps []string) bool {
	if len(fps) == 0 {
		return true
	}
	for _, fp := range fps {
		if len(fp) < minFingerprintLength {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := seen[v]; ok {
			return true
		}
	}
	return false
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			return false
		}
	}
	return true
}

// curatedApart reports whether two records come from different curated
// repositories. Curation sources each own their outlets exclusively, so
// records curated apart cannot be duplicates. ValidateOutlets enforces
// that exclusivity.
func curatedApart(a, b *record.Record) bool {
	if !a.MasterdataIsCurated() || !b.MasterdataIsCurated() {
		return false
	}
	srcA, srcB := a.CurationSource(), b.CurationSource()
	return srcA != "" && srcB != "" && srcA != srcB
}

// DuplicateOutletError reports a publication outlet claimed by more than
// one curated repository.
type DuplicateOutletError struct {
	Outlet  string
	Sources []string
}

func (e *DuplicateOutletError) Error() string {
	return fmt.Sprintf("outlet %q curated by multiple sources: %s",
		e.Outlet, strings.Join(e.Sources, ", "))
}

// ValidateOutlets checks that no two curated repositories claim the same
// publication outlet. The non-duplicate shortcut for records curated apart
// is only sound while this holds.
func ValidateOutlets(records []*record.Record) error {
	sources := make(map[string]string)
	for _, rec := range records {
		if !rec.MasterdataIsCurated() {
			continue
		}
		outlet := strings.ToLower(rec.Journal)
		if outlet == "" {
			outlet = strings.ToLower(rec.Booktitle)
		}
		if outlet == "" {
			continue
		}
		src := rec.CurationSource()
		if src == "" {
			continue
		}
		prev, ok := sources[outlet]
		if !ok {
			sources[outlet] = src
			continue
		}
		if prev != src {
			return &DuplicateOutletError{Outlet: outlet, Sources: []string{prev, src}}
		}
	}
	return nil
}

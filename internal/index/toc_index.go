package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/revcore/revcore/internal/docstore"
	"github.com/revcore/revcore/internal/fingerprint"
	"github.com/revcore/revcore/internal/record"
)

// TOCKeyNA marks record types that are not TOC-indexed.
const TOCKeyNA = "NA"

// DefaultTOCSimilarityThreshold is the fallback fuzzy-match threshold when
// the repository settings do not set one.
const DefaultTOCSimilarityThreshold = 0.9

// TOCKey derives the venue key grouping records by publication outlet:
// "journal|volume|number" for articles (trailing empty segment when the
// number is absent), "booktitle|year" for proceedings papers, NA otherwise.
func TOCKey(rec *record.Record) string {
	switch rec.EntryType {
	case "article":
		key := strings.ToLower(rec.Journal)
		if rec.Volume != "" {
			key += "|" + rec.Volume
		}
		if rec.Number != "" {
			key += "|" + rec.Number
		} else {
			key += "|"
		}
		return key
	case "inproceedings":
		return strings.ToLower(rec.Booktitle) + "|" + rec.Year
	}
	return TOCKeyNA
}

// TOCIndex groups record fingerprints by venue key. Only curated, complete
// records are added; the candidate sets it yields bound the fuzzy-matching
// search space for incomplete records of the same venue.
type TOCIndex struct {
	store docstore.Store
}

// NewTOCIndex creates a TOC index over the given store.
func NewTOCIndex(store docstore.Store) *TOCIndex {
	return &TOCIndex{store: store}
}

// Add records the fingerprint of a curated record under its venue key. The
// first record seen for a key sets the key; later fingerprints append, never
// overwrite. Non-curated records and non-venue entry types are skipped.
func (ti *TOCIndex) Add(ctx context.Context, rec *record.Record) error {
	if !rec.MasterdataIsCurated() {
		return nil
	}
	key := TOCKey(rec)
	if key == TOCKeyNA {
		return nil
	}

	fp, err := fingerprint.Compute(rec)
	if err != nil {
		if errors.Is(err, fingerprint.ErrNotEnoughData) {
			return nil
		}
		return err
	}

	doc, err := ti.store.Get(ctx, docstore.TOCIndexCollection, key)
	if errors.Is(err, docstore.ErrNotFound) {
		item := docstore.Document{
			"toc_key":          key,
			docKeyFingerprints: []string{fp},
		}
		if err := ti.store.Put(ctx, docstore.TOCIndexCollection, key, item); err != nil {
			return fmt.Errorf("storing toc entry %s: %w", key, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading toc entry %s: %w", key, err)
	}

	fps := stringSlice(doc[docKeyFingerprints])
	for _, stored := range fps {
		if stored == fp {
			return nil
		}
	}
	fps = append(fps, fp)
	partial := docstore.Document{docKeyFingerprints: fps}
	if err := ti.store.Update(ctx, docstore.TOCIndexCollection, key, partial); err != nil {
		return fmt.Errorf("updating toc entry %s: %w", key, err)
	}
	return nil
}

// candidates returns the fingerprints grouped under the record's venue key.
func (ti *TOCIndex) candidates(ctx context.Context, rec *record.Record) ([]string, error) {
	key := TOCKey(rec)
	if key == TOCKeyNA {
		return nil, ErrNotInIndex
	}
	doc, err := ti.store.Get(ctx, docstore.TOCIndexCollection, key)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotInIndex
	}
	if err != nil {
		return nil, fmt.Errorf("%w: store: %v", ErrNotInIndex, err)
	}
	fps := stringSlice(doc[docKeyFingerprints])
	if len(fps) == 0 {
		return nil, ErrNotInIndex
	}
	return fps, nil
}

// RetrieveFromTOC finds the indexed sibling of a record through its venue:
// among the candidate fingerprints under the record's TOC key, the one whose
// edit-distance ratio to the query fingerprint exceeds the threshold wins.
// This is how an incomplete record recovers fields from a sibling in the
// same issue. Returns ErrNotInIndex when nothing scores above the threshold.
func (ti *TOCIndex) RetrieveFromTOC(ctx context.Context, ri *RecordIndex, rec *record.Record, threshold float64) (record.Record, error) {
	fps, err := ti.candidates(ctx, rec)
	if err != nil {
		return record.Record{}, err
	}

	queryFP, err := fingerprint.Compute(rec)
	if err != nil {
		return record.Record{}, err
	}

	best := -1.0
	bestFP := ""
	for _, candidate := range fps {
		if score := similarityRatio(queryFP, candidate); score > best {
			best = score
			bestFP = candidate
		}
	}
	if best <= threshold {
		return record.Record{}, fmt.Errorf("%w: best toc similarity %.3f below threshold", ErrNotInIndex, best)
	}

	entry, _, err := ri.lookupByFingerprint(ctx, bestFP)
	if err != nil {
		return record.Record{}, err
	}
	return entry.Sanitized(), nil
}

// YearFromTOC returns the year of the first candidate record under the
// query's venue key, tolerating a missing exact match. Returns "NA" when the
// candidate carries no year.
func (ti *TOCIndex) YearFromTOC(ctx context.Context, ri *RecordIndex, rec *record.Record) (string, error) {
	fps, err := ti.candidates(ctx, rec)
	if err != nil {
		return "", err
	}
	entry, _, err := ri.lookupByFingerprint(ctx, fps[0])
	if err != nil {
		return "", err
	}
	if entry.Record.Year == "" {
		return TOCKeyNA, nil
	}
	return entry.Record.Year, nil
}

package index

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/revcore/revcore/internal/docstore"
	"github.com/revcore/revcore/internal/fingerprint"
	"github.com/revcore/revcore/internal/record"
)

// MaxCollisionWalk bounds the collision chain. SHA-256 space is sparse
// enough that walking this far means something is broken.
const MaxCollisionWalk = 10000

var (
	// ErrNotInIndex indicates no entry matched by any retrieval strategy.
	// Recoverable: callers treat the record as new.
	ErrNotInIndex = errors.New("record not in index")

	// ErrCollisionExhausted indicates the collision walk hit
	// MaxCollisionWalk steps without finding a slot.
	ErrCollisionExhausted = errors.New("index collision chain exhausted")

	// ErrNotYetPrepared indicates a record whose status is too early in
	// the pipeline to be trusted for cross-collection deduplication.
	ErrNotYetPrepared = errors.New("record not yet prepared for indexing")
)

// globalIdentifierFields are the fields usable for exact-match retrieval when
// fingerprint lookup fails.
var globalIdentifierFields = []string{
	record.FieldDOI, record.FieldDBLPKey, record.FieldURL,
}

// RecordIndex is the content-addressable store of records keyed by
// fingerprint hash. It owns collision resolution and amendment; physical
// storage is delegated to the document store.
type RecordIndex struct {
	store docstore.Store
	toc   *TOCIndex

	collisions atomic.Int64
}

// NewRecordIndex creates a record index over the given store, wiring the TOC
// index for opportunistic venue indexing.
func NewRecordIndex(store docstore.Store, toc *TOCIndex) *RecordIndex {
	return &RecordIndex{store: store, toc: toc}
}

// CollisionCount returns the number of hash collisions walked since the
// index was constructed. A climbing count is an anomaly signal.
func (ri *RecordIndex) CollisionCount() int64 {
	return ri.collisions.Load()
}

// queryFingerprints returns the fingerprints to look up for a record: the
// ones it carries, or a freshly computed one.
func queryFingerprints(rec *record.Record) ([]string, error) {
	if len(rec.Fingerprints) > 0 {
		return rec.Fingerprints, nil
	}
	fp, err := fingerprint.Compute(rec)
	if err != nil {
		return nil, err
	}
	return []string{fp}, nil
}

// lookupByFingerprint walks the collision chain from the fingerprint's hash
// slot until it finds an entry carrying the fingerprint or an empty slot.
// Returns the entry and the slot key it occupies.
func (ri *RecordIndex) lookupByFingerprint(ctx context.Context, fp string) (*Entry, string, error) {
	key := fingerprint.Hash(fp)
	for step := 0; step < MaxCollisionWalk; step++ {
		doc, err := ri.store.Get(ctx, docstore.RecordIndexCollection, key)
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, "", ErrNotInIndex
		}
		if err != nil {
			// Transport-level trouble must not masquerade as index
			// corruption; the caller sees "could not determine".
			return nil, "", fmt.Errorf("%w: store: %v", ErrNotInIndex, err)
		}

		entry := decodeEntry(doc)
		if entry.hasFingerprint(fp) {
			return entry, key, nil
		}

		ri.collisions.Add(1)
		key, err = fingerprint.IncrementHash(key)
		if err != nil {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("%w: fingerprint %q", ErrCollisionExhausted, fp)
}

// findEquivalent locates the indexed entry for an identity: each fingerprint
// is tried through its collision chain, then searched for among stored
// fingerprint lists, then the global identifiers. Returns the entry and the
// store slot it occupies.
func (ri *RecordIndex) findEquivalent(ctx context.Context, rec *record.Record, fps []string) (*Entry, string, error) {
	for _, fp := range fps {
		entry, key, err := ri.lookupByFingerprint(ctx, fp)
		if err == nil {
			return entry, key, nil
		}
		if errors.Is(err, ErrCollisionExhausted) {
			return nil, "", err
		}
	}

	// A fingerprint appended by amendment occupies no hash slot of its own;
	// it is only findable inside a stored entry's fingerprint list.
	for _, fp := range fps {
		doc, err := ri.store.SearchExactMatch(ctx, docstore.RecordIndexCollection, docKeyFingerprints, fp)
		if err != nil {
			continue
		}
		entry := decodeEntry(doc)
		for _, stored := range entry.Fingerprints {
			if _, key, err := ri.lookupByFingerprint(ctx, stored); err == nil {
				return entry, key, nil
			}
		}
	}

	for _, field := range globalIdentifierFields {
		value := rec.Field(field)
		if value == "" {
			continue
		}
		doc, err := ri.store.SearchExactMatch(ctx, docstore.RecordIndexCollection, field, value)
		if err != nil {
			continue
		}
		entry := decodeEntry(doc)
		if rec.EntryType != "" && entry.Record.EntryType != rec.EntryType {
			continue
		}
		// Recover the slot through the entry's own fingerprints.
		for _, stored := range entry.Fingerprints {
			if _, key, err := ri.lookupByFingerprint(ctx, stored); err == nil {
				return entry, key, nil
			}
		}
	}

	return nil, "", fmt.Errorf("%w: %s", ErrNotInIndex, rec.ID)
}

// RetrieveByFingerprints returns the indexed entry matching any of the given
// fingerprints: each is tried through its collision chain, then searched for
// among stored fingerprint lists. The search covers fingerprints appended by
// amendment, which occupy no hash slot of their own. Returns ErrNotInIndex
// when none matches.
func (ri *RecordIndex) RetrieveByFingerprints(ctx context.Context, fps []string) (*Entry, error) {
	for _, fp := range fps {
		entry, _, err := ri.lookupByFingerprint(ctx, fp)
		if err == nil {
			return entry, nil
		}
		if errors.Is(err, ErrCollisionExhausted) {
			return nil, err
		}
	}
	for _, fp := range fps {
		doc, err := ri.store.SearchExactMatch(ctx, docstore.RecordIndexCollection, docKeyFingerprints, fp)
		if err == nil {
			return decodeEntry(doc), nil
		}
	}
	return nil, fmt.Errorf("%w: no fingerprint matched", ErrNotInIndex)
}

// Retrieve finds the indexed entry equivalent to the given record: exact
// fingerprint-hash lookup with collision walking first, then a search over
// stored fingerprint lists for amended identities, then exact-match search
// by global identifiers (DOI, stable keys, URL). The returned record is a
// sanitized copy. Returns ErrNotInIndex when no strategy matches.
func (ri *RecordIndex) Retrieve(ctx context.Context, rec *record.Record) (record.Record, error) {
	fps, err := queryFingerprints(rec)
	if err != nil {
		return record.Record{}, err
	}

	entry, _, err := ri.findEquivalent(ctx, rec, fps)
	if err != nil {
		return record.Record{}, err
	}
	if rec.EntryType != "" && entry.Record.EntryType != rec.EntryType {
		return record.Record{}, fmt.Errorf("%w: entry type mismatch", ErrNotInIndex)
	}
	return entry.Sanitized(), nil
}

// Index adds a record to the index, or amends the already-indexed equivalent
// entry. Only records at md_processed or beyond are indexed: earlier records
// have not survived enough preparation to be trustworthy for deduplication.
// Indexing the same record twice leaves exactly one entry.
func (ri *RecordIndex) Index(ctx context.Context, rec *record.Record, repositoryPath string) error {
	if rec.Status < record.StateMDProcessed {
		return fmt.Errorf("%w: %s is %s", ErrNotYetPrepared, rec.ID, rec.Status)
	}

	fp, err := fingerprint.Compute(rec)
	if err != nil {
		return err
	}
	fps := []string{fp}
	for _, carried := range rec.Fingerprints {
		if carried != fp {
			fps = append(fps, carried)
		}
	}

	// An already-indexed equivalent (overlapping fingerprint set, or the
	// same global identifier) is amended, never duplicated.
	entry, key, err := ri.findEquivalent(ctx, rec, fps)
	if err == nil {
		if err := ri.amend(ctx, key, entry, rec, fps, repositoryPath); err != nil {
			return err
		}
		return ri.tocIndex(ctx, rec)
	}
	if errors.Is(err, ErrCollisionExhausted) {
		return err
	}

	key = fingerprint.Hash(fp)
	for step := 0; step < MaxCollisionWalk; step++ {
		doc, err := ri.store.Get(ctx, docstore.RecordIndexCollection, key)
		if errors.Is(err, docstore.ErrNotFound) {
			if err := ri.storeFresh(ctx, key, rec, fps, repositoryPath); err != nil {
				return err
			}
			return ri.tocIndex(ctx, rec)
		}
		if err != nil {
			// Write-path acknowledgement failures must propagate.
			return fmt.Errorf("reading slot %s: %w", key, err)
		}

		entry := decodeEntry(doc)
		if entry.fingerprintsOverlap(fps) {
			if err := ri.amend(ctx, key, entry, rec, fps, repositoryPath); err != nil {
				return err
			}
			return ri.tocIndex(ctx, rec)
		}

		// Occupied by a different identity: walk forward.
		ri.collisions.Add(1)
		key, err = fingerprint.IncrementHash(key)
		if err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: fingerprint %q", ErrCollisionExhausted, fp)
}

// storeFresh writes a new index entry at the given slot.
func (ri *RecordIndex) storeFresh(ctx context.Context, key string, rec *record.Record, fps []string, repositoryPath string) error {
	entry := &Entry{
		Record:               rec.Clone(),
		Fingerprints:         fps,
		RepositoryPaths:      []string{repositoryPath},
		LocalCuratedMetadata: rec.MasterdataIsCurated(),
	}
	entry.Record.Status = 0 // never stored
	entry.Record.Fingerprints = nil

	if err := ri.store.Put(ctx, docstore.RecordIndexCollection, key, encodeEntry(entry)); err != nil {
		return fmt.Errorf("storing index entry %s: %w", key, err)
	}
	return nil
}

// amend merges a record into the stored entry: fields the stored entry lacks
// are added, repository paths concatenate, and fields the stored record
// already has are never overwritten. The first-indexing repository wins.
func (ri *RecordIndex) amend(ctx context.Context, key string, saved *Entry, rec *record.Record, fps []string, repositoryPath string) error {
	changed := false

	for _, fp := range fps {
		if !saved.hasFingerprint(fp) {
			saved.Fingerprints = append(saved.Fingerprints, fp)
			changed = true
		}
	}
	if repositoryPath != "" && !saved.hasRepositoryPath(repositoryPath) {
		saved.RepositoryPaths = append(saved.RepositoryPaths, repositoryPath)
		changed = true
	}

	for name, value := range rec.Fields() {
		if saved.Record.Field(name) != "" {
			continue
		}
		saved.Record.SetField(name, value)
		if saved.Record.MasterdataProvenance == nil {
			saved.Record.MasterdataProvenance = make(map[string]record.ProvenanceEntry)
		}
		if _, ok := saved.Record.MasterdataProvenance[name]; !ok {
			saved.Record.MasterdataProvenance[name] = record.ProvenanceEntry{Source: repositoryPath}
		}
		changed = true
	}

	if !changed {
		return nil
	}
	// Partial update, not full replace: bibliographic fields are top-level
	// document keys, so a concurrent amend contributing different fields is
	// not clobbered. The fingerprint and path lists still replace wholesale;
	// re-running the indexer reconciles a lost append there.
	if err := ri.store.Update(ctx, docstore.RecordIndexCollection, key, encodeEntry(saved)); err != nil {
		return fmt.Errorf("amending index entry %s: %w", key, err)
	}
	return nil
}

// tocIndex opportunistically adds the record to the TOC index.
func (ri *RecordIndex) tocIndex(ctx context.Context, rec *record.Record) error {
	if ri.toc == nil {
		return nil
	}
	return ri.toc.Add(ctx, rec)
}

// FieldsToRemove determines which of volume/number a record should drop so
// that its venue key matches an existing TOC entry. Metadata providers
// disagree on issue numbers for continuously-paginated journals; the TOC
// entry for the true venue settles it.
func (ri *RecordIndex) FieldsToRemove(ctx context.Context, rec *record.Record) ([]string, error) {
	if rec.Volume == "" || rec.Number == "" {
		return nil, nil
	}

	fullKey := TOCKey(rec)
	fullExists, err := ri.tocKeyExists(ctx, fullKey)
	if err != nil {
		return nil, err
	}
	if fullExists {
		return nil, nil
	}

	variants := []struct {
		drop []string
	}{
		{[]string{record.FieldNumber}},
		{[]string{record.FieldVolume}},
		{[]string{record.FieldNumber, record.FieldVolume}},
	}
	for _, v := range variants {
		probe := rec.Clone()
		for _, f := range v.drop {
			probe.DeleteField(f)
		}
		exists, err := ri.tocKeyExists(ctx, TOCKey(&probe))
		if err != nil {
			return nil, err
		}
		if exists {
			return v.drop, nil
		}
	}
	return nil, nil
}

func (ri *RecordIndex) tocKeyExists(ctx context.Context, key string) (bool, error) {
	if key == TOCKeyNA {
		return false, nil
	}
	return ri.store.Exists(ctx, docstore.TOCIndexCollection, key)
}

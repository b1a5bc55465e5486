// Package index implements the content-addressable record index and the
// table-of-contents index on top of the document-store collaborator.
package index

import (
	"github.com/revcore/revcore/internal/docstore"
	"github.com/revcore/revcore/internal/record"
)

// Document meta keys. Everything else in an index document is a
// bibliographic field.
const (
	docKeyFingerprints    = "fingerprints"
	docKeyRepositoryPaths = "metadata_source_repository_paths"
	docKeyLocalCurated    = "local_curated_metadata"
	docKeyProvenance      = "masterdata_provenance"
	docKeyEntryType       = "ENTRYTYPE"
	docKeyID              = "ID"
	docKeyFile            = "file"
)

// Entry is a decoded record-index document: the record's bibliographic data
// plus index-level metadata. Status is never stored in the index.
type Entry struct {
	Record               record.Record
	Fingerprints         []string
	RepositoryPaths      []string
	LocalCuratedMetadata bool
}

// encodeEntry flattens an entry into a store document. Bibliographic fields
// are top-level so that exact-match search by global identifiers works.
func encodeEntry(e *Entry) docstore.Document {
	doc := docstore.Document{}
	for name, value := range e.Record.Fields() {
		doc[name] = value
	}
	doc[docKeyID] = e.Record.ID
	doc[docKeyEntryType] = e.Record.EntryType
	if e.Record.File != "" {
		doc[docKeyFile] = e.Record.File
	}

	doc[docKeyFingerprints] = append([]string(nil), e.Fingerprints...)
	doc[docKeyRepositoryPaths] = append([]string(nil), e.RepositoryPaths...)
	if e.LocalCuratedMetadata {
		doc[docKeyLocalCurated] = true
	}
	if len(e.Record.MasterdataProvenance) > 0 {
		prov := make(map[string]any, len(e.Record.MasterdataProvenance))
		for field, p := range e.Record.MasterdataProvenance {
			prov[field] = map[string]any{"source": p.Source, "note": p.Note}
		}
		doc[docKeyProvenance] = prov
	}
	return doc
}

// decodeEntry rebuilds an Entry from a store document.
func decodeEntry(doc docstore.Document) *Entry {
	e := &Entry{}
	for name, value := range doc {
		switch name {
		case docKeyFingerprints:
			e.Fingerprints = stringSlice(value)
		case docKeyRepositoryPaths:
			e.RepositoryPaths = stringSlice(value)
		case docKeyLocalCurated:
			b, _ := value.(bool)
			e.LocalCuratedMetadata = b
		case docKeyProvenance:
			e.Record.MasterdataProvenance = decodeProvenance(value)
		case docKeyID:
			e.Record.ID, _ = value.(string)
		case docKeyEntryType:
			e.Record.EntryType, _ = value.(string)
		default:
			if s, ok := value.(string); ok {
				e.Record.SetField(name, s)
			}
		}
	}
	return e
}

func decodeProvenance(value any) map[string]record.ProvenanceEntry {
	raw, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]record.ProvenanceEntry, len(raw))
	for field, v := range raw {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		source, _ := entry["source"].(string)
		note, _ := entry["note"].(string)
		out[field] = record.ProvenanceEntry{Source: source, Note: note}
	}
	return out
}

// stringSlice converts either a []string or a JSON-decoded []any to []string.
func stringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// hasFingerprint reports whether fp is among the entry's fingerprints.
func (e *Entry) hasFingerprint(fp string) bool {
	for _, stored := range e.Fingerprints {
		if stored == fp {
			return true
		}
	}
	return false
}

// fingerprintsOverlap reports whether any of fps is among the entry's
// fingerprints.
func (e *Entry) fingerprintsOverlap(fps []string) bool {
	for _, fp := range fps {
		if e.hasFingerprint(fp) {
			return true
		}
	}
	return false
}

// hasRepositoryPath reports whether path is among the entry's originating
// repositories.
func (e *Entry) hasRepositoryPath(path string) bool {
	for _, stored := range e.RepositoryPaths {
		if stored == path {
			return true
		}
	}
	return false
}

// Sanitized returns a copy of the entry's record prepared for callers:
// index-internal fields stripped and status reset to md_prepared, the state
// an indexed record is guaranteed to have reached.
func (e *Entry) Sanitized() record.Record {
	rec := e.Record.Clone()
	rec.File = ""
	rec.Fingerprints = append([]string(nil), e.Fingerprints...)
	rec.Status = record.StateMDPrepared
	return rec
}

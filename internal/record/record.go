// Package record defines the core domain types for bibliographic records:
// the record itself, field provenance, and the lifecycle state machine.
package record

import (
	"sort"
	"strings"
)

// CuratedKey is the provenance key that marks a record's masterdata as
// curated. The entry's Source holds the curation source URL.
const CuratedKey = "CURATED"

// Well-known field names used across the index and fingerprint packages.
const (
	FieldEntryType   = "ENTRYTYPE"
	FieldID          = "ID"
	FieldAuthor      = "author"
	FieldYear        = "year"
	FieldTitle       = "title"
	FieldJournal     = "journal"
	FieldBooktitle   = "booktitle"
	FieldSeries      = "series"
	FieldSchool      = "school"
	FieldInstitution = "institution"
	FieldURL         = "url"
	FieldVolume      = "volume"
	FieldNumber      = "number"
	FieldPages       = "pages"
	FieldDOI         = "doi"
	FieldDBLPKey     = "dblp_key"
)

// ProvenanceEntry records where a field value came from.
type ProvenanceEntry struct {
	Source string `json:"source"`
	Note   string `json:"note,omitempty"`
}

// Record represents a bibliographic record. Well-known fields are first-class
// struct members; source-specific fields live in Extra.
type Record struct {
	ID        string `json:"id"`
	EntryType string `json:"entrytype"`
	Status    State  `json:"status"`

	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	Year        string `json:"year,omitempty"`
	Journal     string `json:"journal,omitempty"`
	Booktitle   string `json:"booktitle,omitempty"`
	Series      string `json:"series,omitempty"`
	School      string `json:"school,omitempty"`
	Institution string `json:"institution,omitempty"`
	URL         string `json:"url,omitempty"`
	Volume      string `json:"volume,omitempty"`
	Number      string `json:"number,omitempty"`
	Pages       string `json:"pages,omitempty"`
	DOI         string `json:"doi,omitempty"`
	DBLPKey     string `json:"dblp_key,omitempty"`
	File        string `json:"file,omitempty"`

	// Origins point back to the search-result entries this record was
	// built from. Never empty for a record reachable from the dataset.
	Origins []string `json:"origins"`

	// Fingerprints accumulates the identity strings a record has carried,
	// e.g. after two dataset entries were merged during deduplication.
	Fingerprints []string `json:"fingerprints,omitempty"`

	MasterdataProvenance map[string]ProvenanceEntry `json:"masterdata_provenance,omitempty"`
	DataProvenance       map[string]ProvenanceEntry `json:"data_provenance,omitempty"`

	Extra map[string]string `json:"extra,omitempty"`
}

// Field returns the value of a field by its bibtex-style name. Unknown names
// fall through to Extra.
func (r *Record) Field(name string) string {
	switch name {
	case FieldID:
		return r.ID
	case FieldEntryType:
		return r.EntryType
	case FieldTitle:
		return r.Title
	case FieldAuthor:
		return r.Author
	case FieldYear:
		return r.Year
	case FieldJournal:
		return r.Journal
	case FieldBooktitle:
		return r.Booktitle
	case FieldSeries:
		return r.Series
	case FieldSchool:
		return r.School
	case FieldInstitution:
		return r.Institution
	case FieldURL:
		return r.URL
	case FieldVolume:
		return r.Volume
	case FieldNumber:
		return r.Number
	case FieldPages:
		return r.Pages
	case FieldDOI:
		return r.DOI
	case FieldDBLPKey:
		return r.DBLPKey
	case "file":
		return r.File
	}
	return r.Extra[name]
}

// SetField sets a field by name, routing unknown names to Extra.
func (r *Record) SetField(name, value string) {
	switch name {
	case FieldID:
		r.ID = value
	case FieldEntryType:
		r.EntryType = value
	case FieldTitle:
		r.Title = value
	case FieldAuthor:
		r.Author = value
	case FieldYear:
		r.Year = value
	case FieldJournal:
		r.Journal = value
	case FieldBooktitle:
		r.Booktitle = value
	case FieldSeries:
		r.Series = value
	case FieldSchool:
		r.School = value
	case FieldInstitution:
		r.Institution = value
	case FieldURL:
		r.URL = value
	case FieldVolume:
		r.Volume = value
	case FieldNumber:
		r.Number = value
	case FieldPages:
		r.Pages = value
	case FieldDOI:
		r.DOI = value
	case FieldDBLPKey:
		r.DBLPKey = value
	case "file":
		r.File = value
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[name] = value
	}
}

// DeleteField clears a field by name.
func (r *Record) DeleteField(name string) {
	if _, ok := r.Extra[name]; ok {
		delete(r.Extra, name)
		return
	}
	r.SetField(name, "")
}

// bibFieldNames lists all well-known bibliographic field names in a stable
// order, excluding identity fields (ID, ENTRYTYPE) and file.
var bibFieldNames = []string{
	FieldAuthor, FieldYear, FieldTitle, FieldJournal, FieldBooktitle,
	FieldSeries, FieldSchool, FieldInstitution, FieldURL, FieldVolume,
	FieldNumber, FieldPages, FieldDOI, FieldDBLPKey,
}

// Fields returns a copy of all non-empty bibliographic fields, well-known and
// extra, keyed by name.
func (r *Record) Fields() map[string]string {
	out := make(map[string]string)
	for _, name := range bibFieldNames {
		if v := r.Field(name); v != "" {
			out[name] = v
		}
	}
	for k, v := range r.Extra {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// FieldNames returns the sorted names of all non-empty bibliographic fields.
func (r *Record) FieldNames() []string {
	fields := r.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MasterdataIsCurated reports whether the record's masterdata carries the
// CURATED marker.
func (r *Record) MasterdataIsCurated() bool {
	_, ok := r.MasterdataProvenance[CuratedKey]
	return ok
}

// CurationSource returns the curation source URL for a curated record, or ""
// if the record is not curated.
func (r *Record) CurationSource() string {
	return r.MasterdataProvenance[CuratedKey].Source
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() Record {
	out := *r
	out.Origins = append([]string(nil), r.Origins...)
	out.Fingerprints = append([]string(nil), r.Fingerprints...)
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	if r.MasterdataProvenance != nil {
		out.MasterdataProvenance = make(map[string]ProvenanceEntry, len(r.MasterdataProvenance))
		for k, v := range r.MasterdataProvenance {
			out.MasterdataProvenance[k] = v
		}
	}
	if r.DataProvenance != nil {
		out.DataProvenance = make(map[string]ProvenanceEntry, len(r.DataProvenance))
		for k, v := range r.DataProvenance {
			out.DataProvenance[k] = v
		}
	}
	return out
}

// HasOrigin reports whether the record carries the given origin reference.
func (r *Record) HasOrigin(origin string) bool {
	for _, o := range r.Origins {
		if o == origin {
			return true
		}
	}
	return false
}

// AddOrigin appends an origin reference if not already present.
func (r *Record) AddOrigin(origin string) {
	if origin == "" || r.HasOrigin(origin) {
		return
	}
	r.Origins = append(r.Origins, origin)
}

// ContainerTitle returns the best-available venue name: school, institution,
// series, booktitle and journal concatenated in that order. When none are
// present but a URL is, the URL stands in.
func (r *Record) ContainerTitle() string {
	var b strings.Builder
	b.WriteString(r.School)
	b.WriteString(r.Institution)
	b.WriteString(r.Series)
	b.WriteString(r.Booktitle)
	b.WriteString(r.Journal)

	if r.Journal == "" && r.Series == "" && r.Booktitle == "" {
		b.WriteString(r.URL)
	}
	return b.String()
}

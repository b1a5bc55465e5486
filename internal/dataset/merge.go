package dataset

import (
	"github.com/revcore/revcore/internal/record"
)

// Merge folds a duplicate record into its surviving counterpart and returns
// the result. The survivor's fields take precedence and the duplicate fills
// gaps; origins and fingerprints union; the more mature of the two statuses
// wins, so a merge never rolls a record's progress back.
func Merge(main, dup *record.Record) record.Record {
	merged := main.Clone()

	if merged.Status.Precedes(dup.Status) {
		merged.Status = dup.Status
	}

	for _, origin := range dup.Origins {
		merged.AddOrigin(origin)
	}
	for _, fp := range dup.Fingerprints {
		if !containsString(merged.Fingerprints, fp) {
			merged.Fingerprints = append(merged.Fingerprints, fp)
		}
	}

	for name, value := range dup.Fields() {
		if merged.Field(name) != "" {
			continue
		}
		merged.SetField(name, value)
		if prov, ok := dup.MasterdataProvenance[name]; ok {
			if merged.MasterdataProvenance == nil {
				merged.MasterdataProvenance = make(map[string]record.ProvenanceEntry)
			}
			merged.MasterdataProvenance[name] = prov
		}
	}

	if dup.MasterdataIsCurated() && !merged.MasterdataIsCurated() {
		if merged.MasterdataProvenance == nil {
			merged.MasterdataProvenance = make(map[string]record.ProvenanceEntry)
		}
		merged.MasterdataProvenance[record.CuratedKey] = dup.MasterdataProvenance[record.CuratedKey]
	}

	return merged
}

func containsString(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

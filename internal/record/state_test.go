package record

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseStateRoundTrip(t *testing.T) {
	for _, s := range AllStates() {
		parsed, err := ParseState(s.String())
		if err != nil {
			t.Fatalf("ParseState(%q) failed: %v", s.String(), err)
		}
		if parsed != s {
			t.Errorf("ParseState(%q) = %v, want %v", s.String(), parsed, s)
		}
	}
}

func TestParseStateUnknown(t *testing.T) {
	for _, text := range []string{"", "md_unknown", "MD_RETRIEVED", "processed"} {
		if _, err := ParseState(text); !errors.Is(err, ErrInvalidState) {
			t.Errorf("ParseState(%q) error = %v, want ErrInvalidState", text, err)
		}
	}
}

func TestValidTransitionClosure(t *testing.T) {
	// Every edge in the graph validates.
	for _, tr := range Transitions {
		if !ValidTransition(tr.Source, tr.Dest) {
			t.Errorf("ValidTransition(%v, %v) = false for graph edge", tr.Source, tr.Dest)
		}
	}
}

func TestValidTransitionNonEdges(t *testing.T) {
	nonEdges := []struct{ from, to State }{
		{StateMDRetrieved, StateMDPrepared},
		{StateMDProcessed, StateRevIncluded},       // must go through prescreen/pdf first
		{StateMDImported, StateMDProcessed},        // dedupe requires md_prepared
		{StateRevPrescreenExcluded, StateMDRetrieved},
		{StateRevSynthesized, StateRevIncluded},
		{StatePDFNotAvailable, StatePDFImported},
		{StateMDPrepared, StateMDImported}, // no backward edges
	}
	for _, e := range nonEdges {
		if ValidTransition(e.from, e.to) {
			t.Errorf("ValidTransition(%v, %v) = true, want false", e.from, e.to)
		}
	}
}

func TestCheckTransition(t *testing.T) {
	if err := CheckTransition(StateMDProcessed, StateRevPrescreenIncluded); err != nil {
		t.Errorf("CheckTransition(md_processed, rev_prescreen_included) = %v, want nil", err)
	}

	err := CheckTransition(StateMDProcessed, StateRevIncluded)
	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("CheckTransition returned %v, want InvalidTransitionError", err)
	}
	if ite.From != StateMDProcessed || ite.To != StateRevIncluded {
		t.Errorf("InvalidTransitionError = %+v, want {md_processed rev_included}", ite)
	}
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, s := range AllStates() {
		ops := ValidNextOperations(s)
		if s.Terminal() && len(ops) > 0 {
			t.Errorf("terminal state %v has outgoing operations %v", s, ops)
		}
		if !s.Terminal() && len(ops) == 0 {
			t.Errorf("non-terminal state %v has no outgoing operations", s)
		}
	}
}

func TestValidNextOperationsUnion(t *testing.T) {
	got := ValidNextOperations(StateMDImported, StatePDFImported)
	want := []string{"pdf_prep", "prep"}
	if len(got) != len(want) {
		t.Fatalf("ValidNextOperations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ValidNextOperations[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(StateMDProcessed)
	if err != nil {
		t.Fatalf("marshaling state: %v", err)
	}
	if string(data) != `"md_processed"` {
		t.Errorf("marshaled state = %s, want \"md_processed\"", data)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshaling state: %v", err)
	}
	if s != StateMDProcessed {
		t.Errorf("unmarshaled state = %v, want md_processed", s)
	}

	if err := json.Unmarshal([]byte(`"bogus"`), &s); err == nil {
		t.Error("unmarshaling unknown state text should fail")
	}
}

func TestProcessingOrder(t *testing.T) {
	if !StateMDRetrieved.Precedes(StateMDProcessed) {
		t.Error("md_retrieved should precede md_processed")
	}
	if StateRevSynthesized.Precedes(StateMDImported) {
		t.Error("rev_synthesized should not precede md_imported")
	}
}

package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// State is a record's position in the screening pipeline. The numeric order
// is the processing order: earlier states have more work remaining.
type State int

const (
	StateInvalid State = iota

	StateMDRetrieved
	StateMDImported
	StateMDNeedsManualPreparation
	StateMDPrepared
	StateMDProcessed
	StateRevPrescreenExcluded
	StateRevPrescreenIncluded
	StatePDFNeedsManualRetrieval
	StatePDFNotAvailable
	StatePDFImported
	StatePDFNeedsManualPreparation
	StatePDFPrepared
	StateRevExcluded
	StateRevIncluded
	StateRevSynthesized
)

var stateNames = map[State]string{
	StateMDRetrieved:               "md_retrieved",
	StateMDImported:                "md_imported",
	StateMDNeedsManualPreparation:  "md_needs_manual_preparation",
	StateMDPrepared:                "md_prepared",
	StateMDProcessed:               "md_processed",
	StateRevPrescreenExcluded:      "rev_prescreen_excluded",
	StateRevPrescreenIncluded:      "rev_prescreen_included",
	StatePDFNeedsManualRetrieval:   "pdf_needs_manual_retrieval",
	StatePDFNotAvailable:           "pdf_not_available",
	StatePDFImported:               "pdf_imported",
	StatePDFNeedsManualPreparation: "pdf_needs_manual_preparation",
	StatePDFPrepared:               "pdf_prepared",
	StateRevExcluded:               "rev_excluded",
	StateRevIncluded:               "rev_included",
	StateRevSynthesized:            "rev_synthesized",
}

var statesByName = func() map[string]State {
	m := make(map[string]State, len(stateNames))
	for s, name := range stateNames {
		m[name] = s
	}
	return m
}()

// ErrInvalidState indicates a status string that names no known state.
var ErrInvalidState = errors.New("invalid record state")

// ParseState converts status text to a State. Status text is only trusted at
// deserialization boundaries; everywhere else the enum is used.
func ParseState(s string) (State, error) {
	if st, ok := statesByName[s]; ok {
		return st, nil
	}
	return StateInvalid, fmt.Errorf("%w: %q", ErrInvalidState, s)
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Valid reports whether s is one of the defined pipeline states.
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// Terminal reports whether s is an absorbing state with no outgoing
// transitions.
func (s State) Terminal() bool {
	switch s {
	case StateRevPrescreenExcluded, StatePDFNotAvailable, StateRevExcluded, StateRevSynthesized:
		return true
	}
	return false
}

// Precedes reports whether s comes strictly before other in processing order.
func (s State) Precedes(other State) bool {
	return s < other
}

// MarshalJSON serializes the state as its status text.
func (s State) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON parses status text, rejecting unknown values.
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseState(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Transition is one edge of the pipeline graph: running the named operation
// moves a record from Source to Dest.
type Transition struct {
	Operation string
	Source    State
	Dest      State
}

// Transitions is the full directed transition graph. md_processed is the join
// point after deduplication; the terminal states have no outgoing edges.
var Transitions = []Transition{
	{"load", StateMDRetrieved, StateMDImported},
	{"prep", StateMDImported, StateMDPrepared},
	{"prep", StateMDImported, StateMDNeedsManualPreparation},
	{"prep_man", StateMDNeedsManualPreparation, StateMDPrepared},
	{"dedupe", StateMDPrepared, StateMDProcessed},
	{"prescreen", StateMDProcessed, StateRevPrescreenExcluded},
	{"prescreen", StateMDProcessed, StateRevPrescreenIncluded},
	{"pdf_get", StateRevPrescreenIncluded, StatePDFImported},
	{"pdf_get", StateRevPrescreenIncluded, StatePDFNeedsManualRetrieval},
	{"pdf_get_man", StatePDFNeedsManualRetrieval, StatePDFNotAvailable},
	{"pdf_get_man", StatePDFNeedsManualRetrieval, StatePDFImported},
	{"pdf_prep", StatePDFImported, StatePDFPrepared},
	{"pdf_prep", StatePDFImported, StatePDFNeedsManualPreparation},
	{"pdf_prep_man", StatePDFNeedsManualPreparation, StatePDFPrepared},
	{"screen", StatePDFPrepared, StateRevExcluded},
	{"screen", StatePDFPrepared, StateRevIncluded},
	{"data", StateRevIncluded, StateRevSynthesized},
}

// InvalidTransitionError reports a status change with no edge in the
// transition graph. It is fatal for the requesting operation and must be
// surfaced, never coerced.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

// ValidTransition reports whether an edge from -> to exists in the graph.
func ValidTransition(from, to State) bool {
	for _, t := range Transitions {
		if t.Source == from && t.Dest == to {
			return true
		}
	}
	return false
}

// CheckTransition returns an InvalidTransitionError when from -> to is not an
// edge of the graph.
func CheckTransition(from, to State) error {
	if !ValidTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// ValidNextOperations returns the sorted set of operations with an outgoing
// edge from any of the given states: the work that remains.
func ValidNextOperations(states ...State) []string {
	seen := make(map[string]bool)
	for _, t := range Transitions {
		for _, s := range states {
			if t.Source == s {
				seen[t.Operation] = true
			}
		}
	}
	ops := make([]string, 0, len(seen))
	for op := range seen {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// AllStates returns every defined state in processing order.
func AllStates() []State {
	out := make([]State, 0, len(stateNames))
	for s := StateMDRetrieved; s <= StateRevSynthesized; s++ {
		out = append(out, s)
	}
	return out
}

package run

import "fmt"

// State is a stage of a run
type State string

const (
	StateIdle         State = "idle"
	StateLoading      State = "loading"
	StateIndexing     State = "indexing"
	StateDetecting    State = "detecting"
	StatePlanning     State = "planning"
	StateDryRunReport State = "dry-run-report"
	StateExecuting    State = "executing"
	StateReporting    State = "reporting"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// transitions lists the legal successors of each state. Failed is only a
// planned successor of the two snapshot stages; the panic boundary may
// still fail a run from anywhere.
var transitions = map[State][]State{
	StateIdle:         {StateLoading},
	StateLoading:      {StateIndexing, StateFailed},
	StateIndexing:     {StateDetecting, StateFailed},
	StateDetecting:    {StatePlanning},
	StatePlanning:     {StateDryRunReport, StateExecuting},
	StateDryRunReport: {StateReporting},
	StateExecuting:    {StateReporting},
	StateReporting:    {StateDone},
}

// CanTransition reports whether to is a legal successor of from
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// FatalError ends a run without a report
type FatalError struct {
	State State
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("run failed during %s: %v", e.State, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *FatalError) Unwrap() error {
	return e.Err
}

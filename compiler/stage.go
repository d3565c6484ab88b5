package compiler

import "fmt"

// Stage is a step of the compilation state machine. A compilation moves through the stages in
// order and never goes back. A failure is terminal for that compilation.
type Stage int

const (
	// Received means a specification was handed to the compiler
	Received Stage = iota

	// Parsed means every rule entry was normalized into the rule model
	Parsed

	// Expanded means preset references were resolved and merged with the user's rules
	Expanded

	// PriorityAssigned means every rule carries a unique priority
	PriorityAssigned

	// Validated means the rule set passed the consistency checks
	Validated

	// Emitted means the intermediate representation was serialized
	Emitted
)

var stageNames = []string{"received", "parsed", "expanded", "priority-assigned", "validated", "emitted"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError is returned when a compilation fails. Stage is the stage that could not be reached.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("compilation failed before stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

package workflow

// State represents a document status in the approval lifecycle.
// State strings are stored verbatim on FinancialDocument.Status.
type State string

const (
	StateDraft             State = "draft"
	StatePendingValidation State = "pending_validation"
	StateValidated         State = "validated"
	StatePaid              State = "paid"
	StateReimbursed        State = "reimbursed"
	StateDispute           State = "dispute"
	StateRejected          State = "rejected"
	StateCancelled         State = "cancelled"
)

var validStates = map[State]bool{
	StateDraft:             true,
	StatePendingValidation: true,
	StateValidated:         true,
	StatePaid:              true,
	StateReimbursed:        true,
	StateDispute:           true,
	StateRejected:          true,
	StateCancelled:         true,
}

var terminalStates = map[State]bool{
	StatePaid:       true,
	StateReimbursed: true,
	StateRejected:   true,
	StateCancelled:  true,
}

// IsTerminal returns true if the state allows no further transitions.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a known document status.
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

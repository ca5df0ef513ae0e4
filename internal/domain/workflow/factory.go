package workflow

// BuildDocumentStateMachine creates a state machine configured with the
// financial-document lifecycle. Forward transitions are monotonic; the
// dispute branch is reachable from every non-terminal state.
func BuildDocumentStateMachine(initialState State) StateMachine {
	builder := NewBuilder()

	// DRAFT: submission either enters the validation chain or, for amounts
	// at or under the auto-approval threshold, validates immediately.
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingValidation).
		Permit(TriggerAutoApprove, StateValidated).
		Permit(TriggerDispute, StateDispute).
		Permit(TriggerCancel, StateCancelled)

	// PENDING_VALIDATION: APPROVE fires only once the last required level
	// has been signed off; intermediate level approvals keep the state.
	builder.Configure(StatePendingValidation).
		Permit(TriggerApprove, StateValidated).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerDispute, StateDispute).
		Permit(TriggerCancel, StateCancelled)

	// VALIDATED: payment scheduling happens out of band and does not change
	// the document state; completion does.
	builder.Configure(StateValidated).
		Permit(TriggerMarkPaid, StatePaid).
		Permit(TriggerReimburse, StateReimbursed).
		Permit(TriggerDispute, StateDispute).
		Permit(TriggerCancel, StateCancelled)

	// DISPUTE: prior approvals stay on record; only cancellation moves on.
	builder.Configure(StateDispute).
		Permit(TriggerCancel, StateCancelled)

	// PAID, REIMBURSED, REJECTED and CANCELLED are terminal.

	return builder.Build(initialState)
}

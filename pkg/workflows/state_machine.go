package workflows

// StateMachine enforces lifecycle status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewProjectStateMachine returns the state machine for project statuses.
// PENDING branches exactly once to VERIFIED or REJECTED; only VERIFIED
// projects can move on to CREDITS_ISSUED.
func NewProjectStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			"PENDING":        {"VERIFIED", "REJECTED"},
			"VERIFIED":       {"CREDITS_ISSUED"},
			"REJECTED":       {},
			"CREDITS_ISSUED": {},
		},
	}
}

// NewCreditStateMachine returns the state machine for carbon credit statuses.
// RETIRED is terminal.
func NewCreditStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			"ACTIVE":      {"TRANSFERRED", "RETIRED"},
			"TRANSFERRED": {"RETIRED"},
			"RETIRED":     {},
		},
	}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}

// IsTerminal reports whether no further transition is possible from the status.
func (sm *StateMachine) IsTerminal(status string) bool {
	allowed, exists := sm.allowedTransitions[status]
	return exists && len(allowed) == 0
}

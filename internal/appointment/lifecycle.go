package appointment

// transitions is the full legal status graph. Terminal statuses have no
// entry, so any transition out of them fails.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// ValidateTransition checks legality only; actor rules live in the
// capability table.
func ValidateTransition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to, Allowed: transitions[from]}
}

// AllowedTransitions returns the legal next statuses from the given one.
func AllowedTransitions(from Status) []Status {
	return transitions[from]
}

package automation

import "errors"

// Domain errors for the automation package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, automation.ErrRuleExists) {
//	    // handle duplicate registration
//	}
var (
	// ErrInvalidRule is returned when a rule is missing its ID, condition
	// or action.
	ErrInvalidRule = errors.New("rule: invalid")

	// ErrRuleExists is returned when adding a rule whose ID is already
	// registered.
	ErrRuleExists = errors.New("rule: already exists")
)

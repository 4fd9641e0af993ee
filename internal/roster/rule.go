package roster

import (
	"errors"
	"fmt"

	"github.com/example/shift-planner/internal/timemodel"
)

// ErrPreferenceRange indicates a rule or affinity weight outside [-1, 1].
var ErrPreferenceRange = errors.New("roster: preference weight must be in [-1, 1]")

// Rule is one named slice of a user's availability: explicit intervals, an
// optional recurrence pattern, and a preference weight in [-1, 1] expressing
// how desirable scheduling inside the rule is. The weight does not gate
// eligibility on its own; composition across a user's ordered rule list does.
type Rule struct {
	Name       string
	Include    []timemodel.Interval
	Pattern    *timemodel.RecurrencePattern
	Preference float64
}

// Validate rejects malformed rules: reversed include intervals, preference
// weights outside [-1, 1], and recurrence patterns with an inconsistent or
// unbounded lifetime.
func (r Rule) Validate() error {
	if r.Preference < -1 || r.Preference > 1 {
		return fmt.Errorf("%w: %v", ErrPreferenceRange, r.Preference)
	}
	for i, iv := range r.Include {
		if err := iv.Validate(); err != nil {
			return fmt.Errorf("include[%d]: %w", i, err)
		}
	}
	if r.Pattern != nil {
		if err := r.Pattern.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RuleValidationError identifies a malformed rule by user and rule position.
type RuleValidationError struct {
	UserID    UserID
	RuleIndex int
	RuleName  string
	Err       error
}

func (e *RuleValidationError) Error() string {
	name := e.RuleName
	if name == "" {
		name = fmt.Sprintf("#%d", e.RuleIndex)
	}
	return fmt.Sprintf("user %s rule %s: %v", e.UserID, name, e.Err)
}

func (e *RuleValidationError) Unwrap() error { return e.Err }

// ValidateUsers checks every rule and affinity weight of every user, before
// any scheduling begins. All malformed rules are reported, not just the
// first.
func ValidateUsers(users []User) error {
	var errs []error
	for _, u := range users {
		for i, r := range u.Rules {
			if err := r.Validate(); err != nil {
				errs = append(errs, &RuleValidationError{UserID: u.ID, RuleIndex: i, RuleName: r.Name, Err: err})
			}
		}
		for other, aff := range u.Affinities {
			// An empty kind means an ordinary weight, matching NewMatrix.
			if (aff.Kind == "" || aff.Kind == AffinityWeight) && (aff.Weight < -1 || aff.Weight > 1) {
				errs = append(errs, fmt.Errorf("user %s affinity toward %s: %w: %v", u.ID, other, ErrPreferenceRange, aff.Weight))
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

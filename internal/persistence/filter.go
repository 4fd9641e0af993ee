package persistence

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// PatternKind selects how a StringPattern matches.
type PatternKind string

const (
	// MatchExact requires the full string to equal the pattern value.
	MatchExact PatternKind = "exact"
	// MatchPrefix requires the string to start with the pattern value.
	MatchPrefix PatternKind = "prefix"
	// MatchSuffix requires the string to end with the pattern value.
	MatchSuffix PatternKind = "suffix"
	// MatchSubstring requires the string to contain the pattern value.
	MatchSubstring PatternKind = "substring"
	// MatchRegexp interprets the pattern value as a Go regular expression.
	MatchRegexp PatternKind = "regexp"
)

// StringPattern is a string-matching predicate used by list filters. Pattern
// evaluation lives here, outside the scheduling engine.
type StringPattern struct {
	Kind  PatternKind
	Value string
}

// Matches evaluates the pattern against s. Regular expressions that fail to
// compile return an error rather than silently matching nothing.
func (p StringPattern) Matches(s string) (bool, error) {
	switch p.Kind {
	case MatchExact:
		return s == p.Value, nil
	case MatchPrefix:
		return strings.HasPrefix(s, p.Value), nil
	case MatchSuffix:
		return strings.HasSuffix(s, p.Value), nil
	case MatchSubstring:
		return strings.Contains(s, p.Value), nil
	case MatchRegexp:
		re, err := regexp.Compile(p.Value)
		if err != nil {
			return false, fmt.Errorf("persistence: bad pattern %q: %w", p.Value, err)
		}
		return re.MatchString(s), nil
	default:
		return false, fmt.Errorf("persistence: unknown pattern kind %q", p.Kind)
	}
}

// TimeRange is a field-range predicate over instants; nil bounds are open.
type TimeRange struct {
	After  *time.Time
	Before *time.Time
}

// Contains reports whether t falls within the range, bounds included.
func (r TimeRange) Contains(t time.Time) bool {
	if r.After != nil && t.Before(*r.After) {
		return false
	}
	if r.Before != nil && t.After(*r.Before) {
		return false
	}
	return true
}

// IntRange is a field-range predicate over integers; nil bounds are open.
type IntRange struct {
	Min *int
	Max *int
}

// Contains reports whether v falls within the range, bounds included.
func (r IntRange) Contains(v int) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// UserFilter narrows ListUsers results.
type UserFilter struct {
	Name *StringPattern
}

// TaskFilter narrows ListTasks results.
type TaskFilter struct {
	Title *StringPattern
	// DeadlineWithin keeps tasks whose deadline falls in the range. A task
	// without a deadline passes only when both bounds are open.
	DeadlineWithin TimeRange
}

// SlotFilter narrows ListSlots results.
type SlotFilter struct {
	Name        *StringPattern
	StartWithin TimeRange
	MinStaff    IntRange
}

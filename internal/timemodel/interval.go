// Package timemodel provides the interval arithmetic and recurring time
// pattern expansion the planner is built on.
//
// Intervals are closed on both ends: Start and End are part of the interval.
// Callers that need half-open semantics must pre-adjust bounds by one minimal
// unit before handing intervals to this package.
package timemodel

import (
	"errors"
	"fmt"
	"time"
)

// ErrReversedInterval indicates an interval whose start is after its end.
var ErrReversedInterval = errors.New("timemodel: interval start is after end")

// Interval is a closed time range. A nil bound means the interval extends
// forever in that direction.
type Interval struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Between returns the bounded interval [start, end].
func Between(start, end time.Time) Interval {
	return Interval{Start: &start, End: &end}
}

// Since returns the interval [start, forever).
func Since(start time.Time) Interval {
	return Interval{Start: &start}
}

// Until returns the interval (forever, end].
func Until(end time.Time) Interval {
	return Interval{End: &end}
}

// Unbounded returns the interval with no bounds on either side.
func Unbounded() Interval {
	return Interval{}
}

// At returns the zero-duration interval containing exactly t.
func At(t time.Time) Interval {
	return Between(t, t)
}

// Validate reports a reversed interval. Unbounded sides are always valid.
func (i Interval) Validate() error {
	if i.Start != nil && i.End != nil && i.Start.After(*i.End) {
		return fmt.Errorf("%w: %s > %s", ErrReversedInterval, i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
	}
	return nil
}

// Bounded reports whether both ends of the interval are present.
func (i Interval) Bounded() bool {
	return i.Start != nil && i.End != nil
}

// Duration returns the length of the interval. The second return value is
// false when either bound is missing; duration is undefined then.
func (i Interval) Duration() (time.Duration, bool) {
	if !i.Bounded() {
		return 0, false
	}
	return i.End.Sub(*i.Start), true
}

// ContainsTime reports whether t falls inside the interval, bounds included.
func (i Interval) ContainsTime(t time.Time) bool {
	if i.Start != nil && t.Before(*i.Start) {
		return false
	}
	if i.End != nil && t.After(*i.End) {
		return false
	}
	return true
}

// Intersects reports whether the two intervals share at least one instant.
// A missing bound never excludes overlap on that side.
func (i Interval) Intersects(other Interval) bool {
	if i.Start != nil && other.End != nil && other.End.Before(*i.Start) {
		return false
	}
	if i.End != nil && other.Start != nil && other.Start.After(*i.End) {
		return false
	}
	return true
}

// Contains reports whether the interval fully encloses other. An unbounded
// side encloses anything on that side; a bounded side never encloses an
// unbounded one.
func (i Interval) Contains(other Interval) bool {
	if i.Start != nil {
		if other.Start == nil || other.Start.Before(*i.Start) {
			return false
		}
	}
	if i.End != nil {
		if other.End == nil || other.End.After(*i.End) {
			return false
		}
	}
	return true
}

// Intersect returns the overlap of the two intervals. The second return value
// is false when they do not intersect.
func (i Interval) Intersect(other Interval) (Interval, bool) {
	if !i.Intersects(other) {
		return Interval{}, false
	}
	out := Interval{Start: laterStart(i.Start, other.Start), End: earlierEnd(i.End, other.End)}
	return out, true
}

func laterStart(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.After(*b):
		return a
	default:
		return b
	}
}

func earlierEnd(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Before(*b):
		return a
	default:
		return b
	}
}

// String renders the interval for logs and diagnostics.
func (i Interval) String() string {
	format := func(t *time.Time) string {
		if t == nil {
			return "forever"
		}
		return t.Format(time.RFC3339)
	}
	return fmt.Sprintf("[%s .. %s]", format(i.Start), format(i.End))
}

package timemodel

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

var (
	// ErrUnboundedLifetime indicates a recurrence pattern whose lifetime is
	// missing a bound. Expansion must always be finite.
	ErrUnboundedLifetime = errors.New("timemodel: recurrence lifetime must be bounded on both ends")
	// ErrInvalidTimeOfDay indicates a time-of-day window that does not fit
	// inside a single day.
	ErrInvalidTimeOfDay = errors.New("timemodel: time-of-day window must fit within one day")
)

// DayPattern selects calendar days by month and weekday bitsets. An empty set
// matches every month (or every weekday).
type DayPattern struct {
	Months   MonthSet   `json:"months,omitempty"`
	Weekdays WeekdaySet `json:"weekdays,omitempty"`
}

// Matches reports whether the day containing t satisfies the pattern.
func (p DayPattern) Matches(t time.Time) bool {
	if !p.Months.IsEmpty() && !p.Months.Has(t.Month()) {
		return false
	}
	if !p.Weekdays.IsEmpty() && !p.Weekdays.Has(t.Weekday()) {
		return false
	}
	return true
}

// TimeOfDay narrows each matched day to a window starting Offset after
// midnight and lasting Length.
type TimeOfDay struct {
	Offset time.Duration `json:"offset"`
	Length time.Duration `json:"length"`
}

// RecurrencePattern describes a repeating portion of the calendar: a union of
// day patterns, an optional time-of-day window, and a bounding lifetime
// outside which the pattern never applies.
type RecurrencePattern struct {
	Days     []DayPattern `json:"days,omitempty"`
	Time     *TimeOfDay   `json:"time,omitempty"`
	Lifetime Interval     `json:"lifetime"`
}

// Validate rejects patterns that cannot expand to a finite sequence.
func (p RecurrencePattern) Validate() error {
	if err := p.Lifetime.Validate(); err != nil {
		return err
	}
	if !p.Lifetime.Bounded() {
		return ErrUnboundedLifetime
	}
	if p.Time != nil {
		if p.Time.Offset < 0 || p.Time.Length < 0 || p.Time.Offset+p.Time.Length > 24*time.Hour {
			return fmt.Errorf("%w: offset %s length %s", ErrInvalidTimeOfDay, p.Time.Offset, p.Time.Length)
		}
	}
	return nil
}

// matchesDay reports whether any day pattern matches t. A pattern with no day
// patterns matches every day inside its lifetime.
func (p RecurrencePattern) matchesDay(t time.Time) bool {
	if len(p.Days) == 0 {
		return true
	}
	for _, d := range p.Days {
		if d.Matches(t) {
			return true
		}
	}
	return false
}

// Expand produces the concrete intervals of the pattern inside window,
// clipped to the intersection of the lifetime and the window. The sequence is
// lazy, finite, and restartable; an invalid pattern or an empty intersection
// yields no intervals.
func (p RecurrencePattern) Expand(window Interval) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		if p.Validate() != nil {
			return
		}
		clamp, ok := p.Lifetime.Intersect(window)
		if !ok || !clamp.Bounded() {
			return
		}

		loc := clamp.Start.Location()
		day := midnight(*clamp.Start, loc)
		for !day.After(*clamp.End) {
			if p.matchesDay(day) {
				occ := p.dayInterval(day)
				if clipped, ok := occ.Intersect(clamp); ok {
					if !yield(clipped) {
						return
					}
				}
			}
			day = day.AddDate(0, 0, 1)
		}
	}
}

// dayInterval returns the occurrence covering the day that starts at day.
func (p RecurrencePattern) dayInterval(day time.Time) Interval {
	if p.Time == nil {
		return Between(day, day.AddDate(0, 0, 1))
	}
	start := day.Add(p.Time.Offset)
	return Between(start, start.Add(p.Time.Length))
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

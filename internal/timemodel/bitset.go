package timemodel

import (
	"strings"
	"time"
)

// WeekdaySet is a bitset over time.Weekday. The zero value matches no day.
type WeekdaySet uint8

// Weekdays builds a set from the given days.
func Weekdays(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// EveryWeekday matches all seven days.
const EveryWeekday WeekdaySet = 0x7f

// With returns the set extended by d.
func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	return s | 1<<uint(d)
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// IsEmpty reports whether no day is set.
func (s WeekdaySet) IsEmpty() bool {
	return s&EveryWeekday == 0
}

func (s WeekdaySet) String() string {
	if s.IsEmpty() {
		return "none"
	}
	parts := make([]string, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			parts = append(parts, d.String()[:3])
		}
	}
	return strings.Join(parts, ",")
}

// MonthSet is a bitset over time.Month. The zero value matches no month.
type MonthSet uint16

// Months builds a set from the given months.
func Months(months ...time.Month) MonthSet {
	var s MonthSet
	for _, m := range months {
		s = s.With(m)
	}
	return s
}

// EveryMonth matches all twelve months.
const EveryMonth MonthSet = 0x0fff

// With returns the set extended by m.
func (s MonthSet) With(m time.Month) MonthSet {
	return s | 1<<uint(m-1)
}

// Has reports whether m is in the set.
func (s MonthSet) Has(m time.Month) bool {
	return s&(1<<uint(m-1)) != 0
}

// IsEmpty reports whether no month is set.
func (s MonthSet) IsEmpty() bool {
	return s&EveryMonth == 0
}

func (s MonthSet) String() string {
	if s.IsEmpty() {
		return "none"
	}
	parts := make([]string, 0, 12)
	for m := time.January; m <= time.December; m++ {
		if s.Has(m) {
			parts = append(parts, m.String()[:3])
		}
	}
	return strings.Join(parts, ",")
}

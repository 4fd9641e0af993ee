// Package availability turns a user's ordered rule list into a hard
// availability verdict and a soft preference score for a candidate interval.
//
// Rules compose by declaration order: for any instant covered by more than
// one rule, the rule declared last is the one in effect. A user is available
// for an interval exactly when every instant of it has an effective rule with
// a non-negative preference.
package availability

import (
	"sort"
	"time"

	"github.com/example/shift-planner/internal/roster"
	"github.com/example/shift-planner/internal/timemodel"
)

// Engine evaluates availability queries. It holds no state and is safe for
// concurrent use.
type Engine struct{}

// NewEngine returns a ready engine.
func NewEngine() *Engine {
	return &Engine{}
}

// coverage is one concrete rule interval clipped to the query window.
type coverage struct {
	interval  timemodel.Interval
	ruleIndex int
	pref      float64
}

// collect expands every rule of the user into concrete intervals clipped to
// the query window, preserving rule declaration order.
func collect(user *roster.User, query timemodel.Interval) []coverage {
	var out []coverage
	for idx, rule := range user.Rules {
		for _, iv := range rule.Include {
			if clipped, ok := iv.Intersect(query); ok {
				out = append(out, coverage{interval: clipped, ruleIndex: idx, pref: rule.Preference})
			}
		}
		if rule.Pattern != nil {
			for occ := range rule.Pattern.Expand(query) {
				if clipped, ok := occ.Intersect(query); ok {
					out = append(out, coverage{interval: clipped, ruleIndex: idx, pref: rule.Preference})
				}
			}
		}
	}
	return out
}

// effective returns the preference of the rule in effect at t, or false when
// no rule covers t.
func effective(covers []coverage, t time.Time) (float64, bool) {
	best := -1
	pref := 0.0
	for _, c := range covers {
		if c.ruleIndex >= best && c.interval.ContainsTime(t) {
			best = c.ruleIndex
			pref = c.pref
		}
	}
	return pref, best >= 0
}

// segments returns the sorted boundary instants of the covers inside the
// bounded query interval, including the query bounds themselves.
func segments(covers []coverage, query timemodel.Interval) []time.Time {
	points := []time.Time{*query.Start, *query.End}
	for _, c := range covers {
		points = append(points, *c.interval.Start, *c.interval.End)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })

	unique := points[:1]
	for _, p := range points[1:] {
		if !p.Equal(unique[len(unique)-1]) {
			unique = append(unique, p)
		}
	}
	return unique
}

// IsAvailable reports whether every instant of interval falls under an
// effective rule with a non-negative preference. Unbounded intervals are
// never available; availability is only meaningful for concrete slots.
//
// The sweep samples every segment boundary as well as every segment midpoint:
// a zero-duration rule covers only its boundary instant and would slip past a
// midpoint-only scan.
func (e *Engine) IsAvailable(user *roster.User, interval timemodel.Interval) bool {
	if !interval.Bounded() || interval.Validate() != nil {
		return false
	}
	covers := collect(user, interval)

	if interval.Start.Equal(*interval.End) {
		pref, ok := effective(covers, *interval.Start)
		return ok && pref >= 0
	}

	bounds := segments(covers, interval)
	for i, bound := range bounds {
		pref, ok := effective(covers, bound)
		if !ok || pref < 0 {
			return false
		}
		if i+1 == len(bounds) {
			break
		}
		mid := bound.Add(bounds[i+1].Sub(bound) / 2)
		pref, ok = effective(covers, mid)
		if !ok || pref < 0 {
			return false
		}
	}
	return true
}

// Score returns the preference-weighted average over the interval of
// whichever rule is in effect at each instant. Uncovered stretches count as
// zero. The score is a soft signal for the allocator, independent of the
// IsAvailable gate.
func (e *Engine) Score(user *roster.User, interval timemodel.Interval) float64 {
	if !interval.Bounded() || interval.Validate() != nil {
		return 0
	}
	covers := collect(user, interval)

	total, _ := interval.Duration()
	if total == 0 {
		pref, ok := effective(covers, *interval.Start)
		if !ok {
			return 0
		}
		return pref
	}

	bounds := segments(covers, interval)
	var weighted float64
	for i := 0; i+1 < len(bounds); i++ {
		span := bounds[i+1].Sub(bounds[i])
		mid := bounds[i].Add(span / 2)
		if pref, ok := effective(covers, mid); ok {
			weighted += pref * span.Seconds()
		}
	}
	return weighted / total.Seconds()
}

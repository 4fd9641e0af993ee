package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/shift-planner/internal/availability"
	"github.com/example/shift-planner/internal/roster"
	"github.com/example/shift-planner/internal/taskgraph"
)

// Budget bounds the local-search refinement pass. The zero value disables
// refinement entirely: construction alone already yields a valid schedule.
type Budget struct {
	// MaxIterations caps the number of committed improving swaps.
	MaxIterations int
	// TimeLimit caps wall-clock time spent refining. Zero means no limit.
	TimeLimit time.Duration
	// Parallelism bounds concurrent swap evaluations. Zero means one.
	Parallelism int
}

// Allocator runs the assignment search. It is a pure function of its inputs;
// no state survives between runs.
type Allocator struct {
	avail *availability.Engine
}

// NewAllocator wires the availability engine the allocator consults.
func NewAllocator(avail *availability.Engine) *Allocator {
	if avail == nil {
		avail = availability.NewEngine()
	}
	return &Allocator{avail: avail}
}

// runState is the mutable working set of one run.
type runState struct {
	avail  *availability.Engine
	matrix *roster.Matrix

	slots []Slot
	order []int // slot indices in processing order
	users map[roster.UserID]*roster.User
	ids   []roster.UserID // sorted

	eligible    [][]roster.UserID // per slot, sorted by id
	eligibleSet []map[roster.UserID]bool
	assigned    [][]roster.UserID
	scores      map[scoreKey]float64
}

type scoreKey struct {
	slot int
	user roster.UserID
}

// Run produces a schedule for the calendar and roster. Only structural
// impossibilities abort: malformed rules and cyclic or dangling prerequisite
// graphs. Every other shortfall degrades into a Violation on the result.
func (a *Allocator) Run(ctx context.Context, cal Calendar, users []roster.User, budget Budget) (Result, error) {
	began := time.Now()

	if err := roster.ValidateUsers(users); err != nil {
		return Result{}, fmt.Errorf("scheduler: malformed roster: %w", err)
	}
	resolver, err := taskgraph.NewResolver(cal.Tasks)
	if err != nil {
		return Result{}, fmt.Errorf("scheduler: %w", err)
	}
	taskOrder, err := resolver.Order()
	if err != nil {
		return Result{}, fmt.Errorf("scheduler: %w", err)
	}

	st := newRunState(a.avail, cal.Slots, users)

	var violations []Violation
	violations = append(violations, st.construct()...)

	steps := st.refine(ctx, budget)

	// Swaps preserve per-slot headcounts, so the understaffed diagnostics
	// from construction stay accurate. Affinity diagnostics depend on who
	// is where and must be derived from the refined assignment.
	violations = append(violations, st.checkAffinities()...)

	taskViolations, placements := st.placeTasks(resolver, taskOrder)
	violations = append(violations, taskViolations...)

	result := Result{
		Entries:         st.entries(placements),
		Violations:      violations,
		Score:           st.totalScore(),
		RefinementSteps: steps,
		Elapsed:         time.Since(began),
	}
	return result, nil
}

func newRunState(avail *availability.Engine, slots []Slot, users []roster.User) *runState {
	st := &runState{
		avail:       avail,
		matrix:      roster.NewMatrix(users),
		slots:       slots,
		users:       make(map[roster.UserID]*roster.User, len(users)),
		eligible:    make([][]roster.UserID, len(slots)),
		eligibleSet: make([]map[roster.UserID]bool, len(slots)),
		assigned:    make([][]roster.UserID, len(slots)),
		scores:      make(map[scoreKey]float64),
	}
	for i := range users {
		st.users[users[i].ID] = &users[i]
		st.ids = append(st.ids, users[i].ID)
	}
	sort.Slice(st.ids, func(i, j int) bool { return st.ids[i] < st.ids[j] })

	// Chronological sweep; bigger, harder-to-fill slots first on ties so they
	// are resolved while more users remain uncommitted.
	st.order = make([]int, len(slots))
	for i := range st.order {
		st.order[i] = i
	}
	sort.SliceStable(st.order, func(i, j int) bool {
		a, b := slots[st.order[i]], slots[st.order[j]]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.RequiredStaff() != b.RequiredStaff() {
			return a.RequiredStaff() > b.RequiredStaff()
		}
		return st.order[i] < st.order[j]
	})

	for _, si := range st.order {
		iv := slots[si].Interval()
		set := make(map[roster.UserID]bool)
		for _, id := range st.ids {
			if avail.IsAvailable(st.users[id], iv) {
				st.eligible[si] = append(st.eligible[si], id)
				set[id] = true
			}
		}
		st.eligibleSet[si] = set
		// Warm the score cache for every eligible pairing now, so the
		// refinement pass reads it without synchronization.
		for _, id := range st.eligible[si] {
			st.availScore(si, id)
		}
	}
	return st
}

// availScore memoizes the soft availability signal per user and slot.
func (st *runState) availScore(slot int, id roster.UserID) float64 {
	key := scoreKey{slot: slot, user: id}
	if v, ok := st.scores[key]; ok {
		return v
	}
	v := st.avail.Score(st.users[id], st.slots[slot].Interval())
	st.scores[key] = v
	return v
}

// overlapsAssignment reports whether the user already holds an assignment on
// a slot overlapping the given one, ignoring the slot itself.
func (st *runState) overlapsAssignment(id roster.UserID, slot int) bool {
	for si, members := range st.assigned {
		if si == slot || !st.slots[si].Overlaps(st.slots[slot]) {
			continue
		}
		for _, m := range members {
			if m == id {
				return true
			}
		}
	}
	return false
}

// construct performs the greedy pass over all slots in processing order.
func (st *runState) construct() []Violation {
	var violations []Violation
	for _, si := range st.order {
		selected := st.fillSlot(si)
		st.assigned[si] = selected
		if need := st.slots[si].RequiredStaff(); len(selected) < need {
			violations = append(violations, Violation{
				Kind:    ViolationUnderstaffed,
				SlotID:  st.slots[si].ID,
				UserIDs: append([]roster.UserID(nil), selected...),
				Detail:  fmt.Sprintf("assigned %d of %d required", len(selected), need),
			})
		}
	}
	return violations
}

// fillSlot selects users for one slot by repeated best-marginal-gain
// addition. Mandatory partners are pulled in atomically; candidates that
// would break a never-together constraint are excluded.
func (st *runState) fillSlot(slot int) []roster.UserID {
	need := st.slots[slot].RequiredStaff()

	pool := make([]roster.UserID, 0, len(st.eligible[slot]))
	for _, id := range st.eligible[slot] {
		if !st.overlapsAssignment(id, slot) {
			pool = append(pool, id)
		}
	}
	inPool := make(map[roster.UserID]bool, len(pool))
	for _, id := range pool {
		inPool[id] = true
	}

	var selected []roster.UserID
	chosen := make(map[roster.UserID]bool)

	for len(selected) < need {
		var best []roster.UserID
		bestGain := 0.0
		for _, id := range pool {
			if chosen[id] {
				continue
			}
			unit, ok := st.mustUnit(id, inPool, chosen, selected)
			if !ok {
				continue
			}
			gain := st.unitGain(slot, unit, selected)
			if best == nil || gain > bestGain || (gain == bestGain && unit[0] < best[0]) {
				best = unit
				bestGain = gain
			}
		}
		if best == nil {
			break
		}
		for _, id := range best {
			chosen[id] = true
			selected = append(selected, id)
		}
	}

	sort.Slice(selected, func(i, j int) bool { return selected[i] < selected[j] })
	return selected
}

// mustUnit expands a candidate into the atomic unit it must be assigned
// with: the transitive closure of its always-together partners that are in
// the pool. Partners outside the pool are the documented exception and stay
// out. The unit is rejected when any member would break a never-together
// constraint against the current selection or within the unit itself.
func (st *runState) mustUnit(id roster.UserID, inPool map[roster.UserID]bool, chosen map[roster.UserID]bool, selected []roster.UserID) ([]roster.UserID, bool) {
	unit := []roster.UserID{id}
	seen := map[roster.UserID]bool{id: true}
	for i := 0; i < len(unit); i++ {
		for _, partner := range st.matrix.MustPartners(unit[i]) {
			if seen[partner] || chosen[partner] || !inPool[partner] {
				continue
			}
			seen[partner] = true
			unit = append(unit, partner)
		}
	}
	sort.Slice(unit, func(i, j int) bool { return unit[i] < unit[j] })

	for i, a := range unit {
		for _, b := range unit[i+1:] {
			if st.matrix.Forbidden(a, b) {
				return nil, false
			}
		}
		for _, b := range selected {
			if st.matrix.Forbidden(a, b) {
				return nil, false
			}
		}
	}
	return unit, true
}

// unitGain is the marginal objective gain from adding the unit to selected.
func (st *runState) unitGain(slot int, unit []roster.UserID, selected []roster.UserID) float64 {
	gain := 0.0
	grown := append(append([]roster.UserID(nil), selected...), unit...)
	for _, id := range unit {
		gain += st.availScore(slot, id)
	}
	gain += st.matrix.Score(grown) - st.matrix.Score(selected)
	return gain
}

// checkAffinities reports sentinel constraints the final assignment breaks.
// It must run after refinement: swaps may cure a split the construction left
// behind. A missing mandatory partner who was never eligible for the slot is
// the documented exception and stays silent.
func (st *runState) checkAffinities() []Violation {
	var violations []Violation
	for _, si := range st.order {
		set := st.eligibleSet[si]
		pairs := st.matrix.Validate(st.assigned[si], func(id roster.UserID) bool { return set[id] })
		for _, p := range pairs {
			violations = append(violations, Violation{
				Kind:    ViolationHardAffinity,
				SlotID:  st.slots[si].ID,
				UserIDs: []roster.UserID{p.A, p.B},
				Detail:  string(p.Kind),
			})
		}
	}
	return violations
}

// slotScore is the objective contribution of one slot's assignment.
func (st *runState) slotScore(slot int, members []roster.UserID) float64 {
	total := st.matrix.Score(members)
	for _, id := range members {
		total += st.availScore(slot, id)
	}
	return total
}

// totalScore is the objective over the whole schedule.
func (st *runState) totalScore() float64 {
	var total float64
	for si := range st.slots {
		total += st.slotScore(si, st.assigned[si])
	}
	return total
}

// placeTasks assigns tasks to slots in dependency order: the earliest slot
// whose start is not before every prerequisite's slot, that has spare task
// capacity, preferring slots whose crew covers the task's skill needs.
func (st *runState) placeTasks(resolver *taskgraph.Resolver, order []taskgraph.TaskID) ([]Violation, map[int][]taskgraph.TaskID) {
	placements := make(map[int][]taskgraph.TaskID)
	placedAt := make(map[taskgraph.TaskID]int)
	var violations []Violation

	for _, id := range order {
		task, _ := resolver.Task(id)

		notBefore := time.Time{}
		blocked := false
		for _, dep := range task.Awaiting {
			depSlot, ok := placedAt[dep]
			if !ok {
				blocked = true
				violations = append(violations, Violation{
					Kind:   ViolationDependencyUnmet,
					TaskID: id,
					Detail: fmt.Sprintf("prerequisite %s is unscheduled", dep),
				})
				break
			}
			if start := st.slots[depSlot].Start; start.After(notBefore) {
				notBefore = start
			}
		}
		if blocked {
			continue
		}

		covered, fallback := -1, -1
		for _, si := range st.order {
			slot := st.slots[si]
			if slot.Start.Before(notBefore) {
				continue
			}
			if len(placements[si]) >= len(st.assigned[si]) {
				continue
			}
			if fallback < 0 {
				fallback = si
			}
			if st.skillsCovered(task, st.assigned[si]) {
				covered = si
				break
			}
		}

		target := covered
		if target < 0 {
			target = fallback
		}
		if target < 0 {
			violations = append(violations, Violation{
				Kind:   ViolationTaskUnplaced,
				TaskID: id,
				Detail: "no staffed slot with capacity at or after prerequisites",
			})
			continue
		}
		if covered < 0 {
			violations = append(violations, Violation{
				Kind:   ViolationSkillShortfall,
				TaskID: id,
				SlotID: st.slots[target].ID,
			})
		}

		placements[target] = append(placements[target], id)
		placedAt[id] = target

		if task.Deadline != nil && st.slots[target].Start.After(*task.Deadline) {
			violations = append(violations, Violation{
				Kind:   ViolationOverdueTask,
				TaskID: id,
				SlotID: st.slots[target].ID,
				Detail: fmt.Sprintf("slot starts after deadline %s", task.Deadline.Format(time.RFC3339)),
			})
		}
	}
	return violations, placements
}

// skillsCovered reports whether the crew jointly reaches every required
// proficiency, each member contributing at most 1.0 per skill.
func (st *runState) skillsCovered(task taskgraph.Task, members []roster.UserID) bool {
	for skill, required := range task.Skills {
		var sum float64
		for _, id := range members {
			p := st.users[id].Skills[skill]
			if p > 1 {
				p = 1
			}
			sum += p
		}
		if sum < required {
			return false
		}
	}
	return true
}

// entries materializes the final schedule in chronological order.
func (st *runState) entries(placements map[int][]taskgraph.TaskID) []Entry {
	out := make([]Entry, 0, len(st.slots))
	for _, si := range st.order {
		tasks := append([]taskgraph.TaskID(nil), placements[si]...)
		sort.Slice(tasks, func(i, j int) bool { return tasks[i] < tasks[j] })
		out = append(out, Entry{
			Slot:    st.slots[si],
			TaskIDs: tasks,
			UserIDs: append([]roster.UserID(nil), st.assigned[si]...),
		})
	}
	return out
}

package scheduler

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/example/shift-planner/internal/roster"
)

// improvementEpsilon guards against committing swaps whose gain is only
// floating-point noise.
const improvementEpsilon = 1e-9

// swap exchanges one user between two slots.
type swap struct {
	slotA, slotB int
	userA, userB roster.UserID
}

// refine runs the anytime local-search pass: repeatedly evaluate all feasible
// pairwise swaps against a read-only view of the schedule, commit the single
// best strictly-improving one, and stop when none improves, the iteration
// budget runs out, or the context is cancelled. The schedule is valid at
// every step, so cancellation simply keeps the best found so far.
func (st *runState) refine(ctx context.Context, budget Budget) int {
	if budget.MaxIterations <= 0 && budget.TimeLimit <= 0 {
		return 0
	}
	if budget.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget.TimeLimit)
		defer cancel()
	}
	maxIterations := budget.MaxIterations
	if maxIterations <= 0 {
		maxIterations = math.MaxInt
	}

	steps := 0
	for steps < maxIterations {
		if ctx.Err() != nil {
			break
		}
		candidates := st.swapCandidates()
		best, delta := st.bestSwap(ctx, candidates, budget.Parallelism)
		if best == nil || delta <= improvementEpsilon {
			break
		}
		st.applySwap(*best)
		steps++
	}
	return steps
}

// swapCandidates enumerates feasible swaps in a deterministic order.
func (st *runState) swapCandidates() []swap {
	var out []swap
	for a := 0; a < len(st.slots); a++ {
		for b := a + 1; b < len(st.slots); b++ {
			for _, ua := range st.assigned[a] {
				for _, ub := range st.assigned[b] {
					sw := swap{slotA: a, slotB: b, userA: ua, userB: ub}
					if st.feasibleSwap(sw) {
						out = append(out, sw)
					}
				}
			}
		}
	}
	return out
}

// feasibleSwap checks that both resulting slots remain hard-constraint
// feasible: availability, no double booking, and no new sentinel violations.
func (st *runState) feasibleSwap(sw swap) bool {
	if sw.userA == sw.userB {
		return false
	}
	if !st.eligibleSet[sw.slotB][sw.userA] || !st.eligibleSet[sw.slotA][sw.userB] {
		return false
	}
	if st.overlapsExcluding(sw.userA, sw.slotB, sw.slotA) {
		return false
	}
	if st.overlapsExcluding(sw.userB, sw.slotA, sw.slotB) {
		return false
	}

	newA := replaceMember(st.assigned[sw.slotA], sw.userA, sw.userB)
	newB := replaceMember(st.assigned[sw.slotB], sw.userB, sw.userA)
	if st.sentinelViolations(sw.slotA, newA) > st.sentinelViolations(sw.slotA, st.assigned[sw.slotA]) {
		return false
	}
	if st.sentinelViolations(sw.slotB, newB) > st.sentinelViolations(sw.slotB, st.assigned[sw.slotB]) {
		return false
	}
	return true
}

// overlapsExcluding reports whether the user holds an assignment overlapping
// the target slot, ignoring both the target and the slot being vacated.
func (st *runState) overlapsExcluding(id roster.UserID, target, vacated int) bool {
	for si, members := range st.assigned {
		if si == target || si == vacated || !st.slots[si].Overlaps(st.slots[target]) {
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

func (st *runState) sentinelViolations(slot int, members []roster.UserID) int {
	set := st.eligibleSet[slot]
	return len(st.matrix.Validate(members, func(id roster.UserID) bool { return set[id] }))
}

// swapDelta is the objective change from committing the swap.
func (st *runState) swapDelta(sw swap) float64 {
	newA := replaceMember(st.assigned[sw.slotA], sw.userA, sw.userB)
	newB := replaceMember(st.assigned[sw.slotB], sw.userB, sw.userA)
	before := st.slotScore(sw.slotA, st.assigned[sw.slotA]) + st.slotScore(sw.slotB, st.assigned[sw.slotB])
	after := st.slotScore(sw.slotA, newA) + st.slotScore(sw.slotB, newB)
	return after - before
}

// bestSwap evaluates candidates against the read-only current schedule,
// fanning out across workers, and reduces to the single best improving swap.
// Ties resolve to the earliest candidate, keeping the search deterministic
// regardless of parallelism.
func (st *runState) bestSwap(ctx context.Context, candidates []swap, parallelism int) (*swap, float64) {
	if len(candidates) == 0 {
		return nil, 0
	}
	if parallelism <= 1 {
		sw, delta, _ := reduceBest(st, candidates, 0)
		return sw, delta
	}

	chunks := parallelism
	if chunks > len(candidates) {
		chunks = len(candidates)
	}
	type chunkBest struct {
		sw    *swap
		delta float64
		index int
	}
	results := make([]chunkBest, chunks)

	g, _ := errgroup.WithContext(ctx)
	size := (len(candidates) + chunks - 1) / chunks
	for c := 0; c < chunks; c++ {
		lo := c * size
		hi := lo + size
		if hi > len(candidates) {
			hi = len(candidates)
		}
		g.Go(func() error {
			sw, delta, index := reduceBest(st, candidates[lo:hi], lo)
			results[c] = chunkBest{sw: sw, delta: delta, index: index}
			return nil
		})
	}
	// Workers never fail; the group exists for the bounded fan-out.
	_ = g.Wait()

	var best *swap
	bestDelta := 0.0
	bestIndex := 0
	for _, r := range results {
		if r.sw == nil {
			continue
		}
		if best == nil || r.delta > bestDelta || (r.delta == bestDelta && r.index < bestIndex) {
			best, bestDelta, bestIndex = r.sw, r.delta, r.index
		}
	}
	return best, bestDelta
}

// reduceBest scans a candidate range and keeps the first maximal delta,
// reporting the absolute index of the winner for cross-chunk tie-breaking.
func reduceBest(st *runState, candidates []swap, offset int) (*swap, float64, int) {
	var best *swap
	bestDelta := 0.0
	bestIndex := offset
	for i := range candidates {
		delta := st.swapDelta(candidates[i])
		if best == nil || delta > bestDelta {
			best = &candidates[i]
			bestDelta = delta
			bestIndex = offset + i
		}
	}
	return best, bestDelta, bestIndex
}

// applySwap commits the exchange, keeping member lists sorted.
func (st *runState) applySwap(sw swap) {
	st.assigned[sw.slotA] = replaceMember(st.assigned[sw.slotA], sw.userA, sw.userB)
	st.assigned[sw.slotB] = replaceMember(st.assigned[sw.slotB], sw.userB, sw.userA)
}

func replaceMember(members []roster.UserID, remove, add roster.UserID) []roster.UserID {
	out := make([]roster.UserID, 0, len(members))
	for _, m := range members {
		if m != remove {
			out = append(out, m)
		}
	}
	out = append(out, add)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

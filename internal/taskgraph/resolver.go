package taskgraph

import (
	"fmt"
	"strings"
)

// CyclicDependencyError names the tasks participating in a prerequisite
// cycle. A cyclic graph is a hard precondition failure: no schedule can be
// produced from it.
type CyclicDependencyError struct {
	Cycle []TaskID
}

func (e *CyclicDependencyError) Error() string {
	ids := make([]string, len(e.Cycle))
	for i, id := range e.Cycle {
		ids[i] = string(id)
	}
	return fmt.Sprintf("taskgraph: cyclic dependency: %s", strings.Join(ids, " -> "))
}

// UnknownTaskError reports an awaiting edge pointing at a task that is not in
// the input set.
type UnknownTaskError struct {
	Task    TaskID
	Missing TaskID
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("taskgraph: task %s awaits unknown task %s", e.Task, e.Missing)
}

// Resolver holds a disposable adjacency index over the prerequisite edges.
// Tasks stay plain data; the graph lives here.
type Resolver struct {
	tasks    []Task
	position map[TaskID]int
	// prereqs[i] lists the indices task i awaits; dependents is the reverse.
	prereqs    [][]int
	dependents [][]int
}

// NewResolver indexes the task set. It fails when an awaiting edge points
// outside the set.
func NewResolver(tasks []Task) (*Resolver, error) {
	r := &Resolver{
		tasks:      tasks,
		position:   make(map[TaskID]int, len(tasks)),
		prereqs:    make([][]int, len(tasks)),
		dependents: make([][]int, len(tasks)),
	}
	for i, t := range tasks {
		r.position[t.ID] = i
	}
	for i, t := range tasks {
		seen := make(map[int]struct{}, len(t.Awaiting))
		for _, dep := range t.Awaiting {
			j, ok := r.position[dep]
			if !ok {
				return nil, &UnknownTaskError{Task: t.ID, Missing: dep}
			}
			if _, dup := seen[j]; dup || j == i {
				continue
			}
			seen[j] = struct{}{}
			r.prereqs[i] = append(r.prereqs[i], j)
			r.dependents[j] = append(r.dependents[j], i)
		}
	}
	return r, nil
}

// Task returns the task at the given order position.
func (r *Resolver) Task(id TaskID) (Task, bool) {
	i, ok := r.position[id]
	if !ok {
		return Task{}, false
	}
	return r.tasks[i], true
}

// Order returns an admissible scheduling order over the tasks: prerequisites
// always precede their dependents, and tasks with no ordering constraint
// between them are taken by ascending deadline, deadline-free tasks last in
// input order. A cycle aborts with CyclicDependencyError.
func (r *Resolver) Order() ([]TaskID, error) {
	remaining := make([]int, len(r.tasks))
	ready := make([]int, 0, len(r.tasks))
	for i := range r.tasks {
		remaining[i] = len(r.prereqs[i])
		if remaining[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]TaskID, 0, len(r.tasks))
	for len(ready) > 0 {
		pick := 0
		for i := 1; i < len(ready); i++ {
			if r.before(ready[i], ready[pick]) {
				pick = i
			}
		}
		next := ready[pick]
		ready = append(ready[:pick], ready[pick+1:]...)
		order = append(order, r.tasks[next].ID)

		for _, dep := range r.dependents[next] {
			remaining[dep]--
			if remaining[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(r.tasks) {
		return nil, &CyclicDependencyError{Cycle: r.findCycle(remaining)}
	}
	return order, nil
}

// before orders ready tasks: earlier deadline first, missing deadline last,
// then input order.
func (r *Resolver) before(a, b int) bool {
	da, db := r.tasks[a].Deadline, r.tasks[b].Deadline
	switch {
	case da != nil && db != nil:
		if !da.Equal(*db) {
			return da.Before(*db)
		}
		return a < b
	case da != nil:
		return true
	case db != nil:
		return false
	default:
		return a < b
	}
}

// findCycle walks the unresolved subgraph until a node repeats, then trims
// the walk to the cycle itself.
func (r *Resolver) findCycle(remaining []int) []TaskID {
	stuck := -1
	for i, n := range remaining {
		if n > 0 {
			stuck = i
			break
		}
	}
	if stuck < 0 {
		return nil
	}

	seenAt := map[int]int{}
	var path []int
	curr := stuck
	for {
		if at, ok := seenAt[curr]; ok {
			path = path[at:]
			break
		}
		seenAt[curr] = len(path)
		path = append(path, curr)

		next := -1
		for _, p := range r.prereqs[curr] {
			if remaining[p] > 0 {
				next = p
				break
			}
		}
		if next < 0 {
			break
		}
		curr = next
	}

	cycle := make([]TaskID, len(path))
	for i, idx := range path {
		cycle[i] = r.tasks[idx].ID
	}
	return cycle
}

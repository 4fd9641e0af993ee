package roster

import "sort"

type pairKey struct {
	a, b UserID
}

func keyFor(a, b UserID) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Matrix resolves the sparse per-user affinity declarations into one
// symmetric pairwise view. When both users of a pair declare an entry,
// NeverTogether wins over AlwaysTogether, either sentinel wins over an
// ordinary weight, and two ordinary weights average.
type Matrix struct {
	pairs map[pairKey]Affinity
	must  map[UserID][]UserID
}

// NewMatrix builds the symmetric matrix from the users' declarations.
func NewMatrix(users []User) *Matrix {
	m := &Matrix{
		pairs: make(map[pairKey]Affinity),
		must:  make(map[UserID][]UserID),
	}
	for _, u := range users {
		for other, aff := range u.Affinities {
			if other == u.ID {
				continue
			}
			key := keyFor(u.ID, other)
			existing, ok := m.pairs[key]
			if !ok {
				m.pairs[key] = normalize(aff)
				continue
			}
			m.pairs[key] = merge(existing, normalize(aff))
		}
	}
	for key, aff := range m.pairs {
		if aff.Kind == AffinityAlwaysTogether {
			m.must[key.a] = append(m.must[key.a], key.b)
			m.must[key.b] = append(m.must[key.b], key.a)
		}
	}
	for id := range m.must {
		sort.Slice(m.must[id], func(i, j int) bool { return m.must[id][i] < m.must[id][j] })
	}
	return m
}

func normalize(a Affinity) Affinity {
	if a.Kind == "" {
		a.Kind = AffinityWeight
	}
	return a
}

func merge(a, b Affinity) Affinity {
	switch {
	case a.Kind == AffinityNeverTogether || b.Kind == AffinityNeverTogether:
		return NeverTogether()
	case a.Kind == AffinityAlwaysTogether || b.Kind == AffinityAlwaysTogether:
		return AlwaysTogether()
	default:
		return Weight((a.Weight + b.Weight) / 2)
	}
}

// Affinity returns the resolved affinity between two users. Absent entries
// are neutral.
func (m *Matrix) Affinity(a, b UserID) Affinity {
	if a == b {
		return Weight(0)
	}
	if aff, ok := m.pairs[keyFor(a, b)]; ok {
		return aff
	}
	return Weight(0)
}

// Forbidden reports whether the pair carries the never-together sentinel.
func (m *Matrix) Forbidden(a, b UserID) bool {
	return m.Affinity(a, b).Kind == AffinityNeverTogether
}

// MustPartners returns the users the given user must always be co-scheduled
// with, in id order.
func (m *Matrix) MustPartners(id UserID) []UserID {
	return m.must[id]
}

// Score sums the ordinary pairwise weights over all unordered pairs of the
// set. Sentinel pairs contribute nothing; they are hard-checked separately by
// Validate.
func (m *Matrix) Score(ids []UserID) float64 {
	var total float64
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if aff := m.Affinity(ids[i], ids[j]); aff.Kind == AffinityWeight {
				total += aff.Weight
			}
		}
	}
	return total
}

// MarginalScore returns the score increase from adding candidate to the
// already-selected set.
func (m *Matrix) MarginalScore(selected []UserID, candidate UserID) float64 {
	var total float64
	for _, id := range selected {
		if aff := m.Affinity(id, candidate); aff.Kind == AffinityWeight {
			total += aff.Weight
		}
	}
	return total
}

// PairViolation reports a sentinel pair constraint broken by an assignment.
type PairViolation struct {
	A, B UserID
	Kind AffinityKind
}

// Validate checks the sentinel constraints over an assigned set. For every
// always-together pair, both members must be present or neither; eligible
// reports whether a missing partner could have been assigned at all, and a
// partner that was never eligible is not counted as a violation. For every
// never-together pair, at most one member may be
// present. Violations are always reported, never silently dropped.
func (m *Matrix) Validate(assigned []UserID, eligible func(UserID) bool) []PairViolation {
	inSet := make(map[UserID]struct{}, len(assigned))
	for _, id := range assigned {
		inSet[id] = struct{}{}
	}

	var out []PairViolation
	keys := make([]pairKey, 0, len(m.pairs))
	for key := range m.pairs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})

	for _, key := range keys {
		_, hasA := inSet[key.a]
		_, hasB := inSet[key.b]
		switch m.pairs[key].Kind {
		case AffinityAlwaysTogether:
			if hasA == hasB {
				continue
			}
			missing := key.a
			if hasA {
				missing = key.b
			}
			if eligible != nil && !eligible(missing) {
				continue
			}
			out = append(out, PairViolation{A: key.a, B: key.b, Kind: AffinityAlwaysTogether})
		case AffinityNeverTogether:
			if hasA && hasB {
				out = append(out, PairViolation{A: key.a, B: key.b, Kind: AffinityNeverTogether})
			}
		}
	}
	return out
}

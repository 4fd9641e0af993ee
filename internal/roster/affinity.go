package roster

import "fmt"

// AffinityKind tags the variant carried by an Affinity value.
type AffinityKind string

const (
	// AffinityWeight is an ordinary preference weight in [-1, 1].
	AffinityWeight AffinityKind = "weight"
	// AffinityAlwaysTogether means the pair must always be co-scheduled.
	AffinityAlwaysTogether AffinityKind = "always_together"
	// AffinityNeverTogether means the pair must never be co-scheduled.
	AffinityNeverTogether AffinityKind = "never_together"
)

// Affinity is a tagged variant rather than a float with infinities, so that
// summing scores never has to guard against NaN or infinity arithmetic.
// The zero value is a neutral weight.
type Affinity struct {
	Kind   AffinityKind
	Weight float64
}

// Weight returns an ordinary affinity with the given weight.
func Weight(w float64) Affinity {
	return Affinity{Kind: AffinityWeight, Weight: w}
}

// AlwaysTogether returns the must-co-schedule sentinel.
func AlwaysTogether() Affinity {
	return Affinity{Kind: AffinityAlwaysTogether}
}

// NeverTogether returns the must-not-co-schedule sentinel.
func NeverTogether() Affinity {
	return Affinity{Kind: AffinityNeverTogether}
}

// IsSentinel reports whether the affinity is one of the absolute variants.
func (a Affinity) IsSentinel() bool {
	return a.Kind == AffinityAlwaysTogether || a.Kind == AffinityNeverTogether
}

func (a Affinity) String() string {
	switch a.Kind {
	case AffinityAlwaysTogether:
		return "always-together"
	case AffinityNeverTogether:
		return "never-together"
	default:
		return fmt.Sprintf("%+.2f", a.Weight)
	}
}

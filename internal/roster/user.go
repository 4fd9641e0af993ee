// Package roster models the people being scheduled: their identity, their
// availability rules, their skills, and their pairwise affinities.
package roster

// UserID uniquely identifies a user.
type UserID string

// SkillID uniquely identifies a skill in the skill catalog.
type SkillID string

// User is an immutable snapshot of a schedulable person.
//
// Rules are ordered: later rules take precedence over earlier ones for the
// sub-intervals they cover. Affinities are sparse; a missing entry means
// neutral (0.0) and should not be stored explicitly. Skills map to
// proficiency, where 0 means no skill and 1 is one baseline-capable person;
// zero-proficiency skills should be omitted.
type User struct {
	ID         UserID
	Name       string
	Rules      []Rule
	Affinities map[UserID]Affinity
	Skills     map[SkillID]float64
}

package arena

// EntityID uniquely identifies an entity within one arena. Ids are
// allocated monotonically and never reused within an arena's lifetime.
type EntityID uint64

// SpellID uniquely identifies a spell within one arena, with the same
// monotonic, never-reused allocation discipline as EntityID.
type SpellID uint64

// NoneEntity is the sentinel EntityID meaning "uninitialized" or "no
// owner" (e.g. a spell cast by the arena itself rather than a player).
const NoneEntity EntityID = 0

// NoneSpell is the sentinel SpellID meaning "uninitialized".
const NoneSpell SpellID = 0

// Position is an integer grid coordinate.
type Position struct {
	X int
	Y int
}

// Add returns the position offset by (dx, dy).
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

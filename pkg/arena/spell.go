package arena

import (
	"time"

	"asciiarena/pkg/protocol"
)

// SpellAction is one intent a Behaviour hands back to the simulator for
// its spell.
type SpellAction interface{ isSpellAction() }

type (
	// Move advances the spell one step along its current direction, at
	// its own pace (NextMoveTime), with wall/entity collision resolved
	// by the simulator.
	Move struct{}
	// SetSpeed changes the spell's movement speed.
	SetSpeed struct{ Speed float64 }
	// SetSpellDirection changes the spell's travel direction.
	SetSpellDirection struct{ Direction protocol.Direction }
	// CastSub queues creation of child spells (a behaviour hook; the
	// concrete child specs are supplied by the behaviour).
	CastSub struct{ Specs []SpellSpawn }
	// CreateSub queues creation of child entities (a behaviour hook).
	CreateSub struct{ Specs []EntitySpawn }
	// DestroySpell marks the spell destroyed.
	DestroySpell struct{}
)

func (Move) isSpellAction()              {}
func (SetSpeed) isSpellAction()           {}
func (SetSpellDirection) isSpellAction()  {}
func (CastSub) isSpellAction()            {}
func (CreateSub) isSpellAction()          {}
func (DestroySpell) isSpellAction()       {}

// SpellSpawn describes a child spell a behaviour wants the simulator to
// create during the Cast phase.
type SpellSpawn struct {
	SpecID    int
	Position  Position
	Direction protocol.Direction
}

// EntitySpawn describes a child entity a behaviour wants the simulator to
// create during the Create phase.
type EntitySpawn struct {
	Owner    string
	Template *CharacterTemplate
	Position Position
}

// Behaviour is the capability object driving one spell's movement and
// collision response. It never mutates arena state itself; the simulator
// applies the intents it returns.
type Behaviour interface {
	Update(now time.Time, self *Spell, m *Map, entities map[EntityID]*Entity) []SpellAction
	// OnEntityCollision is invoked when the spell's new position lands on
	// an entity not already in its affected set. affect tells the
	// simulator whether to apply damage and mark the entity affected.
	OnEntityCollision(target *Entity) (actions []SpellAction, affect bool)
	// OnDestroyByWallCollision is invoked once, the tick the spell exits
	// the map.
	OnDestroyByWallCollision() []SpellAction
}

// SkillSpec describes a castable skill: the spell it spawns and that
// spell's starting stats.
type SkillSpec struct {
	ID     int
	SpecID int
	Damage int
	Speed  float64
}

// SkillTable is the set of castable skills available in an arena.
type SkillTable map[int]SkillSpec

// DefaultSkillTable returns a small built-in set of skills sufficient to
// exercise the projectile pipeline end to end.
func DefaultSkillTable() SkillTable {
	return SkillTable{
		1: {ID: 1, SpecID: 1, Damage: 2, Speed: 6},
		2: {ID: 2, SpecID: 2, Damage: 1, Speed: 10},
	}
}

// Spell is a transient projectile owned by the arena.
type Spell struct {
	ID        SpellID
	SpecID    int
	OwnerID   EntityID
	Position  Position
	Direction protocol.Direction
	Speed     float64
	Damage    int
	Affected  map[EntityID]bool
	Destroyed bool

	nextMoveTime time.Time

	Behaviour Behaviour
}

func newSpell(id SpellID, owner EntityID, spec SkillSpec, pos Position, dir protocol.Direction, behaviour Behaviour) *Spell {
	return &Spell{
		ID:        id,
		SpecID:    spec.SpecID,
		OwnerID:   owner,
		Position:  pos,
		Direction: dir,
		Speed:     spec.Speed,
		Damage:    spec.Damage,
		Affected:  make(map[EntityID]bool),
		Behaviour: behaviour,
	}
}

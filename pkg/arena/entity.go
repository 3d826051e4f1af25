package arena

import (
	"time"

	"asciiarena/pkg/protocol"
)

// EntityAction is one intent a Controller hands back to the simulator for
// its entity. Controllers never mutate arena state directly; the simulator
// is the only mutator.
type EntityAction interface{ isEntityAction() }

type (
	// Walk asks the entity to step one cell in Direction, subject to
	// collision and its own movement cooldown.
	Walk struct{ Direction protocol.Direction }
	// SetDirection updates the entity's facing without moving it.
	SetDirection struct{ Direction protocol.Direction }
	// Cast asks the simulator to create a spell owned by this entity
	// using the named skill.
	Cast struct{ SkillID int }
	// Destroy sets the entity's health to zero.
	Destroy struct{}
)

func (Walk) isEntityAction()         {}
func (SetDirection) isEntityAction() {}
func (Cast) isEntityAction()         {}
func (Destroy) isEntityAction()      {}

// Controller is the capability object driving one entity's behavior. It
// receives a read-only view of the arena and returns a list of intents;
// it never mutates arena state itself.
type Controller interface {
	Update(now time.Time, self *Entity, m *Map, entities map[EntityID]*Entity) []EntityAction
}

// Entity is a player-controlled (or controller-driven) actor in the
// arena: position, facing, health, energy, and movement speed.
type Entity struct {
	ID       EntityID
	Owner    string // player name that owns this entity, if any
	Template *CharacterTemplate

	Position Position
	Facing   protocol.Direction
	Health   int
	Energy   int

	nextWalkTime time.Time

	Controller Controller
}

func newEntity(id EntityID, owner string, tmpl *CharacterTemplate, pos Position, ctrl Controller) *Entity {
	return &Entity{
		ID:       id,
		Owner:    owner,
		Template: tmpl,
		Position: pos,
		Facing:   protocol.South,
		Health:   tmpl.MaxHealth,
		Energy:   tmpl.Energy,
		Controller: ctrl,
	}
}

// Alive reports whether the entity still has positive health.
func (e *Entity) Alive() bool { return e.Health > 0 }

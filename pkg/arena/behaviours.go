package arena

import (
	"time"

	"asciiarena/pkg/protocol"
)

// ProjectileBehaviour drives a straight-line projectile spell: it moves in
// its current direction at its configured speed, rate-limited by its own
// NextMoveTime, dealing its fixed damage to the first entity it touches
// that hasn't already been affected, and destroying itself on exiting the
// map.
type ProjectileBehaviour struct{}

// NewProjectileBehaviour returns the stock straight-line projectile
// behaviour.
func NewProjectileBehaviour() *ProjectileBehaviour {
	return &ProjectileBehaviour{}
}

// Update asks for a single Move each tick; the simulator itself enforces
// the speed-derived movement cooldown via the spell's NextMoveTime, mirroring
// how Controller.Update's Walk is rate-limited by the entity's
// NextWalkTime.
func (b *ProjectileBehaviour) Update(now time.Time, self *Spell, m *Map, entities map[EntityID]*Entity) []SpellAction {
	return []SpellAction{Move{}}
}

// OnEntityCollision always applies the spell's damage to the first entity
// it touches.
func (b *ProjectileBehaviour) OnEntityCollision(target *Entity) ([]SpellAction, bool) {
	return nil, true
}

// OnDestroyByWallCollision has no extra teardown for a plain projectile.
func (b *ProjectileBehaviour) OnDestroyByWallCollision() []SpellAction {
	return nil
}

var _ Behaviour = (*ProjectileBehaviour)(nil)

// direction delta helper shared by the simulator's walk/move resolution.
func delta(d protocol.Direction) (int, int) {
	return d.Delta()
}

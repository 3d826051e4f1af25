package arena

import (
	"time"

	"asciiarena/pkg/protocol"
)

// Arena is a single bounded match: a map plus the entities and spells
// alive within it. One call to Update advances it by exactly one tick.
type Arena struct {
	Number int
	Map    *Map
	skills SkillTable

	Entities    map[EntityID]*Entity
	entityOrder []EntityID
	nextEntity  EntityID

	Spells    map[SpellID]*Spell
	spellOrder []SpellID
	nextSpell  SpellID

	step int
}

// NewArena builds an empty arena on m for the given skill table. Entities
// are added with SpawnEntity after construction.
func NewArena(number int, m *Map, skills SkillTable) *Arena {
	return &Arena{
		Number:   number,
		Map:      m,
		skills:   skills,
		Entities: make(map[EntityID]*Entity),
		Spells:   make(map[SpellID]*Spell),
	}
}

// SpawnEntity allocates a fresh entity id and adds a new entity at pos,
// owned by owner and driven by ctrl.
func (a *Arena) SpawnEntity(owner string, tmpl *CharacterTemplate, pos Position, ctrl Controller) *Entity {
	a.nextEntity++
	id := a.nextEntity
	e := newEntity(id, owner, tmpl, pos, ctrl)
	a.Entities[id] = e
	a.entityOrder = append(a.entityOrder, id)
	return e
}

func (a *Arena) spawnSpell(owner EntityID, skillID int, pos Position, dir protocol.Direction) (*Spell, bool) {
	spec, ok := a.skills[skillID]
	if !ok {
		return nil, false
	}
	a.nextSpell++
	id := a.nextSpell
	s := newSpell(id, owner, spec, pos, dir, NewProjectileBehaviour())
	a.Spells[id] = s
	a.spellOrder = append(a.spellOrder, id)
	return s, true
}

// HasFinished reports whether the arena has at most one entity left
// standing.
func (a *Arena) HasFinished() bool {
	return len(a.Entities) <= 1
}

// Survivor returns the owner name of the sole remaining entity, if there
// is exactly one.
func (a *Arena) Survivor() (string, bool) {
	if len(a.Entities) != 1 {
		return "", false
	}
	for _, e := range a.Entities {
		return e.Owner, true
	}
	return "", false
}

// Update advances the arena by exactly one tick, per the five-step
// algorithm: garbage-collect last tick's destroyed spells, run the entity
// phase, run the spell phase, then remove anything that died.
func (a *Arena) Update(now time.Time) {
	a.gcDestroyedSpells()
	a.step++

	a.runEntityPhase(now)
	a.runSpellPhase(now)
	a.removeDeadEntities()
}

func (a *Arena) gcDestroyedSpells() {
	kept := make([]SpellID, 0, len(a.spellOrder))
	for _, id := range a.spellOrder {
		s, ok := a.Spells[id]
		if !ok {
			continue
		}
		if s.Destroyed {
			delete(a.Spells, id)
			continue
		}
		kept = append(kept, id)
	}
	a.spellOrder = kept
}

func (a *Arena) runEntityPhase(now time.Time) {
	snapshot := append([]EntityID(nil), a.entityOrder...)

	for _, id := range snapshot {
		entity, ok := a.Entities[id]
		if !ok {
			continue
		}
		queue := entity.Controller.Update(now, entity, a.Map, a.Entities)
		for len(queue) > 0 {
			action := queue[0]
			queue = queue[1:]

			switch act := action.(type) {
			case Walk:
				a.handleWalk(now, entity, act.Direction)
			case SetDirection:
				entity.Facing = act.Direction
			case Cast:
				_, _ = a.spawnSpell(entity.ID, act.SkillID, entity.Position, entity.Facing)
			case Destroy:
				entity.Health = 0
			}
		}
	}
}

func (a *Arena) handleWalk(now time.Time, entity *Entity, dir protocol.Direction) {
	if now.Before(entity.nextWalkTime) {
		return
	}

	dx, dy := dir.Delta()
	target := entity.Position.Add(dx, dy)

	if !a.Map.Walkable(target) || a.entityAt(target) != nil {
		entity.Facing = dir
		return
	}

	entity.Facing = dir
	entity.Position = target
	speed := entity.Template.Speed
	if speed <= 0 {
		speed = 1
	}
	entity.nextWalkTime = now.Add(time.Duration(float64(time.Second) / speed))
}

func (a *Arena) entityAt(pos Position) *Entity {
	for _, e := range a.Entities {
		if e.Alive() && e.Position == pos {
			return e
		}
	}
	return nil
}

func (a *Arena) runSpellPhase(now time.Time) {
	snapshot := append([]SpellID(nil), a.spellOrder...)

	for _, id := range snapshot {
		spell, ok := a.Spells[id]
		if !ok || spell.Destroyed {
			continue
		}
		queue := spell.Behaviour.Update(now, spell, a.Map, a.Entities)
		for len(queue) > 0 {
			action := queue[0]
			queue = queue[1:]

			switch act := action.(type) {
			case Move:
				if !spell.Destroyed {
					queue = a.handleSpellMove(now, spell, queue)
				}
			case SetSpeed:
				spell.Speed = act.Speed
			case SetSpellDirection:
				spell.Direction = act.Direction
			case CastSub:
				for _, spawn := range act.Specs {
					_, _ = a.spawnSpell(spell.OwnerID, spawn.SpecID, spawn.Position, spawn.Direction)
				}
			case CreateSub:
				for _, spawn := range act.Specs {
					a.SpawnEntity(spawn.Owner, spawn.Template, spawn.Position, NewPlayerController())
				}
			case DestroySpell:
				spell.Destroyed = true
			}
		}
	}
}

func (a *Arena) handleSpellMove(now time.Time, spell *Spell, queue []SpellAction) []SpellAction {
	if now.Before(spell.nextMoveTime) {
		return queue
	}

	speed := spell.Speed
	if speed <= 0 {
		speed = 1
	}
	spell.nextMoveTime = now.Add(time.Duration(float64(time.Second) / speed))

	dx, dy := spell.Direction.Delta()
	target := spell.Position.Add(dx, dy)

	if !a.Map.InBounds(target) {
		spell.Destroyed = true
		return append(queue, spell.Behaviour.OnDestroyByWallCollision()...)
	}

	spell.Position = target

	if hit := a.entityAt(target); hit != nil && !spell.Affected[hit.ID] {
		acts, affect := spell.Behaviour.OnEntityCollision(hit)
		if affect {
			hit.Health -= spell.Damage
			spell.Affected[hit.ID] = true
		}
		queue = append(queue, acts...)
	}
	return queue
}

func (a *Arena) removeDeadEntities() {
	kept := make([]EntityID, 0, len(a.entityOrder))
	for _, id := range a.entityOrder {
		e, ok := a.Entities[id]
		if !ok {
			continue
		}
		if !e.Alive() {
			delete(a.Entities, id)
			continue
		}
		kept = append(kept, id)
	}
	a.entityOrder = kept
}

// Delta builds the per-tick broadcast payload reflecting the arena's state
// after Update has just run.
func (a *Arena) Delta() protocol.ArenaDelta {
	delta := protocol.ArenaDelta{Step: a.step}
	for _, id := range a.entityOrder {
		e := a.Entities[id]
		delta.Entities = append(delta.Entities, protocol.EntityDelta{
			ID:     uint64(e.ID),
			X:      e.Position.X,
			Y:      e.Position.Y,
			Facing: e.Facing,
			Health: e.Health,
		})
	}
	for _, id := range a.spellOrder {
		s := a.Spells[id]
		delta.Spells = append(delta.Spells, protocol.SpellDelta{
			ID:        uint64(s.ID),
			SpecID:    s.SpecID,
			X:         s.Position.X,
			Y:         s.Position.Y,
			Destroyed: s.Destroyed,
		})
	}
	return delta
}

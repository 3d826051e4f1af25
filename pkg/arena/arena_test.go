package arena

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asciiarena/pkg/protocol"
)

// scriptedController returns a fixed slice of actions exactly once, then
// nothing, so tests can drive one entity's behavior deterministically.
type scriptedController struct {
	actions []EntityAction
	used    bool
}

func (c *scriptedController) Update(now time.Time, self *Entity, m *Map, entities map[EntityID]*Entity) []EntityAction {
	if c.used {
		return nil
	}
	c.used = true
	return c.actions
}

func newTestArena(t *testing.T, size int) *Arena {
	t.Helper()
	m := NewMap(size, 2)
	return NewArena(1, m, DefaultSkillTable())
}

func TestWalkIntoWall_PositionUnchangedFacingUpdated(t *testing.T) {
	a := newTestArena(t, 5)
	ctrl := &scriptedController{actions: []EntityAction{Walk{Direction: protocol.North}}}
	e := a.SpawnEntity("A", defaultTemplate, Position{X: 1, Y: 1}, ctrl)

	a.Update(time.Unix(0, 0))

	assert.Equal(t, Position{X: 1, Y: 1}, e.Position)
	assert.Equal(t, protocol.North, e.Facing)
}

func TestWalkAccepted_UpdatesPositionAndCooldown(t *testing.T) {
	a := newTestArena(t, 5)
	ctrl := &scriptedController{actions: []EntityAction{Walk{Direction: protocol.East}}}
	e := a.SpawnEntity("A", defaultTemplate, Position{X: 1, Y: 1}, ctrl)

	start := time.Unix(0, 0)
	a.Update(start)

	assert.Equal(t, Position{X: 2, Y: 1}, e.Position)
	assert.True(t, e.nextWalkTime.After(start))
}

func TestWalkBeforeNextWalkTime_Rejected(t *testing.T) {
	a := newTestArena(t, 5)
	e := a.SpawnEntity("A", defaultTemplate, Position{X: 1, Y: 1}, NewPlayerController())
	ctrl := e.Controller.(*PlayerController)

	start := time.Unix(0, 0)
	ctrl.QueueMove(protocol.East)
	a.Update(start)
	require.Equal(t, Position{X: 2, Y: 1}, e.Position)

	// Immediately queue another move before the cooldown elapses.
	ctrl.QueueMove(protocol.East)
	a.Update(start)
	assert.Equal(t, Position{X: 2, Y: 1}, e.Position, "walk issued before next_walk_time must be rejected")
}

func TestWalkIntoOccupiedCell_Rejected(t *testing.T) {
	a := newTestArena(t, 6)
	blocker := a.SpawnEntity("B", defaultTemplate, Position{X: 2, Y: 1}, &scriptedController{})
	_ = blocker
	ctrl := &scriptedController{actions: []EntityAction{Walk{Direction: protocol.East}}}
	e := a.SpawnEntity("A", defaultTemplate, Position{X: 1, Y: 1}, ctrl)

	a.Update(time.Unix(0, 0))

	assert.Equal(t, Position{X: 1, Y: 1}, e.Position)
}

func TestSpellEntityCollision_DamageAppliedOnce(t *testing.T) {
	a := newTestArena(t, 10)
	target := a.SpawnEntity("T", defaultTemplate, Position{X: 3, Y: 3}, &scriptedController{})
	target.Health = 5

	spell, ok := a.spawnSpell(NoneEntity, 1, Position{X: 2, Y: 3}, protocol.East)
	require.True(t, ok)
	spell.Damage = 2

	a.Update(time.Unix(0, 0))
	assert.Equal(t, 3, target.Health)
	assert.True(t, spell.Affected[target.ID])

	// Force another move onto the same cell; damage must not apply twice.
	spell.Position = Position{X: 2, Y: 3}
	spell.nextMoveTime = time.Time{}
	a.Update(time.Unix(1, 0))
	assert.Equal(t, 3, target.Health, "same spell must not damage the same entity twice")
}

func TestSpellDestroyedOnWallExit_SameTickItWasCreated(t *testing.T) {
	a := newTestArena(t, 4) // valid grid indices are 0..3
	ctrl := &scriptedController{actions: []EntityAction{Cast{SkillID: 2}}}
	e := a.SpawnEntity("A", defaultTemplate, Position{X: 3, Y: 1}, ctrl)
	e.Facing = protocol.East

	a.Update(time.Unix(0, 0))

	require.Len(t, a.Spells, 1)
	for _, s := range a.Spells {
		assert.True(t, s.Destroyed, "spell stepping from x=3 to x=4 on a size-4 grid must exit bounds and be destroyed")
	}
}

func TestDestroyedSpellsGarbageCollectedNextTick(t *testing.T) {
	a := newTestArena(t, 4)
	ctrl := &scriptedController{actions: []EntityAction{Cast{SkillID: 2}}}
	e := a.SpawnEntity("A", defaultTemplate, Position{X: 3, Y: 1}, ctrl)
	e.Facing = protocol.East

	a.Update(time.Unix(0, 0))
	require.Len(t, a.Spells, 1)

	a.Update(time.Unix(1, 0))
	assert.Empty(t, a.Spells, "destroyed spells must be gone by the end of the next tick")
}

func TestNoTwoEntitiesShareACell(t *testing.T) {
	a := newTestArena(t, 5)
	ctrlA := &scriptedController{actions: []EntityAction{Walk{Direction: protocol.East}}}
	a.SpawnEntity("A", defaultTemplate, Position{X: 1, Y: 1}, ctrlA)
	a.SpawnEntity("B", defaultTemplate, Position{X: 2, Y: 1}, &scriptedController{})

	a.Update(time.Unix(0, 0))

	positions := make(map[Position]int)
	for _, e := range a.Entities {
		positions[e.Position]++
	}
	for pos, count := range positions {
		assert.LessOrEqualf(t, count, 1, "position %v occupied by more than one entity", pos)
	}
}

func TestEntityAndSpellIDsAreUniqueAndIncreasing(t *testing.T) {
	a := newTestArena(t, 10)
	e1 := a.SpawnEntity("A", defaultTemplate, Position{X: 1, Y: 1}, &scriptedController{})
	e2 := a.SpawnEntity("B", defaultTemplate, Position{X: 2, Y: 2}, &scriptedController{})
	assert.Less(t, e1.ID, e2.ID)

	s1, _ := a.spawnSpell(NoneEntity, 1, Position{X: 1, Y: 1}, protocol.East)
	s2, _ := a.spawnSpell(NoneEntity, 1, Position{X: 1, Y: 1}, protocol.East)
	assert.Less(t, s1.ID, s2.ID)
}

func TestHasFinished_SingleSurvivor(t *testing.T) {
	a := newTestArena(t, 5)
	a.SpawnEntity("A", defaultTemplate, Position{X: 1, Y: 1}, &scriptedController{})
	assert.True(t, a.HasFinished())

	winner, ok := a.Survivor()
	require.True(t, ok)
	assert.Equal(t, "A", winner)
}

func TestDeadEntitiesRemovedAtEndOfTick(t *testing.T) {
	a := newTestArena(t, 5)
	victim := a.SpawnEntity("A", defaultTemplate, Position{X: 1, Y: 1}, &scriptedController{actions: []EntityAction{Destroy{}}})
	a.SpawnEntity("B", defaultTemplate, Position{X: 2, Y: 2}, &scriptedController{})

	a.Update(time.Unix(0, 0))

	_, alive := a.Entities[victim.ID]
	assert.False(t, alive)
}

package arena

import (
	"sync"
	"time"

	"asciiarena/pkg/protocol"
)

// PlayerController translates queued network input (Move/Skill requests
// forwarded by the server orchestrator) into EntityActions. It holds no
// direct reference to arena state; it only drains its own input queue.
type PlayerController struct {
	mu    sync.Mutex
	moves []protocol.Direction
	casts []int
}

// NewPlayerController returns an empty PlayerController.
func NewPlayerController() *PlayerController {
	return &PlayerController{}
}

// QueueMove records a pending Move request from the network layer.
func (c *PlayerController) QueueMove(dir protocol.Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moves = append(c.moves, dir)
}

// QueueSkill records a pending Skill request from the network layer.
func (c *PlayerController) QueueSkill(skillID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.casts = append(c.casts, skillID)
}

// Update drains any queued input into EntityActions. Called once per tick
// per entity by the simulator.
func (c *PlayerController) Update(now time.Time, self *Entity, m *Map, entities map[EntityID]*Entity) []EntityAction {
	c.mu.Lock()
	moves, casts := c.moves, c.casts
	c.moves, c.casts = nil, nil
	c.mu.Unlock()

	actions := make([]EntityAction, 0, len(moves)+len(casts))
	for _, dir := range moves {
		actions = append(actions, Walk{Direction: dir})
	}
	for _, skillID := range casts {
		actions = append(actions, Cast{SkillID: skillID})
	}
	return actions
}

package arena

import (
	"sort"
	"time"
)

// Game is a sequence of arenas played to accumulate points until
// WinnerPoints is reached.
type Game struct {
	WinnerPoints int
	MapSize      int
	Skills       SkillTable
	Roster       *Roster

	Scores map[string]int

	Current      *Arena
	arenaNumber  int
	controllers  map[string]*PlayerController
}

// NewGame creates a game that will be played to winnerPoints, using
// mapSize x mapSize arenas populated from roster.
func NewGame(winnerPoints, mapSize int, roster *Roster) *Game {
	return &Game{
		WinnerPoints: winnerPoints,
		MapSize:      mapSize,
		Skills:       DefaultSkillTable(),
		Roster:       roster,
		Scores:       make(map[string]int),
		controllers:  make(map[string]*PlayerController),
	}
}

// Controller returns the PlayerController the orchestrator should forward
// a player's Move/Skill input into, creating one on first use.
func (g *Game) Controller(name string) *PlayerController {
	c, ok := g.controllers[name]
	if !ok {
		c = NewPlayerController()
		g.controllers[name] = c
	}
	return c
}

// CreateNewArena starts a fresh arena populated with one entity per name
// in players, placed at the map's spawn points in order.
func (g *Game) CreateNewArena(players []string) *Arena {
	g.arenaNumber++
	m := NewMap(g.MapSize, len(players))
	a := NewArena(g.arenaNumber, m, g.Skills)

	for i, name := range players {
		tmpl := g.Roster.Template(name)
		pos := m.Spawns[i%len(m.Spawns)]
		a.SpawnEntity(name, tmpl, pos, g.Controller(name))
	}

	g.Current = a
	return a
}

// Step advances the current arena by one tick and, if it just finished,
// awards a point to its sole survivor.
func (g *Game) Step(now time.Time) {
	if g.Current == nil {
		return
	}
	g.Current.Update(now)

	if g.Current.HasFinished() {
		if winner, ok := g.Current.Survivor(); ok {
			g.Scores[winner]++
		}
	}
}

// HasFinished reports whether any player has reached WinnerPoints.
func (g *Game) HasFinished() bool {
	for _, score := range g.Scores {
		if score >= g.WinnerPoints {
			return true
		}
	}
	return false
}

// Leaderboard returns player names sorted by descending score, then name.
func (g *Game) Leaderboard() []string {
	names := make([]string, 0, len(g.Scores))
	for name := range g.Scores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if g.Scores[names[i]] != g.Scores[names[j]] {
			return g.Scores[names[i]] > g.Scores[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

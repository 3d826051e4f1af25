package arena

// Tile is a single cell of the arena grid.
type Tile struct {
	Walkable bool
}

// Map is a size x size grid of tiles. Cells on the border are walls; the
// interior is passable. A Map also carries the fixed spawn points its
// arena will place one entity at per player.
type Map struct {
	Size    int
	Tiles   [][]Tile
	Spawns  []Position
}

// NewMap builds a square arena map of the given size with walls along the
// border and spawnCount spawn points spread evenly around the interior
// perimeter, one per expected player.
func NewMap(size, spawnCount int) *Map {
	if size < 3 {
		size = 3
	}

	tiles := make([][]Tile, size)
	for y := 0; y < size; y++ {
		tiles[y] = make([]Tile, size)
		for x := 0; x < size; x++ {
			border := x == 0 || y == 0 || x == size-1 || y == size-1
			tiles[y][x] = Tile{Walkable: !border}
		}
	}

	m := &Map{Size: size, Tiles: tiles}
	m.Spawns = evenSpawnPoints(size, spawnCount)
	return m
}

// evenSpawnPoints places spawnCount points around the interior perimeter of
// a size x size map, spaced as evenly as the perimeter allows.
func evenSpawnPoints(size, spawnCount int) []Position {
	if spawnCount <= 0 {
		return nil
	}

	inner := size - 2
	if inner < 1 {
		inner = 1
	}
	perimeter := make([]Position, 0, 4*inner)
	for x := 1; x <= inner; x++ {
		perimeter = append(perimeter, Position{X: x, Y: 1})
	}
	for y := 2; y <= inner; y++ {
		perimeter = append(perimeter, Position{X: inner, Y: y})
	}
	for x := inner - 1; x >= 1; x-- {
		perimeter = append(perimeter, Position{X: x, Y: inner})
	}
	for y := inner - 1; y >= 2; y-- {
		perimeter = append(perimeter, Position{X: 1, Y: y})
	}
	if len(perimeter) == 0 {
		perimeter = append(perimeter, Position{X: 1, Y: 1})
	}

	spawns := make([]Position, spawnCount)
	for i := 0; i < spawnCount; i++ {
		spawns[i] = perimeter[(i*len(perimeter))/spawnCount]
	}
	return spawns
}

// InBounds reports whether p falls within the map's grid.
func (m *Map) InBounds(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.Size && p.Y < m.Size
}

// Walkable reports whether p is both in bounds and a passable tile.
func (m *Map) Walkable(p Position) bool {
	if !m.InBounds(p) {
		return false
	}
	return m.Tiles[p.Y][p.X].Walkable
}

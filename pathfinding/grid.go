package pathfinding

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jakecoffman/cp"
)

// ErrInvalidConfig marks configuration errors reported at construction.
var ErrInvalidConfig = errors.New("pathfinding: invalid configuration")

// Coord is a cell's column/row in the grid.
type Coord struct {
	X int
	Y int
}

func (c Coord) Add(o Coord) Coord {
	return Coord{X: c.X + o.X, Y: c.Y + o.Y}
}

// Cell is one tile of the walkability grid. Search state lives in Scratch,
// not here.
type Cell struct {
	Coord    Coord
	World    cp.Vector
	Walkable bool
}

type GridConfig struct {
	Width    int
	Height   int
	CellSize float64
	// Anchor is the world point the grid is centered on.
	Anchor   cp.Vector
	Sampling Sampling
}

// Grid partitions a rectangular world region into square cells classified
// walkable or blocked against an obstacle predicate.
type Grid struct {
	width    int
	height   int
	cellSize float64
	origin   cp.Vector
	sampling Sampling

	obstacles Obstacles
	cells     []Cell
	walkable  int
}

func NewGrid(cfg GridConfig, obstacles Obstacles) (*Grid, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("pathfinding: grid size %dx%d: %w", cfg.Width, cfg.Height, ErrInvalidConfig)
	}
	if !(cfg.CellSize > 0) || math.IsInf(cfg.CellSize, 0) {
		return nil, fmt.Errorf("pathfinding: cell size %v: %w", cfg.CellSize, ErrInvalidConfig)
	}
	if obstacles == nil {
		return nil, fmt.Errorf("pathfinding: nil obstacle predicate: %w", ErrInvalidConfig)
	}
	sampling := cfg.Sampling.withDefaults(cfg.CellSize)
	if err := sampling.validate(); err != nil {
		return nil, err
	}

	half := cp.Vector{X: float64(cfg.Width), Y: float64(cfg.Height)}.Mult(cfg.CellSize * 0.5)
	g := &Grid{
		width:     cfg.Width,
		height:    cfg.Height,
		cellSize:  cfg.CellSize,
		origin:    cfg.Anchor.Sub(half),
		sampling:  sampling,
		obstacles: obstacles,
		cells:     make([]Cell, cfg.Width*cfg.Height),
	}
	g.build()
	return g, nil
}

func (g *Grid) build() {
	g.walkable = 0
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := Coord{X: x, Y: y}
			world := g.GridToWorld(c)
			ok := g.sampling.walkable(g.obstacles, world, g.cellSize)
			if ok {
				g.walkable++
			}
			g.cells[y*g.width+x] = Cell{Coord: c, World: world, Walkable: ok}
		}
	}
}

// Rebuild reclassifies every cell in place. Dimensions, and therefore cell
// indices held by a Field, are unchanged.
func (g *Grid) Rebuild() {
	clear(g.cells)
	g.build()
}

// SetObstacles swaps the predicate and rebuilds.
func (g *Grid) SetObstacles(obstacles Obstacles) {
	if obstacles == nil {
		return
	}
	g.obstacles = obstacles
	g.Rebuild()
}

func (g *Grid) Width() int { return g.width }
func (g *Grid) Height() int { return g.height }
func (g *Grid) Len() int { return len(g.cells) }
func (g *Grid) CellSize() float64 { return g.cellSize }
func (g *Grid) Origin() cp.Vector { return g.origin }
func (g *Grid) Sampling() Sampling { return g.sampling }
func (g *Grid) Obstacles() Obstacles { return g.obstacles }
func (g *Grid) WalkableCount() int { return g.walkable }
func (g *Grid) InBounds(c Coord) bool { return c.X >= 0 && c.Y >= 0 && c.X < g.width && c.Y < g.height }
func (g *Grid) Index(c Coord) int { return c.Y*g.width + c.X }
func (g *Grid) CoordAt(i int) Coord { return Coord{X: i % g.width, Y: i / g.width} }
func (g *Grid) CellAt(i int) Cell { return g.cells[i] }
func (g *Grid) worldAt(i int) cp.Vector { return g.cells[i].World }

func (g *Grid) Cell(c Coord) (Cell, bool) {
	if !g.InBounds(c) {
		return Cell{}, false
	}
	return g.cells[g.Index(c)], true
}

// Walkable reports false for out-of-bounds coordinates.
func (g *Grid) Walkable(c Coord) bool {
	return g.InBounds(c) && g.cells[g.Index(c)].Walkable
}

func (g *Grid) IsWalkable(p cp.Vector) bool {
	return g.Walkable(g.WorldToGrid(p))
}

func (g *Grid) WorldToGrid(p cp.Vector) Coord {
	rel := p.Sub(g.origin)
	return Coord{
		X: int(math.Floor(rel.X / g.cellSize)),
		Y: int(math.Floor(rel.Y / g.cellSize)),
	}
}

// CellMin returns the world position of the cell's minimum corner.
func (g *Grid) CellMin(c Coord) cp.Vector {
	return g.origin.Add(cp.Vector{X: float64(c.X), Y: float64(c.Y)}.Mult(g.cellSize))
}

// GridToWorld returns the cell center.
func (g *Grid) GridToWorld(c Coord) cp.Vector {
	half := g.cellSize * 0.5
	return g.CellMin(c).Add(cp.Vector{X: half, Y: half})
}

// String renders the grid row by row, '.' walkable and '#' blocked.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow((g.width + 1) * g.height)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.cells[y*g.width+x].Walkable {
				b.WriteByte('.')
			} else {
				b.WriteByte('#')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

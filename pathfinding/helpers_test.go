package pathfinding

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

// tileMap blocks whole unit cells marked '#'; row 0 is y in [0,1).
type tileMap []string

func (m tileMap) IsBlocked(p cp.Vector) bool {
	x := int(math.Floor(p.X))
	y := int(math.Floor(p.Y))
	if y < 0 || y >= len(m) || x < 0 || x >= len(m[y]) {
		return false
	}
	return m[y][x] == '#'
}

func (m tileMap) IsBlockedRegion(p cp.Vector, s Shape) bool {
	return ObstacleFunc(m.IsBlocked).IsBlockedRegion(p, s)
}

// blindObstacles never blocks a cell but blocks every line of sight.
type blindObstacles struct{}

func (blindObstacles) IsBlocked(cp.Vector) bool { return false }
func (blindObstacles) IsBlockedRegion(cp.Vector, Shape) bool { return false }
func (blindObstacles) SegmentBlocked(a, b cp.Vector) bool { return true }

// countingObstacles records how many point tests were made.
type countingObstacles struct {
	blocked bool
	calls   int
}

func (c *countingObstacles) IsBlocked(cp.Vector) bool {
	c.calls++
	return c.blocked
}

func (c *countingObstacles) IsBlockedRegion(cp.Vector, Shape) bool {
	c.calls++
	return c.blocked
}

// unitGrid builds a grid of unit cells whose origin is the world origin, so
// cell (x, y) covers [x, x+1) x [y, y+1).
func unitGrid(t *testing.T, w, h int, obs Obstacles) *Grid {
	t.Helper()
	g, err := NewGrid(GridConfig{
		Width:    w,
		Height:   h,
		CellSize: 1,
		Anchor:   cp.Vector{X: float64(w) / 2, Y: float64(h) / 2},
		Sampling: Sampling{Mode: SamplePoint},
	}, obs)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func mapGrid(t *testing.T, rows tileMap) *Grid {
	t.Helper()
	return unitGrid(t, len(rows[0]), len(rows), rows)
}

func openRows(w, h int) tileMap {
	rows := make(tileMap, h)
	for y := range rows {
		b := make([]byte, w)
		for x := range b {
			b[x] = '.'
		}
		rows[y] = string(b)
	}
	return rows
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func octile(a, b Coord) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	return math.Max(dx, dy) + (math.Sqrt2-1)*math.Min(dx, dy)
}

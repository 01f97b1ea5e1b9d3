package pathfinding

import (
	"math"

	"github.com/jakecoffman/cp"
)

const DefaultFallbackRadius = 10

type QueryConfig struct {
	Smooth bool
	// CornerCut rounds turns sharper than 45 degrees by this distance; 0 disables it.
	CornerCut float64
	// FallbackRadius bounds the ring search for a walkable cell; 0 means the default.
	FallbackRadius int
}

type QueryOption func(*Query)

func WithQueryMetrics(m *Metrics) QueryOption {
	return func(q *Query) { q.metrics = m }
}

// Query is the agent-facing side of the field: world position in, waypoints out.
type Query struct {
	grid    *Grid
	field   *Field
	cfg     QueryConfig
	metrics *Metrics
}

func NewQuery(field *Field, cfg QueryConfig, opts ...QueryOption) *Query {
	if cfg.FallbackRadius <= 0 {
		cfg.FallbackRadius = DefaultFallbackRadius
	}
	q := &Query{grid: field.Grid(), field: field, cfg: cfg}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Query) Config() QueryConfig { return q.cfg }
func (q *Query) Field() *Field { return q.field }
func (q *Query) Grid() *Grid { return q.grid }

func (q *Query) SetSmooth(smooth bool) { q.cfg.Smooth = smooth }
func (q *Query) SetCornerCut(dist float64) { q.cfg.CornerCut = math.Max(dist, 0) }
func (q *Query) IsWalkable(p cp.Vector) bool { return q.grid.IsWalkable(p) }

func (q *Query) WorldToGrid(p cp.Vector) Coord { return q.grid.WorldToGrid(p) }
func (q *Query) GridToWorld(c Coord) cp.Vector { return q.grid.GridToWorld(c) }
func (q *Query) RebuildGrid() { q.grid.Rebuild() }
func (q *Query) Cost(p cp.Vector) float64 { return q.field.Cost(q.grid.WorldToGrid(p)) }
func (q *Query) CostAt(c Coord) float64 { return q.field.Cost(c) }
func (q *Query) NextStep(c Coord) (Coord, bool) { return q.field.Next(c) }
func (q *Query) Generation() uint64 { return q.field.Generation() }

// Resolve maps p to its cell, or to the nearest walkable cell found in
// square rings of radius 1..FallbackRadius when that cell is off the grid
// or blocked.
func (q *Query) Resolve(p cp.Vector) (Coord, bool) {
	c := q.grid.WorldToGrid(p)
	if q.grid.Walkable(c) {
		return c, true
	}
	return q.nearestWalkable(c)
}

func (q *Query) nearestWalkable(from Coord) (Coord, bool) {
	for r := 1; r <= q.cfg.FallbackRadius; r++ {
		for x := -r; x <= r; x++ {
			for y := -r; y <= r; y++ {
				if abs(x) != r && abs(y) != r {
					continue
				}
				c := Coord{X: from.X + x, Y: from.Y + y}
				if q.grid.Walkable(c) {
					return c, true
				}
			}
		}
	}
	return Coord{}, false
}

// GetPathFrom returns waypoints from the step after p's cell up to the
// target. An empty result means no path is available right now: p is too
// far from any walkable cell, its cell was not reached by the last pass, or
// it already sits on the target.
func (q *Query) GetPathFrom(p cp.Vector) []cp.Vector {
	start, ok := q.Resolve(p)
	if !ok {
		if q.grid.InBounds(q.grid.WorldToGrid(p)) {
			q.metrics.observeQuery(ResultNoWalkable)
		} else {
			q.metrics.observeQuery(ResultOffGrid)
		}
		return nil
	}

	var raw []cp.Vector
	result := ResultOK
	q.field.Snapshot(func(s *Scratch) {
		i := q.grid.Index(start)
		if math.IsInf(s.Cost[i], 1) {
			result = ResultUnreached
			return
		}
		// Prev links form a tree rooted at the target; the bound only
		// protects against a corrupted scratch.
		for cur, n := s.Prev[i], 0; cur != noPrev && n < len(s.Prev); cur, n = s.Prev[cur], n+1 {
			raw = append(raw, q.grid.worldAt(int(cur)))
		}
	})
	if result == ResultOK && len(raw) == 0 {
		result = ResultAtTarget
	}
	q.metrics.observeQuery(result)
	if len(raw) == 0 {
		return nil
	}

	path := raw
	if q.cfg.Smooth {
		path = q.smooth(p, raw)
	}
	if q.cfg.CornerCut > 0 {
		path = cutCorners(path, q.cfg.CornerCut, q.grid.IsWalkable)
	}
	return path
}

// RawPathLength counts predecessor steps from c without building waypoints.
func (q *Query) RawPathLength(c Coord) int {
	if !q.grid.InBounds(c) {
		return 0
	}
	n := 0
	q.field.Snapshot(func(s *Scratch) {
		for cur := s.Prev[q.grid.Index(c)]; cur != noPrev && n < len(s.Prev); cur = s.Prev[cur] {
			n++
		}
	})
	return n
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

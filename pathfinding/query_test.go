package pathfinding

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestQueryEndToEndOpenGrid(t *testing.T) {
	cases := []struct {
		name     string
		diagonal bool
		wantCost float64
	}{
		{"orthogonal", false, 10},
		{"diagonal", true, 5 * math.Sqrt2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := unitGrid(t, 10, 10, tileMap{})
			f := NewField(g, FieldConfig{Diagonal: c.diagonal})
			q := NewQuery(f, QueryConfig{})
			target := Coord{X: 5, Y: 5}
			f.Compute(target)

			agent := cp.Vector{X: 0, Y: 0}
			start := q.WorldToGrid(agent)
			if start != (Coord{}) {
				t.Fatalf("agent resolves to %v, want (0,0)", start)
			}

			path := q.GetPathFrom(agent)
			if len(path) == 0 {
				t.Fatalf("expected a path")
			}
			last := path[len(path)-1]
			if d := last.Distance(g.GridToWorld(target)); d > g.CellSize()*math.Sqrt2 {
				t.Fatalf("last waypoint %v is %.2f from the target cell", last, d)
			}
			if len(path) != q.RawPathLength(start) {
				t.Fatalf("unsmoothed path has %d waypoints, chain has %d", len(path), q.RawPathLength(start))
			}

			sum := 0.0
			for cur := start; cur != target; {
				next, ok := q.NextStep(cur)
				if !ok {
					t.Fatalf("chain broke at %v", cur)
				}
				if next.X != cur.X && next.Y != cur.Y {
					sum += math.Sqrt2
				} else {
					sum += 1
				}
				cur = next
			}
			if !almostEqual(sum, c.wantCost) || !almostEqual(q.CostAt(start), c.wantCost) {
				t.Fatalf("step sum %v, cost %v, want %v", sum, q.CostAt(start), c.wantCost)
			}
		})
	}
}

func TestQueryFallbackToNearestWalkable(t *testing.T) {
	rows := tileMap{
		".........",
		".#####...",
		".#####...",
		".####....",
		".#####...",
		".#####...",
		".........",
	}
	g := mapGrid(t, rows)
	f := NewField(g, FieldConfig{Diagonal: true})
	q := NewQuery(f, QueryConfig{})
	f.Compute(Coord{X: 8, Y: 6})

	from := g.GridToWorld(Coord{X: 3, Y: 3})
	if q.IsWalkable(from) {
		t.Fatalf("query point should be inside a blocked cell")
	}
	resolved, ok := q.Resolve(from)
	if !ok || resolved != (Coord{X: 5, Y: 3}) {
		t.Fatalf("Resolve = %v, %v; want (5,3)", resolved, ok)
	}

	path := q.GetPathFrom(from)
	if len(path) == 0 {
		t.Fatalf("expected a path anchored at the fallback cell")
	}
	next, ok := q.NextStep(resolved)
	if !ok {
		t.Fatalf("fallback cell has no next step")
	}
	if path[0] != g.GridToWorld(next) {
		t.Fatalf("first waypoint %v, want next step of fallback cell %v", path[0], g.GridToWorld(next))
	}
}

func TestQueryEmptyResults(t *testing.T) {
	rows := tileMap{
		".......",
		".#####.",
		".#...#.",
		".#.#.#.",
		".#...#.",
		".#####.",
		".......",
	}
	g := mapGrid(t, rows)
	f := NewField(g, FieldConfig{Diagonal: true})
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	q := NewQuery(f, QueryConfig{Smooth: true, FallbackRadius: 1}, WithQueryMetrics(m))
	target := Coord{X: 0, Y: 0}
	f.Compute(target)

	cases := []struct {
		name   string
		from   cp.Vector
		result string
	}{
		{"inside_sealed_room", g.GridToWorld(Coord{X: 2, Y: 2}), ResultUnreached},
		{"blocked_pillar_falls_back_into_room", g.GridToWorld(Coord{X: 3, Y: 3}), ResultUnreached},
		{"far_off_grid", cp.Vector{X: -50, Y: -50}, ResultOffGrid},
		{"on_target", g.GridToWorld(target), ResultAtTarget},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			before := testutil.ToFloat64(m.queries.WithLabelValues(c.result))
			if path := q.GetPathFrom(c.from); len(path) != 0 {
				t.Fatalf("expected empty path, got %v", path)
			}
			if got := testutil.ToFloat64(m.queries.WithLabelValues(c.result)); got != before+1 {
				t.Fatalf("%s counter = %v, want %v", c.result, got, before+1)
			}
		})
	}
}

func TestQueryNoWalkableWithinRadius(t *testing.T) {
	rows := make(tileMap, 25)
	for y := range rows {
		row := []byte("#########################")
		if y == 0 {
			row[0] = '.'
		}
		rows[y] = string(row)
	}
	g := mapGrid(t, rows)
	f := NewField(g, FieldConfig{})
	m := NewMetrics(prometheus.NewRegistry())
	q := NewQuery(f, QueryConfig{}, WithQueryMetrics(m))
	f.Compute(Coord{X: 0, Y: 0})

	if _, ok := q.Resolve(g.GridToWorld(Coord{X: 20, Y: 20})); ok {
		t.Fatalf("no walkable cell lies within 10 rings of (20,20)")
	}
	if path := q.GetPathFrom(g.GridToWorld(Coord{X: 20, Y: 20})); len(path) != 0 {
		t.Fatalf("expected empty path, got %v", path)
	}
	if got := testutil.ToFloat64(m.queries.WithLabelValues(ResultNoWalkable)); got != 1 {
		t.Fatalf("no_walkable counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.queries.WithLabelValues(ResultOffGrid)); got != 0 {
		t.Fatalf("in-grid failure counted as off_grid %v times", got)
	}
	if c, ok := q.Resolve(g.GridToWorld(Coord{X: 5, Y: 5})); !ok || c != (Coord{}) {
		t.Fatalf("Resolve from (5,5) = %v, %v; want (0,0)", c, ok)
	}
}

func TestQueryNeverStartsInBlockedCell(t *testing.T) {
	rows := tileMap{
		"..........",
		"..####....",
		"..#..#....",
		"..#..###..",
		"..........",
		"...#......",
	}
	g := mapGrid(t, rows)
	f := NewField(g, FieldConfig{Diagonal: true})
	q := NewQuery(f, QueryConfig{})
	target := Coord{X: 9, Y: 0}
	f.Compute(target)

	for i := 0; i < g.Len(); i++ {
		c := g.CoordAt(i)
		path := q.GetPathFrom(g.GridToWorld(c))
		if len(path) == 0 {
			continue
		}
		if !q.IsWalkable(path[0]) {
			t.Fatalf("path from %v starts in blocked cell %v", c, path[0])
		}
		for _, p := range path {
			if !q.IsWalkable(p) && q.WorldToGrid(p) != target {
				t.Fatalf("path from %v crosses blocked cell %v", c, p)
			}
		}
	}
}

func TestQueryMetricsCountPasses(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	g := mapGrid(t, openRows(6, 6))
	f := NewField(g, FieldConfig{}, WithFieldMetrics(m))
	f.Compute(Coord{X: 1, Y: 1})
	f.Compute(Coord{X: 4, Y: 4})

	if got := testutil.ToFloat64(m.passes); got != 2 {
		t.Fatalf("passes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.reached); got != 36 {
		t.Fatalf("reached = %v, want 36", got)
	}
	if got := testutil.ToFloat64(m.generation); got != 2 {
		t.Fatalf("generation = %v, want 2", got)
	}

	var nilMetrics *Metrics
	nilMetrics.observeQuery(ResultOK)
}

package pathfinding

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

func TestSmoothNeverLengthens(t *testing.T) {
	layouts := []tileMap{
		openRows(12, 8),
		{
			"............",
			"....#.......",
			"....#...#...",
			"....#...#...",
			"........#...",
			"..####..#...",
			"............",
			"............",
		},
	}
	for li, rows := range layouts {
		g := mapGrid(t, rows)
		f := NewField(g, FieldConfig{Diagonal: true})
		f.Compute(Coord{X: 11, Y: 0})
		raw := NewQuery(f, QueryConfig{})
		smooth := NewQuery(f, QueryConfig{Smooth: true})

		for i := 0; i < g.Len(); i++ {
			from := g.GridToWorld(g.CoordAt(i))
			r := raw.GetPathFrom(from)
			s := smooth.GetPathFrom(from)
			if len(s) > len(r) {
				t.Fatalf("layout %d from %v: smoothed %d > raw %d", li, from, len(s), len(r))
			}
			if len(r) > 0 && s[len(s)-1] != r[len(r)-1] {
				t.Fatalf("layout %d from %v: smoothing moved the final waypoint", li, from)
			}
		}
	}
}

func TestSmoothKeepsRawWhenEverythingObstructed(t *testing.T) {
	g := unitGrid(t, 8, 8, blindObstacles{})
	f := NewField(g, FieldConfig{Diagonal: true})
	f.Compute(Coord{X: 7, Y: 7})
	q := NewQuery(f, QueryConfig{Smooth: true})

	raw := NewQuery(f, QueryConfig{}).GetPathFrom(cp.Vector{X: 0.5, Y: 3.5})
	got := q.GetPathFrom(cp.Vector{X: 0.5, Y: 3.5})
	if len(raw) < 2 {
		t.Fatalf("fixture should produce a multi-step raw path, got %v", raw)
	}
	if len(got) != len(raw) {
		t.Fatalf("smoothed %d waypoints, raw %d", len(got), len(raw))
	}
	for i := range raw {
		if got[i] != raw[i] {
			t.Fatalf("waypoint %d = %v, want %v", i, got[i], raw[i])
		}
	}
}

func TestSmoothOpenGridCollapsesToTarget(t *testing.T) {
	g := unitGrid(t, 10, 10, tileMap{})
	f := NewField(g, FieldConfig{Diagonal: true})
	f.Compute(Coord{X: 9, Y: 2})
	q := NewQuery(f, QueryConfig{Smooth: true})

	path := q.GetPathFrom(cp.Vector{X: 0.2, Y: 7.9})
	if len(path) != 1 {
		t.Fatalf("open field path should collapse to one waypoint, got %v", path)
	}
	if path[0] != g.GridToWorld(Coord{X: 9, Y: 2}) {
		t.Fatalf("waypoint %v, want target center", path[0])
	}
}

func TestSmoothRespectsWalls(t *testing.T) {
	rows := tileMap{
		"..........",
		"..........",
		"....#.....",
		"....#.....",
		"....#.....",
		"..........",
	}
	g := mapGrid(t, rows)
	f := NewField(g, FieldConfig{Diagonal: true})
	f.Compute(Coord{X: 8, Y: 3})
	q := NewQuery(f, QueryConfig{Smooth: true})

	from := cp.Vector{X: 1.5, Y: 3.5}
	path := q.GetPathFrom(from)
	if len(path) < 2 {
		t.Fatalf("wall should force at least one intermediate waypoint, got %v", path)
	}
	anchor := from
	for _, p := range path {
		if !q.HasLineOfSight(anchor, p) {
			t.Fatalf("segment %v -> %v crosses the wall", anchor, p)
		}
		anchor = p
	}
}

func TestCutCorners(t *testing.T) {
	t.Run("right_angle_is_rounded", func(t *testing.T) {
		path := []cp.Vector{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}}
		got := cutCorners(path, 0.5, nil)
		want := cp.Vector{X: 1.5, Y: 0.5}
		if len(got) != 3 || got[0] != path[0] || got[2] != path[2] {
			t.Fatalf("endpoints must be kept: %v", got)
		}
		if math.Abs(got[1].X-want.X) > 1e-9 || math.Abs(got[1].Y-want.Y) > 1e-9 {
			t.Fatalf("corner = %v, want %v", got[1], want)
		}
	})

	t.Run("gentle_turn_is_kept", func(t *testing.T) {
		path := []cp.Vector{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0.5}}
		got := cutCorners(path, 0.3, nil)
		if got[1] != path[1] {
			t.Fatalf("gentle turn moved: %v", got[1])
		}
	})

	t.Run("blocked_cut_point_is_kept", func(t *testing.T) {
		path := []cp.Vector{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}}
		got := cutCorners(path, 0.5, func(cp.Vector) bool { return false })
		if got[1] != path[1] {
			t.Fatalf("unwalkable cut point used: %v", got[1])
		}
	})

	t.Run("short_paths_untouched", func(t *testing.T) {
		path := []cp.Vector{{X: 0, Y: 0}, {X: 2, Y: 0}}
		if got := cutCorners(path, 1, nil); len(got) != 2 {
			t.Fatalf("got %v", got)
		}
	})
}

func TestQueryCornerCutApplied(t *testing.T) {
	rows := tileMap{
		"......",
		".####.",
		".#....",
		".#....",
		"......",
	}
	g := mapGrid(t, rows)
	f := NewField(g, FieldConfig{})
	f.Compute(Coord{X: 5, Y: 0})

	plain := NewQuery(f, QueryConfig{}).GetPathFrom(g.GridToWorld(Coord{X: 0, Y: 4}))
	cut := NewQuery(f, QueryConfig{CornerCut: 0.3}).GetPathFrom(g.GridToWorld(Coord{X: 0, Y: 4}))
	if len(plain) != len(cut) {
		t.Fatalf("corner cutting changed waypoint count: %d vs %d", len(plain), len(cut))
	}
	if plain[len(plain)-1] != cut[len(cut)-1] {
		t.Fatalf("final waypoint moved")
	}
	changed := 0
	for i := range plain {
		if plain[i] != cut[i] {
			changed++
			if !g.IsWalkable(cut[i]) {
				t.Fatalf("rounded waypoint %v is not walkable", cut[i])
			}
		}
	}
	if changed == 0 {
		t.Fatalf("expected at least one rounded corner in %v", plain)
	}
}

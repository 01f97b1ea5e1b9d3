package pathfinding

import (
	"testing"
	"time"

	"github.com/jakecoffman/cp"
)

func TestRefresherThrottlesPasses(t *testing.T) {
	g := mapGrid(t, openRows(10, 10))
	f := NewField(g, FieldConfig{Diagonal: true})

	pos := cp.Vector{X: 2.5, Y: 2.5}
	tracking := true
	r := NewRefresher(f, LocatorFunc(func() (cp.Vector, bool) { return pos, tracking }), 100*time.Millisecond)

	t0 := time.Unix(1000, 0)
	steps := []struct {
		name string
		at   time.Duration
		move *cp.Vector
		want bool
	}{
		{"first_update_runs", 0, nil, true},
		{"same_cell_later", 500 * time.Millisecond, nil, false},
		{"moved_within_cell", 600 * time.Millisecond, &cp.Vector{X: 2.9, Y: 2.1}, false},
		{"moved_cell", 700 * time.Millisecond, &cp.Vector{X: 6.5, Y: 2.5}, true},
		{"moved_again_too_soon", 750 * time.Millisecond, &cp.Vector{X: 7.5, Y: 2.5}, false},
		{"interval_elapsed", 800 * time.Millisecond, nil, true},
	}

	for _, s := range steps {
		if s.move != nil {
			pos = *s.move
		}
		if got := r.Update(t0.Add(s.at)); got != s.want {
			t.Fatalf("%s: Update = %v, want %v", s.name, got, s.want)
		}
	}
	if target, _ := f.Target(); target != (Coord{X: 7, Y: 2}) {
		t.Fatalf("field seeded at %v, want (7,2)", target)
	}
	if f.Generation() != 3 {
		t.Fatalf("generation = %d, want 3", f.Generation())
	}

	t.Run("mark_dirty_bypasses_throttle", func(t *testing.T) {
		r.MarkDirty()
		if !r.Update(t0.Add(801 * time.Millisecond)) {
			t.Fatalf("dirty refresher should run immediately")
		}
		if r.Update(t0.Add(802 * time.Millisecond)) {
			t.Fatalf("dirty flag should clear after a pass")
		}
	})

	t.Run("lost_target_skips", func(t *testing.T) {
		tracking = false
		r.MarkDirty()
		if r.Update(t0.Add(5 * time.Second)) {
			t.Fatalf("no pass without a target")
		}
	})

	t.Run("nil_locator", func(t *testing.T) {
		if NewRefresher(f, nil, 0).Update(t0) {
			t.Fatalf("nil locator should never run a pass")
		}
	})
}

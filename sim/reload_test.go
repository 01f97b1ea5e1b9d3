package sim

import (
	"testing"
	"time"

	"github.com/milk9111/swarmpath/pathfinding"
	"github.com/milk9111/swarmpath/prefabs"
)

func change(t *testing.T, path string) prefabs.Change {
	t.Helper()
	c, ok := prefabs.ClassifyNavFile(path)
	if !ok {
		t.Fatalf("%s should be reloadable", path)
	}
	return c
}

func TestReloadSystemAppliesEvents(t *testing.T) {
	w := newTestWorld(t, testNav)
	w.Spec.Layout = "arena"
	w.Spec.TargetScript = "orbit.tengo"
	target, err := NewTargetSystem(w.Spec.TargetScript)
	if err != nil {
		t.Fatalf("NewTargetSystem: %v", err)
	}
	events := make(chan prefabs.Change, 8)
	sched := NewScheduler(NewReloadSystem(events, target), NewRefreshSystem())
	sched.Step(w, 50*time.Millisecond)
	if w.Passes != 1 {
		t.Fatalf("passes = %d", w.Passes)
	}

	t.Run("layout", func(t *testing.T) {
		grid := w.Grid
		events <- change(t, "levels/arena.yaml")
		sched.Step(w, time.Millisecond)
		if w.Layout.Name != "arena" || w.Grid != grid {
			t.Fatalf("layout reload should rebuild the grid in place")
		}
		if w.Passes != 2 {
			t.Fatalf("layout reload should force a pass, passes = %d", w.Passes)
		}
	})

	t.Run("unrelated_files_ignored", func(t *testing.T) {
		layout := w.Layout
		events <- change(t, "levels/maze.yaml")
		events <- change(t, "prefabs/scripts/patrol.tengo")
		events <- prefabs.Change{Path: "prefabs/other.yaml", Name: "other.yaml"}
		sched.Step(w, time.Millisecond)
		if w.Layout != layout || target.ScriptName() != "orbit.tengo" {
			t.Fatalf("unrelated events were applied")
		}
	})

	t.Run("nav_spec", func(t *testing.T) {
		events <- change(t, "prefabs/nav.yaml")
		sched.Step(w, time.Millisecond)
		if w.Grid.Width() != 40 || w.Grid.Sampling().Mode != pathfinding.SampleMultiPoint {
			t.Fatalf("embedded nav spec not applied: %dx%d %v", w.Grid.Width(), w.Grid.Height(), w.Grid.Sampling().Mode)
		}
		if len(w.Agents) != w.Spec.Agents.Count {
			t.Fatalf("agents = %d, want %d", len(w.Agents), w.Spec.Agents.Count)
		}
	})

	t.Run("closed_channel", func(t *testing.T) {
		close(events)
		sched.Step(w, time.Millisecond)
		sched.Step(w, time.Millisecond)
	})
}

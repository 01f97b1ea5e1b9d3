package sim

import (
	"log"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/swarmpath/common"
	"github.com/milk9111/swarmpath/levels"
	"github.com/milk9111/swarmpath/prefabs"
)

// RefreshSystem lets the refresher decide whether this tick runs a pass.
type RefreshSystem struct{}

func NewRefreshSystem() *RefreshSystem {
	return &RefreshSystem{}
}

func (s *RefreshSystem) Update(w *World) {
	if w == nil || w.Refresher == nil {
		return
	}
	if w.Refresher.Update(w.Now) {
		w.Passes++
	}
}

// SteeringSystem re-queries each agent's path on a staggered cadence and
// walks it toward the first waypoint at the configured speed.
type SteeringSystem struct{}

func NewSteeringSystem() *SteeringSystem {
	return &SteeringSystem{}
}

func (s *SteeringSystem) Update(w *World) {
	if w == nil || w.Query == nil {
		return
	}
	gen := w.Query.Generation()
	repath := max(w.Spec.Agents.RepathTicks, 1)
	step := w.Spec.Agents.Speed * w.DT.Seconds()
	arrive := w.Spec.Agents.Arrive

	for _, a := range w.Agents {
		a.sinceRepath++
		// Stagger by ID so a new generation does not make every agent query
		// on the same tick.
		due := a.sinceRepath >= repath && (a.sinceRepath+a.ID)%repath == 0
		if a.generation != gen && (due || a.Arrived()) {
			a.Path = w.Query.GetPathFrom(a.Pos)
			a.generation = gen
			a.sinceRepath = 0
		} else if due {
			a.Path = w.Query.GetPathFrom(a.Pos)
			a.sinceRepath = 0
		}

		budget := step
		for budget > 0 && len(a.Path) > 0 {
			next := a.Path[0]
			d := a.Pos.Distance(next)
			if d <= arrive || d <= budget {
				a.Pos = next
				a.Path = a.Path[1:]
				budget -= d
				continue
			}
			a.Pos = a.Pos.Add(next.Sub(a.Pos).Normalize().Mult(budget))
			budget = 0
		}
	}
}

// SeparationSystem pushes agents that overlap apart. A push that would move
// an agent into a blocked cell is dropped.
type SeparationSystem struct {
	Radius   float64
	Strength float64
}

func NewSeparationSystem() *SeparationSystem {
	return &SeparationSystem{
		Radius:   0.6,
		Strength: 1.5,
	}
}

func (s *SeparationSystem) Update(w *World) {
	if s == nil || w == nil || w.Grid == nil {
		return
	}
	n := len(w.Agents)
	if n < 2 {
		return
	}
	radius := s.Radius * w.Grid.CellSize()
	dt := w.DT.Seconds()
	push := make([]cp.Vector, n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := w.Agents[i].Pos.Sub(w.Agents[j].Pos)
			dist := d.Length()
			if dist >= radius {
				continue
			}
			overlap := common.Lerp(0, s.Strength, 1-dist/radius)
			if dist == 0 {
				// Coincident agents split along a fixed axis chosen by index.
				d = cp.ForAngle(float64(i+j) * 0.7)
				dist = 1
			}
			f := d.Mult(overlap * radius * dt / dist)
			push[i] = push[i].Add(f)
			push[j] = push[j].Sub(f)
		}
	}

	for i, a := range w.Agents {
		if push[i].LengthSq() == 0 {
			continue
		}
		next := a.Pos.Add(push[i])
		if w.Grid.IsWalkable(next) {
			a.Pos = next
		}
	}
}

// ReloadSystem drains watcher changes without blocking and applies edited
// nav specs, layouts and target scripts that the world is using.
type ReloadSystem struct {
	changes <-chan prefabs.Change
	target  *TargetSystem
}

func NewReloadSystem(changes <-chan prefabs.Change, target *TargetSystem) *ReloadSystem {
	return &ReloadSystem{changes: changes, target: target}
}

func (s *ReloadSystem) Update(w *World) {
	if s == nil || s.changes == nil || w == nil {
		return
	}
	for {
		select {
		case c, ok := <-s.changes:
			if !ok {
				s.changes = nil
				return
			}
			s.apply(w, c)
		default:
			return
		}
	}
}

func (s *ReloadSystem) apply(w *World, c prefabs.Change) {
	switch c.Kind {
	case prefabs.ChangeScript:
		if s.target == nil || c.Name != prefabs.ScriptName(w.Spec.TargetScript) {
			return
		}
		if err := s.target.Load(w.Spec.TargetScript); err != nil {
			log.Printf("sim: reload %s: %v", c.Path, err)
			return
		}
		log.Printf("sim: reloaded target script %s", c.Path)

	case prefabs.ChangeLayout:
		if levels.FileName(c.Name) != levels.FileName(w.Spec.Layout) {
			return
		}
		layout, err := levels.Load(w.Spec.Layout)
		if err != nil {
			log.Printf("sim: reload %s: %v", c.Path, err)
			return
		}
		w.SetLayout(layout)

	case prefabs.ChangeNavSpec:
		spec, err := prefabs.LoadNavSpec(c.Name)
		if err != nil {
			log.Printf("sim: reload %s: %v", c.Path, err)
			return
		}
		scriptChanged := spec.TargetScript != w.Spec.TargetScript
		if err := w.ApplySpec(spec); err != nil {
			log.Printf("sim: reload %s: %v", c.Path, err)
			return
		}
		if scriptChanged && s.target != nil {
			if err := s.target.Load(spec.TargetScript); err != nil {
				log.Printf("sim: reload %s: %v", spec.TargetScript, err)
			}
		}
		log.Printf("sim: applied %s", c.Path)
	}
}

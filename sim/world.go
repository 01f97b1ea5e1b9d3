package sim

import (
	"fmt"
	"log"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/swarmpath/levels"
	"github.com/milk9111/swarmpath/obstacle"
	"github.com/milk9111/swarmpath/pathfinding"
	"github.com/milk9111/swarmpath/prefabs"
)

type Agent struct {
	ID   int
	Pos  cp.Vector
	Path []cp.Vector

	generation  uint64
	sinceRepath int
}

// Arrived reports whether the agent has no waypoints left.
func (a *Agent) Arrived() bool { return len(a.Path) == 0 }

type Target struct {
	Pos     cp.Vector
	Visible bool
}

// World is the demo scene: obstacle geometry, the shared navigation stack,
// one tracked target and the agents chasing it.
type World struct {
	Spec      *prefabs.NavSpec
	Layout    *levels.Layout
	Obstacles *obstacle.World
	Grid      *pathfinding.Grid
	Field     *pathfinding.Field
	Query     *pathfinding.Query
	Refresher *pathfinding.Refresher

	Target Target
	Agents []*Agent

	Tick    uint64
	Now     time.Time
	Elapsed time.Duration
	DT      time.Duration
	Passes  int

	metrics *pathfinding.Metrics
	logger  *log.Logger
}

type Option func(*World)

func WithMetrics(m *pathfinding.Metrics) Option {
	return func(w *World) { w.metrics = m }
}

// WithLogger sets the logger handed to the field; nil keeps passes silent.
func WithLogger(l *log.Logger) Option {
	return func(w *World) { w.logger = l }
}

func WithClock(start time.Time) Option {
	return func(w *World) { w.Now = start }
}

func NewWorld(spec *prefabs.NavSpec, opts ...Option) (*World, error) {
	if spec == nil {
		return nil, fmt.Errorf("sim: nil nav spec")
	}
	layout, err := levels.Load(spec.Layout)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	return NewWorldWithLayout(spec, layout, opts...)
}

func NewWorldWithLayout(spec *prefabs.NavSpec, layout *levels.Layout, opts ...Option) (*World, error) {
	w := &World{Now: time.Unix(0, 0)}
	for _, opt := range opts {
		opt(w)
	}
	w.Layout = layout
	w.Obstacles = obstacle.FromLayout(layout)
	if err := w.build(spec); err != nil {
		return nil, err
	}

	if p, ok := layout.Target(); ok {
		w.Target = Target{Pos: cp.Vector{X: p.X, Y: p.Y}, Visible: true}
	} else {
		w.Target = Target{Pos: w.Grid.GridToWorld(pathfinding.Coord{X: w.Grid.Width() / 2, Y: w.Grid.Height() / 2}), Visible: true}
	}
	w.spawnAgents(spec.Agents.Count)
	return w, nil
}

// build wires grid, field, query and refresher from spec over the current
// obstacles. On error the world is left untouched.
func (w *World) build(spec *prefabs.NavSpec) error {
	gridCfg, err := spec.GridConfig()
	if err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	fieldCfg, err := spec.FieldConfig()
	if err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	grid, err := pathfinding.NewGrid(gridCfg, w.Obstacles)
	if err != nil {
		return fmt.Errorf("sim: %w", err)
	}

	var fieldOpts []pathfinding.FieldOption
	if w.metrics != nil {
		fieldOpts = append(fieldOpts, pathfinding.WithFieldMetrics(w.metrics))
	}
	if w.logger != nil {
		fieldOpts = append(fieldOpts, pathfinding.WithFieldLogger(w.logger))
	}
	field := pathfinding.NewField(grid, fieldCfg, fieldOpts...)
	query := pathfinding.NewQuery(field, spec.QueryConfig(), pathfinding.WithQueryMetrics(w.metrics))

	w.Spec = spec
	w.Grid = grid
	w.Field = field
	w.Query = query
	w.Refresher = pathfinding.NewRefresher(field, pathfinding.LocatorFunc(w.targetPosition), spec.Refresh.Interval)
	for _, a := range w.Agents {
		a.Path = nil
		a.generation = 0
	}
	log.Printf("sim: grid %dx%d cell=%v sampling=%s walkable=%d/%d", grid.Width(), grid.Height(), grid.CellSize(), grid.Sampling().Mode, grid.WalkableCount(), grid.Len())
	return nil
}

func (w *World) targetPosition() (cp.Vector, bool) {
	return w.Target.Pos, w.Target.Visible
}

// ApplySpec swaps in a new navigation setup, keeping agents and target where
// they are. A new layout name reloads the obstacle geometry first.
func (w *World) ApplySpec(spec *prefabs.NavSpec) error {
	if spec.Layout != w.Spec.Layout {
		layout, err := levels.Load(spec.Layout)
		if err != nil {
			return fmt.Errorf("sim: %w", err)
		}
		prev, prevObs := w.Layout, w.Obstacles
		w.Layout, w.Obstacles = layout, obstacle.FromLayout(layout)
		if err := w.build(spec); err != nil {
			w.Layout, w.Obstacles = prev, prevObs
			return err
		}
	} else if err := w.build(spec); err != nil {
		return err
	}
	if len(w.Agents) != spec.Agents.Count {
		w.spawnAgents(spec.Agents.Count)
	}
	return nil
}

// SetLayout replaces the obstacle geometry and reclassifies the grid in
// place. The next refresh runs a pass regardless of the interval.
func (w *World) SetLayout(layout *levels.Layout) {
	w.Layout = layout
	w.Obstacles = obstacle.FromLayout(layout)
	w.Grid.SetObstacles(w.Obstacles)
	w.Refresher.MarkDirty()
	for _, a := range w.Agents {
		a.Path = nil
	}
	log.Printf("sim: layout %q applied, walkable=%d/%d", layout.Name, w.Grid.WalkableCount(), w.Grid.Len())
}

// SetDiagonal toggles diagonal movement and schedules a fresh pass.
func (w *World) SetDiagonal(diagonal bool) {
	w.Field.SetDiagonal(diagonal)
	w.Spec.Movement.Diagonal = diagonal
	w.Refresher.MarkDirty()
}

func (w *World) SetSmooth(smooth bool) {
	w.Query.SetSmooth(smooth)
	w.Spec.Query.Smooth = &smooth
}

// Advance moves the clock forward one tick.
func (w *World) Advance(dt time.Duration) {
	w.Tick++
	w.DT = dt
	w.Now = w.Now.Add(dt)
	w.Elapsed += dt
}

// Extent returns the grid's world rectangle.
func (w *World) Extent() cp.BB {
	o := w.Grid.Origin()
	cs := w.Grid.CellSize()
	return cp.BB{L: o.X, B: o.Y, R: o.X + float64(w.Grid.Width())*cs, T: o.Y + float64(w.Grid.Height())*cs}
}

// spawnAgents places n agents on the layout's spawn tiles in turn, fanning
// repeats out on a small ring so they do not stack.
func (w *World) spawnAgents(n int) {
	spawns := w.Layout.Spawns()
	if len(spawns) == 0 {
		spawns = []levels.Point{{X: w.Target.Pos.X, Y: w.Target.Pos.Y}}
	}
	ring := 0.3 * w.Grid.CellSize()
	agents := make([]*Agent, 0, n)
	for i := 0; i < n; i++ {
		s := spawns[i%len(spawns)]
		pos := cp.Vector{X: s.X, Y: s.Y}
		if round := i / len(spawns); round > 0 {
			pos = pos.Add(cp.ForAngle(float64(round) * 2.4).Mult(ring))
			if !w.Grid.IsWalkable(pos) {
				pos = cp.Vector{X: s.X, Y: s.Y}
			}
		}
		agents = append(agents, &Agent{ID: i, Pos: pos})
	}
	w.Agents = agents
}

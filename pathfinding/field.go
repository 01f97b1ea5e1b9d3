package pathfinding

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/jakecoffman/cp"
)

// Heuristic biases the pass's pop order toward the seed.
type Heuristic int

const (
	HeuristicManhattan Heuristic = iota
	HeuristicNone
)

func (h Heuristic) String() string {
	switch h {
	case HeuristicManhattan:
		return "manhattan"
	case HeuristicNone:
		return "none"
	default:
		return fmt.Sprintf("Heuristic(%d)", int(h))
	}
}

func ParseHeuristic(s string) (Heuristic, error) {
	switch s {
	case "", "manhattan":
		return HeuristicManhattan, nil
	case "none", "dijkstra":
		return HeuristicNone, nil
	}
	return 0, fmt.Errorf("pathfinding: unknown heuristic %q: %w", s, ErrInvalidConfig)
}

const (
	costOrthogonal = 1.0
	costDiagonal   = math.Sqrt2

	noPrev int32 = -1
)

type direction struct {
	dx, dy   int
	diagonal bool
}

var orthogonalDirs = []direction{
	{0, 1, false}, {0, -1, false}, {-1, 0, false}, {1, 0, false},
}

var allDirs = []direction{
	{0, 1, false}, {0, -1, false}, {-1, 0, false}, {1, 0, false},
	{1, 1, true}, {-1, 1, true}, {1, -1, true}, {-1, -1, true},
}

// Scratch holds one pass's search state for every cell, indexed like the grid.
type Scratch struct {
	Cost    []float64
	Prev    []int32
	Visited []bool

	Target     Coord
	Ok         bool
	Generation uint64
	Reached    int
}

func newScratch(n int) *Scratch {
	s := &Scratch{
		Cost:    make([]float64, n),
		Prev:    make([]int32, n),
		Visited: make([]bool, n),
	}
	s.reset()
	return s
}

func (s *Scratch) reset() {
	inf := math.Inf(1)
	for i := range s.Cost {
		s.Cost[i] = inf
		s.Prev[i] = noPrev
		s.Visited[i] = false
	}
	s.Ok = false
	s.Reached = 0
}

type FieldConfig struct {
	Diagonal  bool
	Heuristic Heuristic
}

type FieldOption func(*Field)

func WithFieldMetrics(m *Metrics) FieldOption {
	return func(f *Field) { f.metrics = m }
}

func WithFieldLogger(l *log.Logger) FieldOption {
	return func(f *Field) { f.logger = l }
}

// Field is the shared reverse search. One pass from the target's cell gives
// every reachable cell its cost to the target and the index of its next step.
//
// Passes write into a back buffer that is swapped in when complete, so queries
// on other goroutines always see a whole generation.
type Field struct {
	grid *Grid
	cfg  FieldConfig

	mu    sync.RWMutex
	front *Scratch
	back  *Scratch
	open  *PriorityQueue[int32]

	generation uint64
	metrics    *Metrics
	logger     *log.Logger
}

func NewField(grid *Grid, cfg FieldConfig, opts ...FieldOption) *Field {
	n := grid.Len()
	f := &Field{
		grid:  grid,
		cfg:   cfg,
		front: newScratch(n),
		back:  newScratch(n),
		open:  NewPriorityQueue[int32](n / 4),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Field) Grid() *Grid { return f.grid }
func (f *Field) Config() FieldConfig { return f.cfg }

// SetDiagonal changes the movement model for subsequent passes.
func (f *Field) SetDiagonal(diagonal bool) {
	f.cfg.Diagonal = diagonal
}

// ComputeFrom seeds a pass at the cell containing p.
func (f *Field) ComputeFrom(p cp.Vector) bool {
	return f.Compute(f.grid.WorldToGrid(p))
}

// Compute runs one full pass seeded at target and publishes it. It returns
// false when target is off the grid, in which case the published generation
// has every cell unreached.
func (f *Field) Compute(target Coord) bool {
	started := time.Now()
	s := f.back
	s.reset()
	s.Target = target

	if f.grid.InBounds(target) {
		f.search(s, target)
		s.Ok = true
	}

	f.mu.Lock()
	f.generation++
	s.Generation = f.generation
	f.front, f.back = s, f.front
	f.mu.Unlock()

	elapsed := time.Since(started)
	f.metrics.observePass(elapsed, s.Reached, s.Generation)
	if f.logger != nil {
		f.logger.Printf("pathfield: pass gen=%d target=(%d,%d) reached=%d in %s", s.Generation, target.X, target.Y, s.Reached, elapsed)
	}
	return s.Ok
}

func (f *Field) search(s *Scratch, target Coord) {
	g := f.grid
	dirs := orthogonalDirs
	if f.cfg.Diagonal {
		dirs = allDirs
	}

	open := f.open
	open.Reset()

	start := int32(g.Index(target))
	s.Cost[start] = 0
	open.Enqueue(start, 0)

	for open.Len() > 0 {
		cur, err := open.Dequeue()
		if err != nil {
			panic(fmt.Sprintf("pathfinding: %v with %d entries reported", err, open.Len()))
		}
		if s.Visited[cur] {
			continue
		}
		s.Visited[cur] = true
		s.Reached++

		cc := g.CoordAt(int(cur))
		for _, d := range dirs {
			nc := Coord{X: cc.X + d.dx, Y: cc.Y + d.dy}
			if !g.Walkable(nc) {
				continue
			}
			if d.diagonal && !(g.Walkable(Coord{X: cc.X + d.dx, Y: cc.Y}) && g.Walkable(Coord{X: cc.X, Y: cc.Y + d.dy})) {
				continue
			}
			ni := int32(g.Index(nc))
			if s.Visited[ni] {
				continue
			}
			step := costOrthogonal
			if d.diagonal {
				step = costDiagonal
			}
			newCost := s.Cost[cur] + step
			if newCost < s.Cost[ni] {
				s.Cost[ni] = newCost
				s.Prev[ni] = cur
				open.Enqueue(ni, newCost+f.heuristic(nc, target))
			}
		}
	}
}

func (f *Field) heuristic(a, b Coord) float64 {
	if f.cfg.Heuristic == HeuristicNone {
		return 0
	}
	return math.Abs(float64(a.X-b.X)) + math.Abs(float64(a.Y-b.Y))
}

// Snapshot calls fn with the published scratch under the read lock. fn must
// not retain s.
func (f *Field) Snapshot(fn func(s *Scratch)) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fn(f.front)
}

func (f *Field) Generation() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.front.Generation
}

// Target returns the seed of the published pass and whether it was on the grid.
func (f *Field) Target() (Coord, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.front.Target, f.front.Ok
}

func (f *Field) Reached() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.front.Reached
}

// Cost is +Inf for unreached and off-grid cells.
func (f *Field) Cost(c Coord) float64 {
	if !f.grid.InBounds(c) {
		return math.Inf(1)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.front.Cost[f.grid.Index(c)]
}

// Next returns the neighbor one step closer to the target.
func (f *Field) Next(c Coord) (Coord, bool) {
	if !f.grid.InBounds(c) {
		return Coord{}, false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	p := f.front.Prev[f.grid.Index(c)]
	if p == noPrev {
		return Coord{}, false
	}
	return f.grid.CoordAt(int(p)), true
}

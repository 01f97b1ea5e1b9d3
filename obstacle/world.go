package obstacle

import (
	"log"
	"math"
	"sync"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/swarmpath/common"
	"github.com/milk9111/swarmpath/levels"
	"github.com/milk9111/swarmpath/pathfinding"
)

const (
	collisionTypeSolid cp.CollisionType = iota + 1
	collisionTypeBounds
)

// boundsThickness is the segment radius of the layout border, in tiles.
const boundsThickness = 0.05

type CircleShape struct {
	Center cp.Vector
	Radius float64
}

// World is a static chipmunk space answering obstacle queries for the grid
// and line-of-sight tests for path smoothing. Queries lock the space, so a
// mutex serializes them.
type World struct {
	mu    sync.Mutex
	space *cp.Space

	boxes   []cp.BB
	circles []CircleShape
	bounds  cp.BB
	shapes  int
}

var (
	_ pathfinding.Obstacles   = (*World)(nil)
	_ pathfinding.LineOfSight = (*World)(nil)
)

func NewWorld() *World {
	return &World{space: cp.NewSpace()}
}

// FromLayout builds a world from a tile layout. Contiguous solid tiles are
// merged into rectangles so the space holds fewer static boxes.
func FromLayout(l *levels.Layout) *World {
	w := NewWorld()
	if l == nil {
		return w
	}
	w.addTiles(l)

	for _, c := range l.Circles {
		w.AddCircle(cp.Vector{X: c.X, Y: c.Y}, c.Radius)
	}
	for _, b := range l.Boxes {
		w.AddBox(cp.BB{L: b.X, B: b.Y, R: b.X + b.W, T: b.Y + b.H})
	}

	worldW := float64(l.Width()) * l.TileSize
	worldH := float64(l.Height()) * l.TileSize
	if l.Bounds && worldW > 0 && worldH > 0 {
		o := cp.Vector{X: l.Origin.X, Y: l.Origin.Y}
		thickness := boundsThickness * l.TileSize
		segments := []struct {
			a cp.Vector
			b cp.Vector
		}{
			{a: o, b: o.Add(cp.Vector{X: worldW})},
			{a: o.Add(cp.Vector{Y: worldH}), b: o.Add(cp.Vector{X: worldW, Y: worldH})},
			{a: o, b: o.Add(cp.Vector{Y: worldH})},
			{a: o.Add(cp.Vector{X: worldW}), b: o.Add(cp.Vector{X: worldW, Y: worldH})},
		}
		for _, seg := range segments {
			shape := cp.NewSegment(w.space.StaticBody, seg.a, seg.b, thickness)
			shape.SetCollisionType(collisionTypeBounds)
			w.add(shape)
		}
	}

	log.Printf("obstacle: built %q: %d boxes, %d circles, %d shapes", l.Name, len(w.boxes), len(w.circles), w.shapes)
	return w
}

func (w *World) addTiles(l *levels.Layout) {
	width, height := l.Width(), l.Height()
	processed := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if processed[idx] {
				continue
			}
			if !l.Solid(x, y) {
				processed[idx] = true
				continue
			}

			// Grow right, then down while every tile in the next row is solid.
			rw := 1
			for x+rw < width && !processed[y*width+x+rw] && l.Solid(x+rw, y) {
				rw++
			}
			rh := 1
		heightLoop:
			for y+rh < height {
				for xi := x; xi < x+rw; xi++ {
					if processed[(y+rh)*width+xi] || !l.Solid(xi, y+rh) {
						break heightLoop
					}
				}
				rh++
			}

			x0 := l.Origin.X + float64(x)*l.TileSize
			y0 := l.Origin.Y + float64(y)*l.TileSize
			w.AddBox(cp.BB{L: x0, B: y0, R: x0 + float64(rw)*l.TileSize, T: y0 + float64(rh)*l.TileSize})

			for yy := y; yy < y+rh; yy++ {
				for xx := x; xx < x+rw; xx++ {
					processed[yy*width+xx] = true
				}
			}
		}
	}
}

func (w *World) AddBox(bb cp.BB) {
	shape := cp.NewBox2(w.space.StaticBody, bb, 0)
	shape.SetCollisionType(collisionTypeSolid)
	w.add(shape)
	w.boxes = append(w.boxes, bb)
}

func (w *World) AddCircle(center cp.Vector, radius float64) {
	shape := cp.NewCircle(w.space.StaticBody, radius, center)
	shape.SetCollisionType(collisionTypeSolid)
	w.add(shape)
	w.circles = append(w.circles, CircleShape{Center: center, Radius: radius})
}

func (w *World) add(shape *cp.Shape) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.space.AddShape(shape)
	bb := shape.BB()
	if w.shapes == 0 {
		w.bounds = bb
	} else {
		w.bounds = cp.BB{
			L: math.Min(w.bounds.L, bb.L), B: math.Min(w.bounds.B, bb.B),
			R: math.Max(w.bounds.R, bb.R), T: math.Max(w.bounds.T, bb.T),
		}
	}
	w.shapes++
}

func (w *World) Boxes() []cp.BB { return w.boxes }
func (w *World) Circles() []CircleShape { return w.circles }
func (w *World) ShapeCount() int { return w.shapes }
func (w *World) Bounds() cp.BB { return w.bounds }
func (w *World) Space() *cp.Space { return w.space }

// IsBlocked reports whether p lies strictly inside a shape.
func (w *World) IsBlocked(p cp.Vector) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	info := w.space.PointQueryNearest(p, 0, cp.SHAPE_FILTER_ALL)
	return info != nil && info.Shape != nil && info.Distance < 0
}

func (w *World) IsBlockedRegion(p cp.Vector, s pathfinding.Shape) bool {
	if s.Radius <= 0 {
		return w.IsBlocked(p)
	}
	switch s.Kind {
	case pathfinding.ShapeBox:
		return w.boxOverlaps(cp.NewBBForExtents(p, s.Radius, s.Radius))
	default:
		w.mu.Lock()
		defer w.mu.Unlock()
		info := w.space.PointQueryNearest(p, s.Radius, cp.SHAPE_FILTER_ALL)
		return info != nil && info.Shape != nil && info.Distance < s.Radius
	}
}

// boxOverlaps runs a broad-phase BB query, then tests the point of the query
// box closest to each candidate's center against the candidate itself.
func (w *World) boxOverlaps(query cp.BB) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	hit := false
	w.space.BBQuery(query, cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, _ interface{}) {
		if hit {
			return
		}
		bb := shape.BB()
		center := cp.Vector{X: (bb.L + bb.R) / 2, Y: (bb.B + bb.T) / 2}
		closest := cp.Vector{
			X: common.Clamp(center.X, query.L, query.R),
			Y: common.Clamp(center.Y, query.B, query.T),
		}
		if shape.PointQuery(closest).Distance < 0 {
			hit = true
		}
	}, nil)
	return hit
}

// SegmentBlocked reports whether the segment a-b touches any shape.
func (w *World) SegmentBlocked(a, b cp.Vector) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	info := w.space.SegmentQueryFirst(a, b, 0, cp.SHAPE_FILTER_ALL)
	return info.Shape != nil
}

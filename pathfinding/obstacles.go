package pathfinding

import (
	"math"

	"github.com/jakecoffman/cp"
)

type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapeBox
)

// Shape describes a query region centered on a point. For ShapeBox, Radius is
// the half extent, so the box side is 2*Radius.
type Shape struct {
	Kind   ShapeKind
	Radius float64
}

func Circle(radius float64) Shape {
	return Shape{Kind: ShapeCircle, Radius: radius}
}

func Box(halfExtent float64) Shape {
	return Shape{Kind: ShapeBox, Radius: halfExtent}
}

// Obstacles is the collision predicate the grid is classified against.
type Obstacles interface {
	IsBlocked(p cp.Vector) bool
	IsBlockedRegion(p cp.Vector, s Shape) bool
}

// LineOfSight is implemented by obstacle sets that can ray test directly.
type LineOfSight interface {
	SegmentBlocked(a, b cp.Vector) bool
}

// ObstacleFunc adapts a point predicate. Region tests sample the shape's
// center, its four extreme points and, for boxes, its corners.
type ObstacleFunc func(p cp.Vector) bool

func (f ObstacleFunc) IsBlocked(p cp.Vector) bool {
	return f(p)
}

func (f ObstacleFunc) IsBlockedRegion(p cp.Vector, s Shape) bool {
	if f(p) {
		return true
	}
	r := s.Radius
	if r <= 0 {
		return false
	}
	offsets := []cp.Vector{{X: r}, {X: -r}, {Y: r}, {Y: -r}}
	if s.Kind == ShapeBox {
		offsets = append(offsets, cp.Vector{X: r, Y: r}, cp.Vector{X: -r, Y: r}, cp.Vector{X: r, Y: -r}, cp.Vector{X: -r, Y: -r})
	} else {
		d := r * math.Sqrt2 / 2
		offsets = append(offsets, cp.Vector{X: d, Y: d}, cp.Vector{X: -d, Y: d}, cp.Vector{X: d, Y: -d}, cp.Vector{X: -d, Y: -d})
	}
	for _, off := range offsets {
		if f(p.Add(off)) {
			return true
		}
	}
	return false
}

// segmentClear walks a to b in steps no longer than step and reports whether
// every sample is unblocked. Used when obs has no ray test of its own.
func segmentClear(obs Obstacles, a, b cp.Vector, step float64) bool {
	if los, ok := obs.(LineOfSight); ok {
		return !los.SegmentBlocked(a, b)
	}
	dist := a.Distance(b)
	if step <= 0 {
		step = 0.25
	}
	n := int(math.Ceil(dist / step))
	if n < 1 {
		n = 1
	}
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		if obs.IsBlocked(a.Add(b.Sub(a).Mult(t))) {
			return false
		}
	}
	return true
}

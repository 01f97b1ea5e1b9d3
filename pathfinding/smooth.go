package pathfinding

import (
	"math"

	"github.com/jakecoffman/cp"
)

// cornerAngle is the turn, in degrees, above which a waypoint is rounded.
const cornerAngle = 45.0

// smooth string-pulls raw starting at from: it keeps the furthest waypoint
// visible from the current anchor, then continues from that waypoint. When
// nothing beyond the next waypoint is visible, that waypoint is kept as is.
func (q *Query) smooth(from cp.Vector, raw []cp.Vector) []cp.Vector {
	if len(raw) <= 1 {
		return raw
	}
	step := q.grid.CellSize() * 0.25
	obs := q.grid.Obstacles()

	out := make([]cp.Vector, 0, len(raw))
	anchor := from
	for i := 0; i < len(raw); {
		furthest := i
		for j := i + 1; j < len(raw); j++ {
			if !segmentClear(obs, anchor, raw[j], step) {
				break
			}
			furthest = j
		}
		out = append(out, raw[furthest])
		anchor = raw[furthest]
		i = furthest + 1
	}
	return out
}

// HasLineOfSight reports whether the straight segment a-b misses every obstacle.
func (q *Query) HasLineOfSight(a, b cp.Vector) bool {
	return segmentClear(q.grid.Obstacles(), a, b, q.grid.CellSize()*0.25)
}

// cutCorners pulls each interior waypoint that turns sharper than 45 degrees
// toward both neighbors by dist. A rounded point is only used if walkable.
func cutCorners(path []cp.Vector, dist float64, walkable func(cp.Vector) bool) []cp.Vector {
	if len(path) <= 2 {
		return path
	}
	out := make([]cp.Vector, 0, len(path))
	out = append(out, path[0])
	for i := 1; i < len(path)-1; i++ {
		prev, cur, next := path[i-1], path[i], path[i+1]
		in := cur.Sub(prev)
		outDir := next.Sub(cur)
		if in.Length() == 0 || outDir.Length() == 0 {
			out = append(out, cur)
			continue
		}
		if turnDegrees(in.Normalize(), outDir.Normalize()) <= cornerAngle {
			out = append(out, cur)
			continue
		}
		cut := cur.Add(prev.Sub(cur).Normalize().Mult(dist)).Add(next.Sub(cur).Normalize().Mult(dist))
		if walkable != nil && !walkable(cut) {
			out = append(out, cur)
			continue
		}
		out = append(out, cut)
	}
	return append(out, path[len(path)-1])
}

func turnDegrees(a, b cp.Vector) float64 {
	dot := math.Max(-1, math.Min(1, a.Dot(b)))
	return math.Acos(dot) * 180 / math.Pi
}

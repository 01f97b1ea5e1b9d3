package pathfinding

import (
	"fmt"
	"math"
	"strings"

	"github.com/jakecoffman/cp"
)

// SamplingMode selects how a cell is tested against the obstacle predicate.
type SamplingMode int

const (
	// SamplePoint tests the cell center only.
	SamplePoint SamplingMode = iota
	// SampleCircle tests a circle of Radius at the cell center.
	SampleCircle
	// SampleSquare tests an axis-aligned box of side 2*Radius.
	SampleSquare
	// SampleMultiPoint tests a lattice of interior points covering 80% of the cell.
	SampleMultiPoint
	// SampleEdge tests Samples points on a circle of Radius around the center.
	SampleEdge
)

const (
	DefaultSampleRadiusFactor = 0.4
	DefaultSamples            = 9
	DefaultThreshold          = 0.5

	// multiPointSpan is the fraction of the cell the lattice covers.
	multiPointSpan = 0.8
)

var samplingModeNames = map[SamplingMode]string{
	SamplePoint:      "point",
	SampleCircle:     "circle",
	SampleSquare:     "square",
	SampleMultiPoint: "multi_point",
	SampleEdge:       "edge",
}

func (m SamplingMode) String() string {
	if name, ok := samplingModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SamplingMode(%d)", int(m))
}

// ParseSamplingMode accepts the names printed by String.
func ParseSamplingMode(s string) (SamplingMode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for mode, name := range samplingModeNames {
		if name == key {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("pathfinding: unknown sampling mode %q: %w", s, ErrInvalidConfig)
}

// Sampling is the per-deployment walkability test. Zero Radius, Samples and
// Threshold fall back to the defaults when the grid is built, unless Explicit
// is set, in which case a zero Radius or Threshold is used as given.
type Sampling struct {
	Mode      SamplingMode
	Radius    float64
	Samples   int
	Threshold float64
	Explicit  bool
}

func (s Sampling) withDefaults(cellSize float64) Sampling {
	if s.Samples == 0 {
		s.Samples = DefaultSamples
	}
	if s.Explicit {
		return s
	}
	if s.Radius == 0 {
		s.Radius = cellSize * DefaultSampleRadiusFactor
	}
	if s.Threshold == 0 {
		s.Threshold = DefaultThreshold
	}
	return s
}

func (s Sampling) validate() error {
	if _, ok := samplingModeNames[s.Mode]; !ok {
		return fmt.Errorf("pathfinding: sampling mode %d: %w", int(s.Mode), ErrInvalidConfig)
	}
	if s.Radius < 0 || math.IsNaN(s.Radius) {
		return fmt.Errorf("pathfinding: sampling radius %v: %w", s.Radius, ErrInvalidConfig)
	}
	if s.Samples < 1 {
		return fmt.Errorf("pathfinding: sample count %d: %w", s.Samples, ErrInvalidConfig)
	}
	if s.Threshold < 0 || s.Threshold > 1 || math.IsNaN(s.Threshold) {
		return fmt.Errorf("pathfinding: sampling threshold %v: %w", s.Threshold, ErrInvalidConfig)
	}
	return nil
}

// walkable classifies the cell centered on center.
func (s Sampling) walkable(obs Obstacles, center cp.Vector, cellSize float64) bool {
	switch s.Mode {
	case SamplePoint:
		return !obs.IsBlocked(center)
	case SampleCircle:
		return !obs.IsBlockedRegion(center, Circle(s.Radius))
	case SampleSquare:
		return !obs.IsBlockedRegion(center, Box(s.Radius))
	case SampleMultiPoint:
		return thresholdVote(multiPointSamples(center, cellSize, s.Samples), s.Threshold, obs)
	case SampleEdge:
		return thresholdVote(edgeSamples(center, s.Radius, s.Samples), s.Threshold, obs)
	default:
		return !obs.IsBlockedRegion(center, Circle(s.Radius))
	}
}

// multiPointSamples lays a ceil(sqrt(k)) square lattice over the central 80%
// of the cell.
func multiPointSamples(center cp.Vector, cellSize float64, k int) []cp.Vector {
	perSide := int(math.Ceil(math.Sqrt(float64(k))))
	if perSide <= 1 {
		return []cp.Vector{center}
	}
	span := cellSize * multiPointSpan
	step := span / float64(perSide-1)
	start := center.Sub(cp.Vector{X: span / 2, Y: span / 2})

	points := make([]cp.Vector, 0, perSide*perSide)
	for i := 0; i < perSide; i++ {
		for j := 0; j < perSide; j++ {
			points = append(points, start.Add(cp.Vector{X: float64(i) * step, Y: float64(j) * step}))
		}
	}
	return points
}

func edgeSamples(center cp.Vector, radius float64, k int) []cp.Vector {
	points := make([]cp.Vector, 0, k)
	for i := 0; i < k; i++ {
		angle := float64(i) / float64(k) * 2 * math.Pi
		points = append(points, center.Add(cp.Vector{X: math.Cos(angle) * radius, Y: math.Sin(angle) * radius}))
	}
	return points
}

// thresholdVote reports whether the unblocked share of points reaches
// threshold. It stops as soon as the outcome is decided either way.
func thresholdVote(points []cp.Vector, threshold float64, obs Obstacles) bool {
	total := len(points)
	if total == 0 {
		return false
	}
	if threshold <= 0 {
		return true
	}
	need := float64(total) * threshold
	open := 0
	for i, p := range points {
		remaining := total - i
		if float64(open+remaining) < need {
			return false
		}
		if !obs.IsBlocked(p) {
			open++
		}
		if float64(open) >= need {
			return true
		}
	}
	return float64(open)/float64(total) >= threshold
}

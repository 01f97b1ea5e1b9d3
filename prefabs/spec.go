package prefabs

import (
	"fmt"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/swarmpath/pathfinding"
	"gopkg.in/yaml.v3"
)

const NavSpecFile = "nav.yaml"

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

type VectorSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v VectorSpec) Vector() cp.Vector { return cp.Vector{X: v.X, Y: v.Y} }

type GridSpec struct {
	Width    int        `yaml:"width"`
	Height   int        `yaml:"height"`
	CellSize float64    `yaml:"cell_size"`
	Anchor   VectorSpec `yaml:"anchor"`
}

// SamplingSpec fills absent fields with the grid's defaults. Radius and
// Threshold are pointers so an explicit 0 survives.
type SamplingSpec struct {
	Mode      string   `yaml:"mode"`
	Radius    *float64 `yaml:"radius"`
	Samples   int      `yaml:"samples"`
	Threshold *float64 `yaml:"threshold"`
}

type MovementSpec struct {
	Diagonal  bool   `yaml:"diagonal"`
	Heuristic string `yaml:"heuristic"`
}

type QuerySpec struct {
	Smooth         *bool   `yaml:"smooth"`
	CornerCut      float64 `yaml:"corner_cut"`
	FallbackRadius int     `yaml:"fallback_radius"`
}

type RefreshSpec struct {
	Interval time.Duration `yaml:"interval"`
}

type AgentSpec struct {
	Count       int     `yaml:"count"`
	Speed       float64 `yaml:"speed"`
	RepathTicks int     `yaml:"repath_ticks"`
	Arrive      float64 `yaml:"arrive"`
}

// NavSpec is the navigation setup of one scene: grid geometry, the movement
// model, query options and the demo population driving it.
type NavSpec struct {
	Name         string       `yaml:"name"`
	Grid         GridSpec     `yaml:"grid"`
	Sampling     SamplingSpec `yaml:"sampling"`
	Movement     MovementSpec `yaml:"movement"`
	Query        QuerySpec    `yaml:"query"`
	Refresh      RefreshSpec  `yaml:"refresh"`
	Layout       string       `yaml:"layout"`
	TargetScript string       `yaml:"target_script"`
	Agents       AgentSpec    `yaml:"agents"`
}

func LoadNavSpec(filename string) (*NavSpec, error) {
	if filename == "" {
		filename = NavSpecFile
	}
	spec, err := LoadSpec[NavSpec](filename)
	if err != nil {
		return nil, err
	}
	spec.applyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return &spec, nil
}

func ParseNavSpec(data []byte) (*NavSpec, error) {
	var spec NavSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("prefabs: unmarshal nav spec: %w", err)
	}
	spec.applyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: nav spec: %w", err)
	}
	return &spec, nil
}

func (s *NavSpec) applyDefaults() {
	if s.Grid.CellSize == 0 {
		s.Grid.CellSize = 1
	}
	if s.Refresh.Interval == 0 {
		s.Refresh.Interval = pathfinding.DefaultRefreshInterval
	}
	if s.Query.FallbackRadius == 0 {
		s.Query.FallbackRadius = pathfinding.DefaultFallbackRadius
	}
	if s.Agents.Speed == 0 {
		s.Agents.Speed = 4
	}
	if s.Agents.RepathTicks == 0 {
		s.Agents.RepathTicks = 6
	}
	if s.Agents.Arrive == 0 {
		s.Agents.Arrive = 0.1 * s.Grid.CellSize
	}
}

// Validate checks every field the pathfinding constructors would reject, so
// a bad hot-reloaded file is refused before anything is rebuilt.
func (s *NavSpec) Validate() error {
	if _, err := s.GridConfig(); err != nil {
		return err
	}
	if _, err := s.FieldConfig(); err != nil {
		return err
	}
	if s.Refresh.Interval < 0 {
		return fmt.Errorf("%w: negative refresh interval %v", pathfinding.ErrInvalidConfig, s.Refresh.Interval)
	}
	if s.Agents.Count < 0 || s.Agents.Speed < 0 {
		return fmt.Errorf("%w: agents count %d speed %v", pathfinding.ErrInvalidConfig, s.Agents.Count, s.Agents.Speed)
	}
	return nil
}

func (s *NavSpec) GridConfig() (pathfinding.GridConfig, error) {
	mode := pathfinding.SampleMultiPoint
	if s.Sampling.Mode != "" {
		m, err := pathfinding.ParseSamplingMode(s.Sampling.Mode)
		if err != nil {
			return pathfinding.GridConfig{}, err
		}
		mode = m
	}
	radius := s.Grid.CellSize * pathfinding.DefaultSampleRadiusFactor
	if s.Sampling.Radius != nil {
		radius = *s.Sampling.Radius
	}
	threshold := pathfinding.DefaultThreshold
	if s.Sampling.Threshold != nil {
		threshold = *s.Sampling.Threshold
	}
	cfg := pathfinding.GridConfig{
		Width:    s.Grid.Width,
		Height:   s.Grid.Height,
		CellSize: s.Grid.CellSize,
		Anchor:   s.Grid.Anchor.Vector(),
		Sampling: pathfinding.Sampling{
			Mode:      mode,
			Radius:    radius,
			Samples:   s.Sampling.Samples,
			Threshold: threshold,
			Explicit:  true,
		},
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return cfg, fmt.Errorf("%w: grid %dx%d", pathfinding.ErrInvalidConfig, cfg.Width, cfg.Height)
	}
	if cfg.CellSize <= 0 {
		return cfg, fmt.Errorf("%w: cell size %v", pathfinding.ErrInvalidConfig, cfg.CellSize)
	}
	if radius < 0 || threshold < 0 || threshold > 1 {
		return cfg, fmt.Errorf("%w: sampling radius %v threshold %v", pathfinding.ErrInvalidConfig, radius, threshold)
	}
	return cfg, nil
}

func (s *NavSpec) FieldConfig() (pathfinding.FieldConfig, error) {
	h, err := pathfinding.ParseHeuristic(s.Movement.Heuristic)
	if err != nil {
		return pathfinding.FieldConfig{}, err
	}
	return pathfinding.FieldConfig{Diagonal: s.Movement.Diagonal, Heuristic: h}, nil
}

func (s *NavSpec) QueryConfig() pathfinding.QueryConfig {
	smooth := true
	if s.Query.Smooth != nil {
		smooth = *s.Query.Smooth
	}
	return pathfinding.QueryConfig{
		Smooth:         smooth,
		CornerCut:      s.Query.CornerCut,
		FallbackRadius: s.Query.FallbackRadius,
	}
}

package levels

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var LevelsFS embed.FS

// Tile characters understood in Layout rows. Anything else is open floor.
const (
	TileSolid  = '#'
	TileTarget = 'T'
	TileSpawn  = 'A'
)

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type Circle struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
}

// Box is an axis aligned obstacle given by its min corner and size.
type Box struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Layout is a tile map plus free-standing shapes, in world units.
// Row 0 is the row with the smallest Y.
type Layout struct {
	Name     string   `yaml:"name"`
	TileSize float64  `yaml:"tile_size"`
	Origin   Point    `yaml:"origin"`
	Bounds   bool     `yaml:"bounds"`
	Rows     []string `yaml:"rows"`
	Circles  []Circle `yaml:"circles,omitempty"`
	Boxes    []Box    `yaml:"boxes,omitempty"`
}

func (l *Layout) Width() int {
	if len(l.Rows) == 0 {
		return 0
	}
	return len(l.Rows[0])
}

func (l *Layout) Height() int { return len(l.Rows) }

func (l *Layout) Solid(x, y int) bool {
	if y < 0 || y >= len(l.Rows) || x < 0 || x >= len(l.Rows[y]) {
		return false
	}
	return l.Rows[y][x] == TileSolid
}

// TileCenter returns the world position of the center of tile (x, y).
func (l *Layout) TileCenter(x, y int) Point {
	return Point{
		X: l.Origin.X + (float64(x)+0.5)*l.TileSize,
		Y: l.Origin.Y + (float64(y)+0.5)*l.TileSize,
	}
}

// Target returns the center of the first 'T' tile.
func (l *Layout) Target() (Point, bool) {
	pts := l.find(TileTarget)
	if len(pts) == 0 {
		return Point{}, false
	}
	return pts[0], true
}

// Spawns returns the centers of all 'A' tiles in row order.
func (l *Layout) Spawns() []Point {
	return l.find(TileSpawn)
}

func (l *Layout) find(ch byte) []Point {
	var out []Point
	for y, row := range l.Rows {
		for x := 0; x < len(row); x++ {
			if row[x] == ch {
				out = append(out, l.TileCenter(x, y))
			}
		}
	}
	return out
}

func (l *Layout) Validate() error {
	if l.TileSize <= 0 {
		return fmt.Errorf("levels: %s: tile_size must be positive, got %v", l.Name, l.TileSize)
	}
	if len(l.Rows) == 0 {
		return fmt.Errorf("levels: %s: no rows", l.Name)
	}
	w := len(l.Rows[0])
	for i, row := range l.Rows {
		if len(row) != w {
			return fmt.Errorf("levels: %s: row %d has width %d, want %d", l.Name, i, len(row), w)
		}
	}
	for i, c := range l.Circles {
		if c.Radius <= 0 {
			return fmt.Errorf("levels: %s: circle %d has radius %v", l.Name, i, c.Radius)
		}
	}
	for i, b := range l.Boxes {
		if b.W <= 0 || b.H <= 0 {
			return fmt.Errorf("levels: %s: box %d has size %vx%v", l.Name, i, b.W, b.H)
		}
	}
	return nil
}

// Parse decodes and validates a layout. A missing tile_size defaults to 1.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("levels: unmarshal layout: %w", err)
	}
	if l.TileSize == 0 {
		l.TileSize = 1
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Load reads levels/<name>.yaml from disk when present, otherwise the
// embedded copy.
func Load(name string) (*Layout, error) {
	file := FileName(name)
	data, err := os.ReadFile(DiskPath(name))
	if err != nil {
		data, err = LevelsFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("levels: read %s: %w", file, err)
		}
	}
	l, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if l.Name == "" {
		l.Name = strings.TrimSuffix(file, ".yaml")
	}
	return l, nil
}

// FileName maps a layout name ("arena", "levels/arena.yaml") to its file name.
func FileName(name string) string {
	s := filepath.Base(filepath.ToSlash(name))
	if filepath.Ext(s) == "" {
		s += ".yaml"
	}
	return s
}

func DiskPath(name string) string {
	return filepath.Join("levels", FileName(name))
}

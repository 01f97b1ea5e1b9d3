package main

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"time"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/swarmpath/pathfinding"
	"github.com/milk9111/swarmpath/prefabs"
	"github.com/milk9111/swarmpath/sim"
	"golang.design/x/clipboard"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

const (
	baseWidth  = 1280
	baseHeight = 720
	hudHeight  = 40
	tickRate   = 60
)

type Game struct {
	frames int
	paused bool

	world   *sim.World
	sched   *sim.Scheduler
	target  *sim.TargetSystem
	watcher *prefabs.Watcher

	ui           *ebitenui.UI
	showSettings bool
	showCosts    bool
	showPaths    bool

	clipboardOK bool
	status      string
	face        ebtext.Face
}

func NewGame(specFile string, debug, watch bool) (*Game, error) {
	spec, err := prefabs.LoadNavSpec(specFile)
	if err != nil {
		return nil, err
	}

	var opts []sim.Option
	if debug {
		opts = append(opts, sim.WithLogger(log.Default()))
	}
	world, err := sim.NewWorld(spec, opts...)
	if err != nil {
		return nil, err
	}
	target, err := sim.NewTargetSystem(spec.TargetScript)
	if err != nil {
		return nil, err
	}

	g := &Game{
		world:     world,
		target:    target,
		showPaths: true,
		face:      ebtext.NewGoXFace(basicfont.Face7x13),
	}

	var changes <-chan prefabs.Change
	if watch {
		w, err := prefabs.NewWatcher(prefabs.ClassifyNavFile, "prefabs", "prefabs/scripts", "levels")
		if err != nil {
			log.Printf("game: hot reload disabled: %v", err)
		} else {
			g.watcher = w
			changes = w.Changes
			go func() {
				for err := range w.Errors {
					log.Printf("game: watcher: %v", err)
				}
			}()
		}
	}

	g.sched = sim.NewScheduler(
		sim.NewReloadSystem(changes, target),
		target,
		sim.NewRefreshSystem(),
		sim.NewSteeringSystem(),
		sim.NewSeparationSystem(),
	)

	if err := clipboard.Init(); err != nil {
		log.Printf("game: clipboard unavailable: %v", err)
	} else {
		g.clipboardOK = true
	}

	g.ui = NewSettingsUI(g)
	return g, nil
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) Update() error {
	g.frames++

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.showSettings = !g.showSettings
	}
	if g.showSettings {
		g.ui.Update()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showCosts = !g.showCosts
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.showPaths = !g.showPaths
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyD) {
		g.toggleDiagonal()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.toggleSmooth()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copyGrid()
	}
	if !g.showSettings {
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			x, y := ebiten.CursorPosition()
			g.target.Pin(g.world, g.screenToWorld(float64(x), float64(y)))
		}
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
			g.target.Unpin()
		}
	}

	if !g.paused {
		g.sched.Step(g.world, time.Second/tickRate)
	}
	return nil
}

func (g *Game) toggleDiagonal() {
	g.world.SetDiagonal(!g.world.Field.Config().Diagonal)
	g.status = fmt.Sprintf("diagonal movement: %v", g.world.Field.Config().Diagonal)
}

func (g *Game) toggleSmooth() {
	g.world.SetSmooth(!g.world.Query.Config().Smooth)
	g.status = fmt.Sprintf("path smoothing: %v", g.world.Query.Config().Smooth)
}

func (g *Game) copyGrid() {
	if !g.clipboardOK {
		g.status = "clipboard unavailable"
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(g.world.Grid.String()))
	g.status = fmt.Sprintf("copied %dx%d grid to clipboard", g.world.Grid.Width(), g.world.Grid.Height())
}

// view returns the pixels per world unit and the screen offset of the grid's
// min corner.
func (g *Game) view() (scale, ox, oy float64) {
	ext := g.world.Extent()
	w, h := ext.R-ext.L, ext.T-ext.B
	scale = math.Min(baseWidth/w, (baseHeight-hudHeight)/h)
	ox = (baseWidth - w*scale) / 2
	oy = hudHeight + (baseHeight-hudHeight-h*scale)/2
	return scale, ox, oy
}

func (g *Game) worldToScreen(p cp.Vector) (float32, float32) {
	scale, ox, oy := g.view()
	ext := g.world.Extent()
	return float32(ox + (p.X-ext.L)*scale), float32(oy + (p.Y-ext.B)*scale)
}

func (g *Game) screenToWorld(x, y float64) cp.Vector {
	scale, ox, oy := g.view()
	ext := g.world.Extent()
	return cp.Vector{X: ext.L + (x-ox)/scale, Y: ext.B + (y-oy)/scale}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Black)
	g.drawGrid(screen)
	g.drawObstacles(screen)
	g.drawAgents(screen)
	g.drawTarget(screen)
	g.drawHUD(screen)
	if g.showSettings {
		g.ui.Draw(screen)
	}
}

func (g *Game) drawGrid(screen *ebiten.Image) {
	grid := g.world.Grid
	scale, _, _ := g.view()
	side := float32(grid.CellSize() * scale)

	var costs []float64
	maxCost := 0.0
	if g.showCosts {
		g.world.Field.Snapshot(func(s *pathfinding.Scratch) {
			costs = append(costs, s.Cost...)
		})
		for _, c := range costs {
			if !math.IsInf(c, 1) && c > maxCost {
				maxCost = c
			}
		}
	}

	for i := 0; i < grid.Len(); i++ {
		c := grid.CoordAt(i)
		x, y := g.worldToScreen(grid.CellMin(c))
		var clr color.Color = color.RGBA{R: 0x1c, G: 0x1c, B: 0x22, A: 0xff}
		switch {
		case !grid.Walkable(c):
			clr = color.RGBA{R: 0x55, G: 0x55, B: 0x5c, A: 0xff}
		case costs != nil && maxCost > 0 && !math.IsInf(costs[i], 1):
			t := costs[i] / maxCost
			clr = color.RGBA{R: uint8(40 + 160*t), G: uint8(160 - 120*t), B: 0x50, A: 0xff}
		}
		vector.FillRect(screen, x, y, side-1, side-1, clr, false)
	}
}

func (g *Game) drawObstacles(screen *ebiten.Image) {
	scale, _, _ := g.view()
	for _, bb := range g.world.Obstacles.Boxes() {
		x, y := g.worldToScreen(cp.Vector{X: bb.L, Y: bb.B})
		vector.StrokeRect(screen, x, y, float32((bb.R-bb.L)*scale), float32((bb.T-bb.B)*scale), 1, colornames.Lightgrey, false)
	}
	for _, c := range g.world.Obstacles.Circles() {
		x, y := g.worldToScreen(c.Center)
		vector.StrokeCircle(screen, x, y, float32(c.Radius*scale), 1, colornames.Lightgrey, true)
	}
}

func (g *Game) drawAgents(screen *ebiten.Image) {
	scale, _, _ := g.view()
	r := float32(0.3 * g.world.Grid.CellSize() * scale)
	for _, a := range g.world.Agents {
		ax, ay := g.worldToScreen(a.Pos)
		if g.showPaths {
			px, py := ax, ay
			for _, wp := range a.Path {
				x, y := g.worldToScreen(wp)
				vector.StrokeLine(screen, px, py, x, y, 1, colornames.Steelblue, true)
				px, py = x, y
			}
		}
		vector.FillCircle(screen, ax, ay, r, colornames.Deepskyblue, true)
	}
}

func (g *Game) drawTarget(screen *ebiten.Image) {
	scale, _, _ := g.view()
	r := float32(0.45 * g.world.Grid.CellSize() * scale)
	x, y := g.worldToScreen(g.world.Target.Pos)
	if g.world.Target.Visible {
		vector.FillCircle(screen, x, y, r, colornames.Orangered, true)
	} else {
		vector.StrokeCircle(screen, x, y, r, 2, colornames.Orangered, true)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	w := g.world
	target, onGrid := w.Field.Target()
	line1 := fmt.Sprintf("FPS %.0f  tick %d  gen %d  passes %d  reached %d/%d  target (%d,%d) on-grid=%v",
		ebiten.ActualFPS(), w.Tick, w.Field.Generation(), w.Passes, w.Field.Reached(), w.Grid.WalkableCount(), target.X, target.Y, onGrid)
	line2 := "[Tab] settings  [Space] pause  [H] costs  [P] paths  [D] diagonal  [S] smooth  [C] copy grid  [LMB] pin target  [RMB] release"
	if g.status != "" {
		line2 = g.status
	}
	if g.paused {
		line1 = "PAUSED  " + line1
	}

	for i, line := range []string{line1, line2} {
		op := &ebtext.DrawOptions{}
		op.GeoM.Translate(8, float64(4+i*16))
		op.ColorScale.ScaleWithColor(colornames.White)
		ebtext.Draw(screen, line, g.face, op)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

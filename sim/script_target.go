package sim

import (
	"fmt"
	"log"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/swarmpath/prefabs"
)

// The script defines update(engine) and returns {x, y, visible}, or nothing
// to leave the target where it is.
const targetDispatchScript = `
__out = update(__engine)
`

// TargetSystem moves the target with a tengo script. Without a script, or
// while pinned, the target stays where it was put.
type TargetSystem struct {
	scriptName string
	compiled   *tengo.Compiled
	pinned     bool
}

func NewTargetSystem(scriptName string) (*TargetSystem, error) {
	s := &TargetSystem{}
	if scriptName == "" {
		return s, nil
	}
	if err := s.Load(scriptName); err != nil {
		return nil, err
	}
	return s, nil
}

// Load compiles scriptName and replaces the running script. On error the
// previous script keeps running.
func (s *TargetSystem) Load(scriptName string) error {
	src, err := prefabs.LoadScript(scriptName)
	if err != nil {
		return fmt.Errorf("sim: load target script %s: %w", scriptName, err)
	}
	compiled, err := compileTargetScript(src)
	if err != nil {
		return fmt.Errorf("sim: compile target script %s: %w", scriptName, err)
	}
	s.scriptName = prefabs.ScriptName(scriptName)
	s.compiled = compiled
	return nil
}

func compileTargetScript(src []byte) (*tengo.Compiled, error) {
	script := tengo.NewScript(append(append([]byte{}, src...), []byte("\n"+targetDispatchScript)...))
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__out", nil)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	return script.Compile()
}

func (s *TargetSystem) ScriptName() string { return s.scriptName }

// Pin holds the target at p until Unpin.
func (s *TargetSystem) Pin(w *World, p cp.Vector) {
	s.pinned = true
	w.Target = Target{Pos: p, Visible: true}
}

func (s *TargetSystem) Unpin() { s.pinned = false }

func (s *TargetSystem) Pinned() bool { return s.pinned }

func (s *TargetSystem) Update(w *World) {
	if s == nil || w == nil || s.compiled == nil || s.pinned {
		return
	}
	if err := s.compiled.Set("__engine", buildTargetEngine(w)); err != nil {
		log.Printf("sim: target script %s: %v", s.scriptName, err)
		return
	}
	if err := s.compiled.Set("__out", nil); err != nil {
		log.Printf("sim: target script %s: %v", s.scriptName, err)
		return
	}
	if err := s.compiled.Run(); err != nil {
		log.Printf("sim: target script %s: %v", s.scriptName, err)
		return
	}

	out := s.compiled.Get("__out").Map()
	if out == nil {
		return
	}
	x, okX := toFloat(out["x"])
	y, okY := toFloat(out["y"])
	if okX && okY {
		w.Target.Pos = cp.Vector{X: x, Y: y}
	}
	if v, ok := out["visible"].(bool); ok {
		w.Target.Visible = v
	}
}

func buildTargetEngine(w *World) *tengo.ImmutableMap {
	ext := w.Extent()
	values := map[string]tengo.Object{
		"t":      &tengo.Float{Value: w.Elapsed.Seconds()},
		"dt":     &tengo.Float{Value: w.DT.Seconds()},
		"tick":   &tengo.Int{Value: int64(w.Tick)},
		"x":      &tengo.Float{Value: w.Target.Pos.X},
		"y":      &tengo.Float{Value: w.Target.Pos.Y},
		"min_x":  &tengo.Float{Value: ext.L},
		"min_y":  &tengo.Float{Value: ext.B},
		"width":  &tengo.Float{Value: ext.R - ext.L},
		"height": &tengo.Float{Value: ext.T - ext.B},
	}
	values["walkable"] = &tengo.UserFunction{Name: "walkable", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		x, okX := tengo.ToFloat64(args[0])
		y, okY := tengo.ToFloat64(args[1])
		if !okX || !okY {
			return tengo.FalseValue, nil
		}
		if w.Grid.IsWalkable(cp.Vector{X: x, Y: y}) {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}
	return &tengo.ImmutableMap{Value: values}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

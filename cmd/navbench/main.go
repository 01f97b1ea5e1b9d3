package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/milk9111/swarmpath/pathfinding"
	"github.com/milk9111/swarmpath/prefabs"
	"github.com/milk9111/swarmpath/sim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	specFile := flag.String("nav", prefabs.NavSpecFile, "navigation spec in prefabs/")
	layout := flag.String("layout", "", "override the nav file's layout")
	script := flag.String("script", "", "override the nav file's target script")
	agents := flag.Int("agents", -1, "override the nav file's agent count")
	ticks := flag.Int("ticks", 600, "ticks to simulate")
	dt := flag.Duration("dt", time.Second/60, "simulated time per tick")
	every := flag.Int("report", 60, "log a status line every N ticks (0 disables)")
	debug := flag.Bool("debug", false, "log every pathfinding pass")
	dump := flag.Bool("grid", false, "print the walkability grid and exit")
	addr := flag.String("metrics", "", "serve Prometheus metrics on this address, e.g. :9090")
	hold := flag.Bool("hold", false, "keep serving metrics after the run until interrupted")
	flag.Parse()

	spec, err := prefabs.LoadNavSpec(*specFile)
	if err != nil {
		log.Fatal(err)
	}
	if *layout != "" {
		spec.Layout = *layout
	}
	if *script != "" {
		spec.TargetScript = *script
	}
	if *agents >= 0 {
		spec.Agents.Count = *agents
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := pathfinding.NewMetrics(reg)

	opts := []sim.Option{sim.WithMetrics(metrics)}
	if *debug {
		opts = append(opts, sim.WithLogger(log.Default()))
	}
	world, err := sim.NewWorld(spec, opts...)
	if err != nil {
		log.Fatal(err)
	}
	if *dump {
		fmt.Print(world.Grid.String())
		return
	}

	target, err := sim.NewTargetSystem(spec.TargetScript)
	if err != nil {
		log.Fatal(err)
	}
	sched := sim.NewScheduler(
		target,
		sim.NewRefreshSystem(),
		sim.NewSteeringSystem(),
		sim.NewSeparationSystem(),
	)

	if *addr != "" {
		srv := &http.Server{Addr: *addr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("navbench: metrics server: %v", err)
			}
		}()
		log.Printf("navbench: serving metrics on %s/metrics", *addr)
	}

	start := time.Now()
	for i := 0; i < *ticks; i++ {
		sched.Step(world, *dt)
		if *every > 0 && world.Tick%uint64(*every) == 0 {
			logStatus(world)
		}
	}
	wall := time.Since(start)

	log.Printf("navbench: %d ticks (%v simulated) in %v, %d passes", world.Tick, world.Elapsed, wall, world.Passes)
	report(world)

	if *addr != "" && *hold {
		log.Printf("navbench: holding, interrupt to exit")
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt)
		<-stop
	}
}

func logStatus(w *sim.World) {
	cell, onGrid := w.Field.Target()
	arrived := 0
	for _, a := range w.Agents {
		if a.Arrived() {
			arrived++
		}
	}
	log.Printf("navbench: tick=%d gen=%d passes=%d reached=%d target=(%d,%d) on_grid=%v arrived=%d/%d",
		w.Tick, w.Field.Generation(), w.Passes, w.Field.Reached(), cell.X, cell.Y, onGrid, arrived, len(w.Agents))
}

// report times one query per agent against the current field.
func report(w *sim.World) {
	if len(w.Agents) == 0 {
		return
	}
	waypoints, empty := 0, 0
	start := time.Now()
	for _, a := range w.Agents {
		path := w.Query.GetPathFrom(a.Pos)
		if len(path) == 0 {
			empty++
		}
		waypoints += len(path)
	}
	elapsed := time.Since(start)
	log.Printf("navbench: %d queries in %v (%v each), %.1f waypoints avg, %d empty",
		len(w.Agents), elapsed, elapsed/time.Duration(len(w.Agents)), float64(waypoints)/float64(len(w.Agents)), empty)
}

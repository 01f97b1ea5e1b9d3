package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	specFile := flag.String("nav", "nav.yaml", "navigation spec in prefabs/ (disk copy overrides the embedded one)")
	debug := flag.Bool("debug", false, "log every pathfinding pass")
	watch := flag.Bool("watch", true, "hot reload prefabs/ and levels/ on change")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("swarmpath")
	ebiten.SetTPS(tickRate)

	game, err := NewGame(*specFile, *debug, *watch)
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}

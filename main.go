package main

import (
	"errors"
	"flag"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"

	"github.com/milk9111/lofifm/prefabs"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging and the pick overlay")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	modelName := flag.String("model", prefabs.DefaultModel, "model spec in prefabs/ (disk copy wins over the embedded one)")
	statusAddr := flag.String("status-addr", "", "serve status lines over websocket at ws://ADDR/status")
	statusScript := flag.String("status-script", "", "tengo script formatting the status line (overrides the model's)")
	volume := flag.Float64("volume", 0, "music volume in (0,1]; 0 uses the model's")
	watch := flag.Bool("watch", false, "hot reload prefabs/ on change")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle("lofi fm")

	game, err := NewGame(Options{
		Model:        *modelName,
		Debug:        *debug,
		StatusAddr:   *statusAddr,
		StatusScript: *statusScript,
		Volume:       *volume,
		Watch:        *watch,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("start")
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Error().Err(err).Msg("game exited")
	}
}

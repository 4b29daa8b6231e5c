package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"
	"golang.design/x/clipboard"

	"github.com/milk9111/lofifm/anim"
	"github.com/milk9111/lofifm/common"
	"github.com/milk9111/lofifm/interact"
	"github.com/milk9111/lofifm/playback"
	"github.com/milk9111/lofifm/prefabs"
	"github.com/milk9111/lofifm/scene"
	"github.com/milk9111/lofifm/schedule"
	"github.com/milk9111/lofifm/sound"
	"github.com/milk9111/lofifm/status"
)

type Options struct {
	Model        string
	Debug        bool
	StatusAddr   string
	StatusScript string
	Volume       float64
	Watch        bool
}

type Game struct {
	opts Options
	log  zerolog.Logger

	spec  *prefabs.ModelSpec
	model *scene.Model

	sched  *schedule.Scheduler
	anims  *anim.Registry
	unit   *sound.Unit
	seq    *playback.Sequencer
	router *interact.Router
	input  *Input

	reporter *status.Reporter
	hub      *status.Hub
	overlay  *StatusUI
	watcher  *prefabs.Watcher

	clipboardOK bool
}

func NewGame(opts Options, logger zerolog.Logger) (*Game, error) {
	if opts.Model == "" {
		opts.Model = prefabs.DefaultModel
	}
	spec, err := prefabs.LoadModelSpec(opts.Model)
	if err != nil {
		return nil, err
	}
	model, err := scene.Build(spec)
	if err != nil {
		return nil, fmt.Errorf("build model %s: %w", opts.Model, err)
	}

	g := &Game{
		opts:  opts,
		log:   logger.With().Str("component", "game").Logger(),
		spec:  spec,
		model: model,
		sched: schedule.NewScheduler(),
		anims: anim.NewRegistry(logger),
		input: NewInput(),
	}
	g.anims.RegisterAll(clipsFor(spec))
	g.unit = sound.NewUnit(sound.NewBackend(sound.DefaultSampleRate, logger), logger)

	g.seq = playback.NewSequencer(g.anims, g.unit, g.sched, sequencerConfig(spec, opts), logger)
	g.router = interact.NewRouter(g.model, g.seq, g.anims, g.unit, g.sched, routerConfig(spec), logger)

	g.overlay = NewStatusUI()
	sinks := status.Multi{status.NewLogSink(logger), g.overlay}
	if opts.StatusAddr != "" {
		g.hub = status.NewHub(logger)
		if err := g.hub.Listen(opts.StatusAddr); err != nil {
			g.log.Error().Err(err).Str("addr", opts.StatusAddr).Msg("status hub unavailable")
			g.hub = nil
		} else {
			sinks = append(sinks, g.hub)
		}
	}
	g.reporter = status.NewReporter(g.loadFormatter(), sinks, logger)
	g.seq.SetListener(func(playback.State, string) { g.report() })

	if opts.Watch {
		w, err := prefabs.NewWatcher(prefabs.DiskDir(), filepath.Join(prefabs.DiskDir(), "scripts"))
		if err != nil {
			g.log.Warn().Err(err).Msg("hot reload disabled")
		} else {
			g.watcher = w
		}
	}

	if err := clipboard.Init(); err != nil {
		g.log.Warn().Err(err).Msg("clipboard unavailable")
	} else {
		g.clipboardOK = true
	}

	g.router.Refresh()
	g.report()
	return g, nil
}

func clipsFor(spec *prefabs.ModelSpec) []anim.Clip {
	clips := make([]anim.Clip, 0, len(spec.Clips))
	for _, c := range spec.Clips {
		clips = append(clips, anim.Clip{Name: c.Name, Duration: c.Duration(), Loop: c.Loop})
	}
	return clips
}

func sequencerConfig(spec *prefabs.ModelSpec, opts Options) playback.Config {
	volume := spec.Volume
	if opts.Volume > 0 {
		volume = opts.Volume
	}
	return playback.Config{
		Tracks:      spec.Tracks,
		Volume:      volume,
		DefaultClip: spec.Timings.DefaultClip(),
		SwitchDelay: spec.Timings.SwitchDelay(),
	}
}

func routerConfig(spec *prefabs.ModelSpec) interact.Config {
	return interact.Config{
		ClickEffect:   spec.Effects.Click,
		SwitchEffect:  spec.Effects.Switch,
		EffectVolume:  spec.Effects.Volume,
		ButtonFloor:   spec.Timings.ButtonFloor(),
		RotationSpeed: spec.Timings.RotationSpeed,
		Palette:       paletteFor(spec),
	}
}

func (g *Game) loadFormatter() status.Formatter {
	name := g.opts.StatusScript
	if name == "" {
		name = g.spec.Status.Script
	}
	if name == "" {
		return status.PlainFormatter{}
	}
	f, err := status.LoadScriptFormatter(name)
	if err != nil {
		g.log.Warn().Err(err).Msg("using plain status lines")
		return status.PlainFormatter{}
	}
	return f
}

func (g *Game) report() {
	g.reporter.Update(status.Snapshot{
		State:  g.seq.State().String(),
		Track:  g.seq.TrackName(),
		Index:  g.seq.Track(),
		Tracks: len(g.seq.Tracks()),
	})
}

func (g *Game) Update() (err error) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Interface("panic", r).Msg("update recovered")
		}
	}()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.pollWatcher()
	g.handleKeys()
	g.router.Tick(g.input.Pointers()...)

	dt := common.TickDuration
	g.anims.Update(dt)
	g.sched.Advance(dt)
	if g.seq.State() == playback.Playing {
		g.model.SpinVinyl(dt, g.spec.Timings.VinylRPM)
	}

	g.overlay.Update()
	return nil
}

func (g *Game) handleKeys() {
	keys := []struct {
		key    ebiten.Key
		button string
	}{
		{ebiten.KeySpace, scene.ButtonPlay},
		{ebiten.KeyArrowLeft, scene.ButtonPrevious},
		{ebiten.KeyArrowRight, scene.ButtonNext},
	}
	for _, k := range keys {
		if inpututil.IsKeyJustPressed(k.key) {
			g.router.Press(k.button)
		}
		if inpututil.IsKeyJustReleased(k.key) {
			g.router.Release()
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copyTrackName()
	}
}

func (g *Game) copyTrackName() {
	if !g.clipboardOK {
		return
	}
	name := status.Snapshot{Track: g.seq.TrackName()}.Name()
	clipboard.Write(clipboard.FmtText, []byte(name))
	g.log.Info().Str("track", name).Msg("copied track name")
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	drawModel(screen, g.model, g.anims, g.seq.State())
	if at, ok := g.input.GamepadCursor(); ok {
		drawCursor(screen, at)
	}
	g.overlay.Draw(screen)

	if g.opts.Debug {
		drawPickDebug(screen, g.model)
		next := "-"
		if wait, ok := g.sched.NextDue(); ok {
			next = wait.Round(time.Millisecond).String()
		}
		ebitenutil.DebugPrint(screen, fmt.Sprintf("TPS: %.1f  state: %s  locked: %v  pending: %d  next: %s",
			ebiten.ActualTPS(), g.seq.State(), g.router.Locked(), g.sched.Pending(), next))
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return common.BaseWidth, common.BaseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

// Close stops playback and releases every resource the game opened.
func (g *Game) Close() {
	g.sched.Reset()
	g.seq.Close()
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	if g.hub != nil {
		_ = g.hub.Close()
	}
}

package interact

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/lofifm/anim"
	"github.com/milk9111/lofifm/playback"
	"github.com/milk9111/lofifm/prefabs"
	"github.com/milk9111/lofifm/scene"
	"github.com/milk9111/lofifm/schedule"
	"github.com/milk9111/lofifm/sound"
	"github.com/milk9111/lofifm/sound/soundtest"
	"github.com/milk9111/lofifm/visual"
)

var (
	atPlay  = scene.Vec3{X: 820, Y: 490}
	atNext  = scene.Vec3{X: 848, Y: 244}
	atPrev  = scene.Vec3{X: 798, Y: 244}
	atVinyl = scene.Vec3{X: 580, Y: 380}
	nowhere = scene.Vec3{X: 5, Y: 5}
)

// countingPlayer wraps the sequencer to count toggles and lock releases.
type countingPlayer struct {
	*playback.Sequencer
	toggles  int
	accepted int
	settled  int
}

func (c *countingPlayer) RequestToggle(onSettled func()) bool {
	c.toggles++
	ok := c.Sequencer.RequestToggle(func() {
		c.settled++
		onSettled()
	})
	if ok {
		c.accepted++
	}
	return ok
}

type harness struct {
	router  *Router
	model   *scene.Model
	player  *countingPlayer
	reg     *anim.Registry
	backend *soundtest.Backend
	sched   *schedule.Scheduler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	spec, err := prefabs.LoadModelSpec(prefabs.DefaultModel)
	require.NoError(t, err)
	model, err := scene.Build(spec)
	require.NoError(t, err)

	h := &harness{
		model:   model,
		reg:     anim.NewRegistry(zerolog.Nop()),
		backend: &soundtest.Backend{},
		sched:   schedule.NewScheduler(),
	}
	for _, c := range spec.Clips {
		h.reg.Register(anim.Clip{Name: c.Name, Duration: c.Duration(), Loop: c.Loop})
	}
	unit := sound.NewUnit(h.backend, zerolog.Nop())
	seq := playback.NewSequencer(h.reg, unit, h.sched, playback.Config{
		Tracks: spec.Tracks,
		Volume: spec.Volume,
	}, zerolog.Nop())
	h.player = &countingPlayer{Sequencer: seq}
	h.router = NewRouter(model, h.player, h.reg, unit, h.sched, Config{
		ClickEffect:  spec.Effects.Click,
		SwitchEffect: spec.Effects.Switch,
		EffectVolume: spec.Effects.Volume,
		ButtonFloor:  spec.Timings.ButtonFloor(),
	}, zerolog.Nop())
	return h
}

func (h *harness) advance(d time.Duration) {
	const frame = time.Second / 60
	for d > 0 {
		step := frame
		if d < step {
			step = d
		}
		h.reg.Update(step)
		h.sched.Advance(step)
		d -= step
	}
}

func (h *harness) click(at scene.Vec3) {
	h.router.Tick(Pointer{ID: 0, Present: true, Down: true, Position: at})
	h.router.Tick(Pointer{ID: 0, Present: true, Down: false, Position: at})
}

func (h *harness) node(t *testing.T, name string) *scene.Node {
	t.Helper()
	n, ok := h.model.Find(name)
	require.True(t, ok)
	return n
}

func (h *harness) effects(path string) int {
	n := 0
	for _, o := range h.backend.Opened {
		if o.Path == path && !o.Loop {
			n++
		}
	}
	return n
}

func TestRapidPressesStartPlaybackOnce(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 5; i++ {
		h.click(atPlay)
		h.advance(10 * time.Millisecond)
	}
	assert.True(t, h.router.Locked())
	assert.Equal(t, 1, h.effects("click.wav"), "only the accepted press clicks")

	h.advance(450 * time.Millisecond)
	assert.Equal(t, playback.Starting, h.player.State())
	assert.True(t, h.router.Locked())

	h.advance(time.Second)
	assert.Equal(t, playback.Playing, h.player.State())
	assert.False(t, h.router.Locked())
	assert.Equal(t, 1, h.player.toggles)
	assert.Equal(t, 1, h.player.accepted)
	assert.Equal(t, 1, h.player.settled)
	assert.Len(t, h.backend.Playing(), 1)
}

func TestDispatchWaitsForButtonFloor(t *testing.T) {
	h := newHarness(t)

	h.click(atPlay)
	h.advance(490 * time.Millisecond)
	assert.Equal(t, playback.Stopped, h.player.State())
	assert.Zero(t, h.player.toggles)

	h.advance(10 * time.Millisecond)
	assert.Equal(t, playback.Starting, h.player.State())
}

func TestRefusedToggleReleasesLock(t *testing.T) {
	h := newHarness(t)

	h.click(atPlay)
	h.advance(1500 * time.Millisecond)
	require.Equal(t, playback.Playing, h.player.State())

	h.click(atPlay)
	h.advance(500 * time.Millisecond)
	require.Equal(t, playback.Stopping, h.player.State())
	require.False(t, h.router.Locked(), "stop settles before stylus_Off finishes")

	h.click(atPlay)
	assert.True(t, h.router.Locked())
	h.advance(500 * time.Millisecond)
	assert.Equal(t, playback.Stopping, h.player.State())
	assert.Equal(t, 3, h.player.toggles)
	assert.Equal(t, 2, h.player.accepted)
	assert.False(t, h.router.Locked())

	h.advance(time.Second)
	assert.Equal(t, playback.Stopped, h.player.State())
	assert.Empty(t, h.backend.Playing())
}

func TestTrackButtons(t *testing.T) {
	h := newHarness(t)
	tracks := h.player.Tracks()
	require.Len(t, tracks, 2)

	h.click(atNext)
	h.advance(500 * time.Millisecond)
	assert.Equal(t, 1, h.player.Track())
	assert.False(t, h.router.Locked())
	assert.Equal(t, 1, h.effects("record_scratch.wav"))

	h.click(atPrev)
	h.advance(500 * time.Millisecond)
	assert.Equal(t, 0, h.player.Track())
	assert.Zero(t, h.player.toggles, "track buttons never toggle")
}

func TestHoverAndPressedVisuals(t *testing.T) {
	h := newHarness(t)
	play := h.node(t, "play_button")
	next := h.node(t, "next_button")

	h.router.Tick(Pointer{Present: true, Position: atPlay})
	assert.Equal(t, visual.KindHovering, play.Material.Kind)
	assert.Equal(t, visual.KindIdle, next.Material.Kind)

	h.router.Tick(Pointer{Present: true, Down: true, Position: atPlay})
	assert.Equal(t, visual.KindPressed, play.Material.Kind)

	h.router.Tick(Pointer{Present: true, Position: nowhere})
	assert.Equal(t, visual.KindIdle, play.Material.Kind)
	assert.True(t, h.router.Locked(), "release does not drop the lock")

	h.advance(1500 * time.Millisecond)
	assert.Equal(t, visual.KindPlaying, play.Material.Kind)
	assert.Equal(t, visual.KindIdle, next.Material.Kind, "only the play button shows playing")

	h.router.Tick(Pointer{Present: true, Position: atNext})
	assert.Equal(t, visual.KindHovering, next.Material.Kind)
	assert.Equal(t, next.Material, h.router.Visuals(next))
	assert.Equal(t, visual.KindPlaying, play.Material.Kind)
}

func TestButtonUpOnRelease(t *testing.T) {
	h := newHarness(t)

	h.router.Tick(Pointer{Present: true, Down: true, Position: atPlay})
	assert.True(t, h.reg.IsPlaying(anim.ButtonDown))
	assert.False(t, h.reg.IsPlaying(anim.ButtonUp))

	h.router.Tick(Pointer{Present: true, Position: atPlay})
	assert.True(t, h.reg.IsPlaying(anim.ButtonUp))
}

func TestMissingControllers(t *testing.T) {
	h := newHarness(t)
	play := h.node(t, "play_button")

	assert.NotPanics(t, func() {
		h.router.Tick()
		h.router.Tick(Pointer{ID: 3})
	})
	assert.False(t, h.router.Locked())

	h.router.Tick(Pointer{Present: true, Down: true, Position: atPlay})
	require.Equal(t, visual.KindPressed, play.Material.Kind)

	// The controller vanishes mid-press: the press ends, the lock stays.
	h.router.Tick()
	assert.Equal(t, visual.KindIdle, play.Material.Kind)
	assert.True(t, h.router.Locked())
	h.advance(1500 * time.Millisecond)
	assert.False(t, h.router.Locked())
}

func TestDragRotatesTopNode(t *testing.T) {
	h := newHarness(t)
	cabinet := h.node(t, "record_player")
	vinyl := h.node(t, "vinyl")

	h.router.Tick(Pointer{Present: true, Down: true, Position: atVinyl})
	drag := h.router.Drag()
	require.True(t, drag.Active)
	assert.Same(t, cabinet, drag.Target.Value())

	h.router.Tick(Pointer{Present: true, Down: true, Position: atVinyl.Add(scene.Vec3{X: 50})})
	assert.InDelta(t, 0.5, cabinet.Yaw, 1e-9)
	assert.Zero(t, vinyl.Yaw, "the dragged node is the top-level ancestor")

	h.router.Tick(Pointer{Present: true, Position: atVinyl.Add(scene.Vec3{X: 50})})
	assert.False(t, h.router.Drag().Active)

	h.router.Tick(Pointer{Present: true, Position: atVinyl.Add(scene.Vec3{X: 500})})
	assert.InDelta(t, 0.5, cabinet.Yaw, 1e-9, "hover does not rotate")
	assert.Zero(t, h.player.toggles)
}

func TestDragClampsPitch(t *testing.T) {
	h := newHarness(t)
	cabinet := h.node(t, "record_player")

	start := scene.Vec3{X: 400, Y: 200}
	h.router.Tick(Pointer{Present: true, Down: true, Position: start})
	for i := 1; i <= 10; i++ {
		h.router.Tick(Pointer{Present: true, Down: true, Position: start.Add(scene.Vec3{Y: float64(i) * 100})})
		assert.LessOrEqual(t, math.Abs(cabinet.Pitch), scene.MaxPitch)
	}
	assert.InDelta(t, scene.MaxPitch, cabinet.Pitch, 1e-9)

	// Fully tilted, the buttons still answer and the player can be turned back.
	h.router.Tick(Pointer{Present: true, Position: start})
	require.False(t, h.router.Drag().Active)
	h.router.Tick(Pointer{Present: true, Position: scene.Vec3{X: 820, Y: 385.5}})
	play := h.node(t, "play_button")
	assert.Equal(t, visual.KindHovering, play.Material.Kind)

	h.router.Tick(Pointer{Present: true, Down: true, Position: scene.Vec3{X: 400, Y: 380}})
	require.True(t, h.router.Drag().Active)
	h.router.Tick(Pointer{Present: true, Down: true, Position: scene.Vec3{X: 400, Y: 280}})
	assert.InDelta(t, scene.MaxPitch-1, cabinet.Pitch, 1e-9)
}

func TestKeyboardPressSharesLock(t *testing.T) {
	h := newHarness(t)

	assert.True(t, h.router.Press(scene.ButtonPlay))
	assert.False(t, h.router.Press(scene.ButtonPlay))
	h.click(atPlay)
	h.router.Release()

	h.advance(1500 * time.Millisecond)
	assert.Equal(t, playback.Playing, h.player.State())
	assert.Equal(t, 1, h.player.toggles)
	assert.False(t, h.router.Press("eject"))
}

func TestSetPickerDropsSceneReferences(t *testing.T) {
	h := newHarness(t)

	h.router.Tick(Pointer{Present: true, Down: true, Position: atVinyl})
	require.True(t, h.router.Drag().Active)

	spec, err := prefabs.LoadModelSpec(prefabs.DefaultModel)
	require.NoError(t, err)
	next, err := scene.Build(spec)
	require.NoError(t, err)
	next.CopyPose(h.model)

	h.router.SetPicker(next)
	assert.False(t, h.router.Drag().Active)

	h.router.Tick(Pointer{Present: true, Position: atPlay})
	play, _ := next.Find("play_button")
	assert.Equal(t, visual.KindHovering, play.Material.Kind)
}

func TestConfigurePalette(t *testing.T) {
	h := newHarness(t)
	play := h.node(t, "play_button")

	h.router.Tick(Pointer{Present: true, Position: atPlay})
	require.Equal(t, visual.KindHovering, play.Material.Kind)
	assert.Equal(t, visual.DefaultPalette().Hover, play.Material.Emissive)

	pal := visual.DefaultPalette()
	pal.Hover = pal.Pressed
	h.router.Configure(Config{Palette: pal})
	assert.Equal(t, pal.Pressed, play.Material.Emissive)
}

// Package interact turns per-tick pointer samples into button presses, hover
// changes and drag rotation of the record player.
package interact

import (
	"time"
	"weak"

	"github.com/milk9111/lofifm/anim"
	"github.com/milk9111/lofifm/playback"
	"github.com/milk9111/lofifm/scene"
	"github.com/milk9111/lofifm/sound"
	"github.com/milk9111/lofifm/visual"
	"github.com/rs/zerolog"
)

// Picker answers which node sits under a pointer.
type Picker interface {
	Pick(p scene.Vec3) (scene.Hit, bool)
	Interactive() *scene.Node
	Buttons() []*scene.Node
}

// Player is the subset of playback.Sequencer the router drives.
type Player interface {
	RequestToggle(onSettled func()) bool
	State() playback.State
	Next()
	Previous()
}

type Animator interface {
	Play(name string, loop bool) bool
	Duration(name string, fallback time.Duration) time.Duration
	Has(name string) bool
}

type Effects interface {
	PlayEffect(path string, volume float64) sound.Handle
}

type Timer interface {
	After(d time.Duration, task func())
}

// Pointer is one controller's sample for the current tick.
type Pointer struct {
	ID       int
	Present  bool
	Down     bool
	Position scene.Vec3
}

type Config struct {
	ClickEffect  string
	SwitchEffect string
	EffectVolume float64
	// ButtonFloor is the shortest wait between a press and its dispatch.
	ButtonFloor time.Duration
	// RotationSpeed is radians of rotation per unit of pointer travel.
	RotationSpeed float64
	Palette       visual.Palette
}

const (
	DefaultButtonFloor   = 500 * time.Millisecond
	DefaultRotationSpeed = 0.01
)

// DragState tracks an in-progress drag rotation. Target does not keep the
// node alive; the scene owns it.
type DragState struct {
	Active     bool
	Controller int
	Target     weak.Pointer[scene.Node]
	Previous   scene.Vec3
}

type controller struct {
	down  bool
	hover *scene.Node
}

// keyboardController is the controller id used by Press/Release.
const keyboardController = -1

type Router struct {
	picker Picker
	player Player
	anim   Animator
	fx     Effects
	timer  Timer
	cfg    Config
	log    zerolog.Logger

	// locked is held from an accepted press until its sequence settles.
	locked    bool
	pressed   *scene.Node
	pressedBy int

	controllers map[int]*controller
	drag        DragState
}

func (c Config) withDefaults() Config {
	if c.ButtonFloor <= 0 {
		c.ButtonFloor = DefaultButtonFloor
	}
	if c.RotationSpeed == 0 {
		c.RotationSpeed = DefaultRotationSpeed
	}
	if c.Palette == (visual.Palette{}) {
		c.Palette = visual.DefaultPalette()
	}
	return c
}

func NewRouter(picker Picker, player Player, animator Animator, fx Effects, timer Timer, cfg Config, logger zerolog.Logger) *Router {
	return &Router{
		picker:      picker,
		player:      player,
		anim:        animator,
		fx:          fx,
		timer:       timer,
		cfg:         cfg.withDefaults(),
		log:         logger.With().Str("component", "interact").Logger(),
		controllers: make(map[int]*controller),
	}
}

// Configure replaces effects, timings and palette. A press already in flight
// keeps the floor it was scheduled with.
func (r *Router) Configure(cfg Config) {
	r.cfg = cfg.withDefaults()
	r.Refresh()
}

// SetPicker swaps the scene after a model reload. Hover, drag and pressed
// references into the old scene are dropped; the debounce lock is kept so an
// in-flight sequence still releases it.
func (r *Router) SetPicker(p Picker) {
	r.picker = p
	r.pressed = nil
	r.drag = DragState{}
	for _, c := range r.controllers {
		c.hover = nil
	}
	r.Refresh()
}

// Locked reports whether a press sequence is in flight.
func (r *Router) Locked() bool {
	return r.locked
}

func (r *Router) Drag() DragState {
	return r.drag
}

// Tick processes this frame's pointer samples. Controllers missing from
// pointers are treated as absent: their hover clears and a held press is
// released.
func (r *Router) Tick(pointers ...Pointer) {
	seen := make(map[int]bool, len(pointers))
	for _, p := range pointers {
		seen[p.ID] = true
		if !p.Present {
			r.absent(p.ID)
			continue
		}
		r.tickPointer(p)
	}
	for id := range r.controllers {
		if id != keyboardController && !seen[id] {
			r.absent(id)
		}
	}
	r.Refresh()
}

func (r *Router) tickPointer(p Pointer) {
	c := r.controller(p.ID)
	began := p.Down && !c.down
	ended := !p.Down && c.down
	c.down = p.Down

	var hit scene.Hit
	ok := false
	if r.picker != nil {
		hit, ok = r.picker.Pick(p.Position)
	}

	c.hover = nil
	if ok && hit.Node.Has(scene.TagButton) {
		c.hover = hit.Node
	}

	switch {
	case began && ok && hit.Node.Has(scene.TagButton):
		r.press(hit.Node, p.ID)
	case began && ok && hit.Node.Has(scene.TagRotatable):
		r.beginDrag(hit.Node, p)
	case p.Down && r.drag.Active && r.drag.Controller == p.ID:
		r.updateDrag(p)
	}

	if ended {
		r.release(p.ID)
	}
}

func (r *Router) absent(id int) {
	c, ok := r.controllers[id]
	if !ok {
		return
	}
	if c.down {
		r.release(id)
	}
	delete(r.controllers, id)
}

func (r *Router) controller(id int) *controller {
	c, ok := r.controllers[id]
	if !ok {
		c = &controller{}
		r.controllers[id] = c
	}
	return c
}

// Press triggers the first button of kind as if a controller pressed it. It
// goes through the same debounce lock as pointer presses.
func (r *Router) Press(kind string) bool {
	if r.picker == nil {
		return false
	}
	for _, b := range r.picker.Buttons() {
		if b.ButtonKind() == kind {
			accepted := r.press(b, keyboardController)
			r.Refresh()
			return accepted
		}
	}
	r.log.Debug().Str("button", kind).Msg("no button of this kind")
	return false
}

// Release ends a Press.
func (r *Router) Release() {
	r.release(keyboardController)
	r.Refresh()
}

func (r *Router) press(button *scene.Node, by int) bool {
	if r.locked {
		r.log.Debug().Str("button", button.Name).Msg("press ignored; sequence in flight")
		return false
	}
	r.locked = true
	r.pressed = button
	r.pressedBy = by

	r.anim.Play(anim.ButtonDown, false)
	r.fx.PlayEffect(r.cfg.ClickEffect, r.cfg.EffectVolume)

	wait := r.anim.Duration(anim.ButtonDown, r.cfg.ButtonFloor)
	if wait < r.cfg.ButtonFloor {
		wait = r.cfg.ButtonFloor
	}
	kind := button.ButtonKind()
	r.timer.After(wait, func() { r.dispatch(kind) })
	return true
}

func (r *Router) dispatch(kind string) {
	switch kind {
	case scene.ButtonNext:
		r.player.Next()
		r.fx.PlayEffect(r.cfg.SwitchEffect, r.cfg.EffectVolume)
		r.unlock()
	case scene.ButtonPrevious:
		r.player.Previous()
		r.fx.PlayEffect(r.cfg.SwitchEffect, r.cfg.EffectVolume)
		r.unlock()
	default:
		if !r.player.RequestToggle(r.unlock) {
			r.unlock()
		}
	}
}

func (r *Router) unlock() {
	r.locked = false
	r.Refresh()
}

func (r *Router) release(id int) {
	if r.pressed != nil && r.pressedBy == id {
		r.pressed = nil
		if r.anim.Has(anim.ButtonUp) {
			r.anim.Play(anim.ButtonUp, false)
		}
	}
	if r.drag.Active && r.drag.Controller == id {
		r.drag = DragState{}
	}
}

func (r *Router) beginDrag(hit *scene.Node, p Pointer) {
	if r.drag.Active || r.picker == nil {
		return
	}
	target := hit.AncestorUnder(r.picker.Interactive())
	if target == nil {
		return
	}
	r.drag = DragState{
		Active:     true,
		Controller: p.ID,
		Target:     weak.Make(target),
		Previous:   p.Position,
	}
}

func (r *Router) updateDrag(p Pointer) {
	target := r.drag.Target.Value()
	if target == nil {
		r.drag = DragState{}
		return
	}
	delta := p.Position.Sub(r.drag.Previous)
	target.Rotate(delta.X*r.cfg.RotationSpeed, delta.Y*r.cfg.RotationSpeed)
	r.drag.Previous = p.Position
}

// Refresh recomputes every button's material.
func (r *Router) Refresh() {
	if r.picker == nil {
		return
	}
	for _, b := range r.picker.Buttons() {
		b.Material = r.Visuals(b)
	}
}

// Visuals resolves the material button should show right now.
func (r *Router) Visuals(button *scene.Node) visual.Material {
	playing := r.player != nil && r.player.State() == playback.Playing
	return visual.Resolve(visual.State{
		Pressed:  button != nil && button == r.pressed,
		Playing:  playing && button.ButtonKind() == scene.ButtonPlay,
		Hovering: button != nil && r.hovering(button),
	}, r.cfg.Palette)
}

func (r *Router) hovering(n *scene.Node) bool {
	for _, c := range r.controllers {
		if c.hover == n {
			return true
		}
	}
	return false
}

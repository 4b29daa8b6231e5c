// Package anim keeps the model's named animation clips and their playback
// cursors.
package anim

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Clip names the model authors are expected to provide.
const (
	ButtonDown    = "button_down"
	ButtonUp      = "button_up"
	StylusOn      = "stylus_On"
	StylusPlaying = "stylus_playing"
	StylusOff     = "stylus_Off"
)

// Clip is an authored animation. It is copied on registration and never
// mutated afterwards.
type Clip struct {
	Name     string
	Duration time.Duration
	Loop     bool
}

type track struct {
	clip    Clip
	elapsed time.Duration
	loop    bool
	playing bool
}

// Registry maps clip names to playback state.
type Registry struct {
	tracks map[string]*track
	log    zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		tracks: make(map[string]*track),
		log:    logger.With().Str("component", "anim").Logger(),
	}
}

// Register adds clip, replacing any clip already registered under its name.
func (r *Registry) Register(clip Clip) {
	if r == nil {
		return
	}
	name := strings.TrimSpace(clip.Name)
	if name == "" {
		r.log.Warn().Msg("ignoring clip without a name")
		return
	}
	if clip.Duration < 0 {
		clip.Duration = 0
	}
	clip.Name = name
	r.tracks[name] = &track{clip: clip, loop: clip.Loop}
}

// RegisterAll replaces the whole table with clips.
func (r *Registry) RegisterAll(clips []Clip) {
	if r == nil {
		return
	}
	r.tracks = make(map[string]*track, len(clips))
	for _, c := range clips {
		r.Register(c)
	}
}

// Reload swaps in a new clip table. Clips that survive by name keep their
// cursor, clamped to the new duration.
func (r *Registry) Reload(clips []Clip) {
	if r == nil {
		return
	}
	prev := r.tracks
	r.RegisterAll(clips)
	for name, t := range r.tracks {
		old, ok := prev[name]
		if !ok || old == nil {
			continue
		}
		t.playing, t.loop, t.elapsed = old.playing, old.loop, old.elapsed
		if t.elapsed > t.clip.Duration {
			t.elapsed = t.clip.Duration
		}
	}
}

// Play restarts name from zero. It reports false, after logging, when the clip
// is not registered.
func (r *Registry) Play(name string, loop bool) bool {
	t, ok := r.lookup(name)
	if !ok {
		r.log.Warn().Str("clip", name).Msg("play: clip not registered")
		return false
	}
	t.elapsed = 0
	t.loop = loop
	t.playing = true
	return true
}

// Stop halts name if it is registered and playing.
func (r *Registry) Stop(name string) {
	t, ok := r.lookup(name)
	if !ok || !t.playing {
		return
	}
	t.playing = false
}

// Duration returns the authored length of name, or fallback when it is not
// registered.
func (r *Registry) Duration(name string, fallback time.Duration) time.Duration {
	t, ok := r.lookup(name)
	if !ok {
		return fallback
	}
	return t.clip.Duration
}

func (r *Registry) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

func (r *Registry) IsPlaying(name string) bool {
	t, ok := r.lookup(name)
	return ok && t.playing
}

// Looping reports whether name is playing in loop mode.
func (r *Registry) Looping(name string) bool {
	t, ok := r.lookup(name)
	return ok && t.playing && t.loop
}

// Elapsed returns the playback cursor of name within its clip.
func (r *Registry) Elapsed(name string) time.Duration {
	t, ok := r.lookup(name)
	if !ok {
		return 0
	}
	return t.elapsed
}

// Progress returns how far through name the cursor is, in [0, 1].
func (r *Registry) Progress(name string) float64 {
	t, ok := r.lookup(name)
	if !ok || t.clip.Duration <= 0 {
		return 0
	}
	p := float64(t.elapsed) / float64(t.clip.Duration)
	if p > 1 {
		return 1
	}
	return p
}

// Names lists registered clips in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.tracks))
	for name := range r.tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Update advances every playing clip by dt. Non-looping clips hold their last
// frame and stop; looping clips wrap.
func (r *Registry) Update(dt time.Duration) {
	if r == nil || dt <= 0 {
		return
	}
	for _, t := range r.tracks {
		if !t.playing {
			continue
		}
		t.elapsed += dt
		if t.elapsed < t.clip.Duration {
			continue
		}
		if t.loop && t.clip.Duration > 0 {
			t.elapsed %= t.clip.Duration
			continue
		}
		t.elapsed = t.clip.Duration
		t.playing = false
	}
}

func (r *Registry) lookup(name string) (*track, bool) {
	if r == nil || r.tracks == nil {
		return nil, false
	}
	t, ok := r.tracks[name]
	if !ok || t == nil {
		return nil, false
	}
	return t, true
}

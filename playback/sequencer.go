// Package playback sequences the record player's stylus animations against
// the background track.
//
//	Stopped --toggle--> Starting --stylus_On done--> Playing
//	Playing --toggle--> Stopping --stylus_Off done--> Stopped
//
// Toggles received in Starting or Stopping are refused.
package playback

import (
	"time"

	"github.com/milk9111/lofifm/anim"
	"github.com/rs/zerolog"
)

// Animator is the subset of anim.Registry the sequencer drives.
type Animator interface {
	Play(name string, loop bool) bool
	Stop(name string)
	Duration(name string, fallback time.Duration) time.Duration
	Has(name string) bool
}

// Audio is the subset of sound.Unit the sequencer drives.
type Audio interface {
	SetMusicSource(path string)
	PlayMusic(volume float64)
	PauseMusic()
	ReleaseMusicHandle()
}

// Timer queues delayed continuations.
type Timer interface {
	After(d time.Duration, task func())
}

// Listener observes state and track changes.
type Listener func(state State, track string)

type Config struct {
	Tracks []string
	Volume float64
	// DefaultClip sizes a wait when a registered clip reports no duration.
	DefaultClip time.Duration
	// SwitchDelay lets a released track settle before the next one starts.
	SwitchDelay time.Duration
}

const (
	DefaultClipDuration = time.Second
	DefaultSwitchDelay  = 100 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.DefaultClip <= 0 {
		c.DefaultClip = DefaultClipDuration
	}
	if c.SwitchDelay <= 0 {
		c.SwitchDelay = DefaultSwitchDelay
	}
	return c
}

// Sequencer owns the playback state machine.
type Sequencer struct {
	anim  Animator
	audio Audio
	timer Timer
	log   zerolog.Logger
	cfg   Config

	state    State
	track    int
	epoch    uint64
	switches uint64
	listener Listener
}

func NewSequencer(animator Animator, audio Audio, timer Timer, cfg Config, logger zerolog.Logger) *Sequencer {
	cfg = cfg.withDefaults()
	cfg.Tracks = append([]string(nil), cfg.Tracks...)

	s := &Sequencer{
		anim:  animator,
		audio: audio,
		timer: timer,
		cfg:   cfg,
		log:   logger.With().Str("component", "playback").Logger(),
	}
	s.audio.SetMusicSource(s.TrackName())
	return s
}

// SetListener installs fn to be called after every state or track change.
func (s *Sequencer) SetListener(fn Listener) {
	s.listener = fn
}

func (s *Sequencer) State() State {
	return s.state
}

func (s *Sequencer) Track() int {
	return s.track
}

// TrackName returns the asset path of the current track, or "" with no tracks.
func (s *Sequencer) TrackName() string {
	if len(s.cfg.Tracks) == 0 {
		return ""
	}
	return s.cfg.Tracks[s.track]
}

func (s *Sequencer) Tracks() []string {
	return append([]string(nil), s.cfg.Tracks...)
}

// Configure swaps the volume and timings. The track list and playback state
// are kept; continuations already queued keep the waits they were given.
func (s *Sequencer) Configure(cfg Config) {
	cfg = cfg.withDefaults()
	cfg.Tracks = s.cfg.Tracks
	s.cfg = cfg
}

// RequestToggle starts playback from Stopped or stops it from Playing. It
// returns false and leaves onSettled uncalled when a transition is already in
// flight. onSettled runs once the audible change has happened: after the
// stylus lands when starting, immediately when stopping.
func (s *Sequencer) RequestToggle(onSettled func()) bool {
	if onSettled == nil {
		onSettled = func() {}
	}

	switch s.state {
	case Stopped:
		s.begin(onSettled)
		return true
	case Playing:
		s.end(onSettled)
		return true
	default:
		s.log.Debug().Stringer("state", s.state).Msg("toggle ignored; transition in flight")
		return false
	}
}

func (s *Sequencer) begin(onSettled func()) {
	s.setState(Starting)

	epoch := s.epoch
	finish := func() {
		if s.epoch != epoch || s.state != Starting {
			return
		}
		s.setState(Playing)
		s.anim.Play(anim.StylusPlaying, true)
		s.audio.PlayMusic(s.cfg.Volume)
		onSettled()
	}

	if !s.anim.Has(anim.StylusOn) {
		s.log.Warn().Str("clip", anim.StylusOn).Msg("clip missing; starting without stylus animation")
		finish()
		return
	}
	s.anim.Play(anim.StylusOn, false)
	s.timer.After(s.clipWait(anim.StylusOn), finish)
}

func (s *Sequencer) end(onSettled func()) {
	s.setState(Stopping)
	s.anim.Stop(anim.StylusPlaying)
	s.audio.PauseMusic()
	onSettled()

	epoch := s.epoch
	finish := func() {
		if s.epoch != epoch || s.state != Stopping {
			return
		}
		s.anim.Stop(anim.StylusOff)
		s.setState(Stopped)
	}

	if !s.anim.Has(anim.StylusOff) {
		s.log.Warn().Str("clip", anim.StylusOff).Msg("clip missing; stopping without stylus animation")
		finish()
		return
	}
	s.anim.Play(anim.StylusOff, false)
	s.timer.After(s.clipWait(anim.StylusOff), finish)
}

func (s *Sequencer) clipWait(name string) time.Duration {
	d := s.anim.Duration(name, s.cfg.DefaultClip)
	if d < 0 {
		return 0
	}
	return d
}

// Next advances to the following track, wrapping at the end.
func (s *Sequencer) Next() {
	s.switchTrack(1)
}

// Previous steps back one track, wrapping at the start.
func (s *Sequencer) Previous() {
	s.switchTrack(-1)
}

// switchTrack releases the current music handle and, when playing, resumes on
// the new track after SwitchDelay. Only the most recent switch resumes, so a
// burst of next/previous presses ends with a single live handle.
func (s *Sequencer) switchTrack(step int) {
	n := len(s.cfg.Tracks)
	if n <= 1 {
		return
	}
	s.track = ((s.track+step)%n + n) % n

	s.audio.ReleaseMusicHandle()
	s.audio.SetMusicSource(s.TrackName())
	s.switches++
	s.notify()

	if s.state != Playing {
		return
	}

	epoch, switchID := s.epoch, s.switches
	s.timer.After(s.cfg.SwitchDelay, func() {
		if s.epoch != epoch || s.switches != switchID || s.state != Playing {
			return
		}
		s.audio.PlayMusic(s.cfg.Volume)
	})
}

// Close invalidates pending continuations and releases the music handle.
// The sequencer is left in Stopped.
func (s *Sequencer) Close() {
	s.epoch++
	s.anim.Stop(anim.StylusPlaying)
	s.audio.ReleaseMusicHandle()
	if s.state != Stopped {
		s.setState(Stopped)
	}
}

func (s *Sequencer) setState(next State) {
	if s.state == next {
		return
	}
	s.log.Info().Stringer("from", s.state).Stringer("to", next).Msg("state")
	s.state = next
	s.notify()
}

func (s *Sequencer) notify() {
	if s.listener != nil {
		s.listener(s.state, s.TrackName())
	}
}

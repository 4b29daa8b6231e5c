// Package sound owns the background track and one-shot effects.
//
// Exactly one music Handle is alive per Unit. Effects are opened fresh on
// every call and forgotten once started.
package sound

import "time"

// Handle is one playable audio resource.
type Handle interface {
	Play() error
	Pause()
	// Reset rewinds to position zero without changing play state.
	Reset() error
	SetVolume(v float64)
	Position() time.Duration
	IsPlaying() bool
}

// Backend opens handles for asset paths.
type Backend interface {
	Open(path string, loop bool) (Handle, error)
}

// NullBackend is the inert stand-in used when no audio device is available.
// Every handle it returns accepts calls and never makes a sound.
type NullBackend struct{}

func (NullBackend) Open(string, bool) (Handle, error) {
	return &NullHandle{}, nil
}

// NullHandle records play state so callers observe a consistent lifecycle,
// but produces no audio.
type NullHandle struct {
	playing bool
	volume  float64
}

func (h *NullHandle) Play() error {
	h.playing = true
	return nil
}

func (h *NullHandle) Pause() { h.playing = false }

func (h *NullHandle) Reset() error { return nil }

func (h *NullHandle) SetVolume(v float64) { h.volume = v }

func (h *NullHandle) Position() time.Duration { return 0 }

func (h *NullHandle) IsPlaying() bool { return h.playing }

// Package soundtest provides an in-memory sound.Backend for tests.
package soundtest

import (
	"errors"
	"time"

	"github.com/milk9111/lofifm/sound"
)

var ErrRefused = errors.New("soundtest: playback refused")

// Handle is a fake sound.Handle that tracks its own position.
type Handle struct {
	Path   string
	Loop   bool
	Volume float64

	PlayCalls  int
	PauseCalls int
	ResetCalls int
	Closed     bool

	// PlayErr, when set, is returned by Play and playback does not start.
	PlayErr error

	playing  bool
	position time.Duration
}

func (h *Handle) Play() error {
	h.PlayCalls++
	if h.PlayErr != nil {
		return h.PlayErr
	}
	h.playing = true
	return nil
}

func (h *Handle) Pause() {
	h.PauseCalls++
	h.playing = false
}

func (h *Handle) Reset() error {
	h.ResetCalls++
	h.position = 0
	return nil
}

func (h *Handle) SetVolume(v float64) { h.Volume = v }

func (h *Handle) Position() time.Duration { return h.position }

func (h *Handle) IsPlaying() bool { return h.playing }

func (h *Handle) Close() error {
	h.Closed = true
	h.playing = false
	return nil
}

// Advance moves a playing handle forward, simulating elapsed audio.
func (h *Handle) Advance(d time.Duration) {
	if h.playing {
		h.position += d
	}
}

// Backend records every handle it opens.
type Backend struct {
	Opened []*Handle

	// OpenErr fails every Open when set.
	OpenErr error
	// PlayErr is copied into each new handle.
	PlayErr error
}

var _ sound.Backend = (*Backend)(nil)

func (b *Backend) Open(path string, loop bool) (sound.Handle, error) {
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	h := &Handle{Path: path, Loop: loop, PlayErr: b.PlayErr}
	b.Opened = append(b.Opened, h)
	return h, nil
}

// Live returns the looping handles that have not been closed.
func (b *Backend) Live() []*Handle {
	var out []*Handle
	for _, h := range b.Opened {
		if h.Loop && !h.Closed {
			out = append(out, h)
		}
	}
	return out
}

// Playing returns the looping handles currently playing.
func (b *Backend) Playing() []*Handle {
	var out []*Handle
	for _, h := range b.Opened {
		if h.Loop && h.IsPlaying() {
			out = append(out, h)
		}
	}
	return out
}

package sound

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const defaultVolume = 1.0

// Unit owns the single looping music handle and opens effect handles.
type Unit struct {
	backend Backend
	log     zerolog.Logger

	source string
	music  Handle
}

func NewUnit(backend Backend, logger zerolog.Logger) *Unit {
	if backend == nil {
		backend = NullBackend{}
	}
	return &Unit{
		backend: backend,
		log:     logger.With().Str("component", "sound").Logger(),
	}
}

// SetMusicSource selects the track the next EnsureMusicHandle opens. It does
// not touch a handle that is already alive; callers release it first when
// switching tracks.
func (u *Unit) SetMusicSource(path string) {
	if u == nil {
		return
	}
	u.source = strings.TrimSpace(path)
}

func (u *Unit) MusicSource() string {
	if u == nil {
		return ""
	}
	return u.source
}

// MusicHandle returns the live music handle, or nil.
func (u *Unit) MusicHandle() Handle {
	if u == nil {
		return nil
	}
	return u.music
}

// EnsureMusicHandle returns the live music handle, opening a looping one for
// path when none exists. A failed open is logged and yields an inert handle
// that is not stored, so the next call retries.
func (u *Unit) EnsureMusicHandle(path string) Handle {
	if u == nil {
		return &NullHandle{}
	}
	if u.music != nil {
		return u.music
	}

	path = strings.TrimSpace(path)
	if path == "" {
		u.log.Warn().Msg("no music source selected")
		return &NullHandle{}
	}

	handle, err := u.backend.Open(path, true)
	if err != nil || handle == nil {
		u.log.Error().Err(err).Str("track", path).Msg("open music failed")
		return &NullHandle{}
	}
	u.music = handle
	return handle
}

// PlayMusic starts the current source from the beginning.
func (u *Unit) PlayMusic(volume float64) {
	if u == nil {
		return
	}
	handle := u.EnsureMusicHandle(u.source)
	handle.SetVolume(normalizeVolume(volume))
	if err := handle.Reset(); err != nil {
		u.log.Warn().Err(err).Str("track", u.source).Msg("rewind music failed")
	}
	if err := handle.Play(); err != nil {
		u.log.Error().Err(err).Str("track", u.source).Msg("play music failed")
		return
	}
	u.log.Debug().Str("track", u.source).Msg("music playing")
}

// PauseMusic pauses and rewinds the live handle so the next PlayMusic starts
// from zero instead of resuming.
func (u *Unit) PauseMusic() {
	if u == nil || u.music == nil {
		return
	}
	u.music.Pause()
	if err := u.music.Reset(); err != nil {
		u.log.Warn().Err(err).Str("track", u.source).Msg("rewind music failed")
	}
}

// ReleaseMusicHandle pauses and drops the live handle. Only track switches and
// teardown should call it; a plain pause keeps the handle.
func (u *Unit) ReleaseMusicHandle() {
	if u == nil || u.music == nil {
		return
	}
	handle := u.music
	u.music = nil
	handle.Pause()
	if closer, ok := handle.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			u.log.Warn().Err(err).Msg("close music failed")
		}
	}
}

// PlayEffect opens a fresh handle for path, starts it and forgets it.
func (u *Unit) PlayEffect(path string, volume float64) Handle {
	if u == nil {
		return &NullHandle{}
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return &NullHandle{}
	}

	handle, err := u.backend.Open(path, false)
	if err != nil || handle == nil {
		u.log.Error().Err(err).Str("effect", path).Msg("open effect failed")
		return &NullHandle{}
	}
	handle.SetVolume(normalizeVolume(volume))
	if err := handle.Play(); err != nil {
		u.log.Error().Err(err).Str("effect", path).Msg("play effect failed")
	}
	return handle
}

func normalizeVolume(v float64) float64 {
	if v <= 0 {
		return defaultVolume
	}
	if v > 1 {
		return 1
	}
	return v
}

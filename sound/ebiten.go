package sound

import (
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/milk9111/lofifm/assets"
	"github.com/rs/zerolog"
)

const DefaultSampleRate = 44100

// EbitenBackend decodes embedded assets into ebiten audio players.
type EbitenBackend struct {
	ctx *audio.Context
}

// NewBackend returns an ebiten-backed Backend, or NullBackend when the audio
// context cannot be created on this machine.
func NewBackend(sampleRate int, logger zerolog.Logger) Backend {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	ctx, err := newContext(sampleRate)
	if err != nil {
		logger.Error().Err(err).Msg("audio unavailable; continuing muted")
		return NullBackend{}
	}
	return &EbitenBackend{ctx: ctx}
}

func newContext(sampleRate int) (ctx *audio.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sound: create audio context: %v", r)
		}
	}()
	if current := audio.CurrentContext(); current != nil {
		return current, nil
	}
	return audio.NewContext(sampleRate), nil
}

func (b *EbitenBackend) Open(path string, loop bool) (Handle, error) {
	if b == nil || b.ctx == nil {
		return nil, fmt.Errorf("sound: backend not initialized")
	}
	player, err := assets.LoadAudioPlayer(b.ctx, path, loop)
	if err != nil {
		return nil, fmt.Errorf("sound: open %q: %w", path, err)
	}
	return &ebitenHandle{player: player}, nil
}

type ebitenHandle struct {
	player *audio.Player
}

var _ io.Closer = (*ebitenHandle)(nil)

func (h *ebitenHandle) Play() error {
	h.player.Play()
	return nil
}

func (h *ebitenHandle) Pause() { h.player.Pause() }

func (h *ebitenHandle) Reset() error { return h.player.Rewind() }

func (h *ebitenHandle) SetVolume(v float64) { h.player.SetVolume(v) }

func (h *ebitenHandle) Position() time.Duration { return h.player.Position() }

func (h *ebitenHandle) IsPlaying() bool { return h.player.IsPlaying() }

func (h *ebitenHandle) Close() error { return h.player.Close() }

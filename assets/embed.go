package assets

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

//go:embed *.wav
var assetsFS embed.FS

// LoadFile loads an embedded asset by assets-relative path.
func LoadFile(path string) ([]byte, error) {
	clean := cleanAssetPath(path)
	return assetsFS.ReadFile(clean)
}

// LoadAudio loads an embedded audio asset by assets-relative path.
func LoadAudio(path string) ([]byte, error) {
	return LoadFile(path)
}

// LoadAudioPlayer decodes an embedded audio asset into a player on ctx. Looping
// players wrap the decoded stream so playback restarts seamlessly at the end.
func LoadAudioPlayer(ctx *audio.Context, path string, loop bool) (*audio.Player, error) {
	if ctx == nil {
		return nil, fmt.Errorf("assets: nil audio context")
	}
	b, err := LoadAudio(path)
	if err != nil {
		return nil, err
	}

	clean := strings.ToLower(cleanAssetPath(path))
	reader := bytes.NewReader(b)

	var (
		stream io.ReadSeeker
		length int64
	)
	if strings.HasSuffix(clean, ".wav") {
		decoded, err := wav.DecodeWithSampleRate(ctx.SampleRate(), reader)
		if err != nil {
			return nil, fmt.Errorf("decode wav %q: %w", path, err)
		}
		stream, length = decoded, decoded.Length()
	} else {
		// Fallback for already-decoded PCM assets in Ebiten's native format.
		stream, length = reader, int64(len(b))
	}

	if loop {
		return ctx.NewPlayer(audio.NewInfiniteLoop(stream, length))
	}
	return ctx.NewPlayer(stream)
}

func cleanAssetPath(path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		s := filepath.ToSlash(path)
		if idx := strings.LastIndex(s, "/assets/"); idx >= 0 {
			return s[idx+len("/assets/"):]
		}
		return filepath.Base(path)
	}
	s := filepath.ToSlash(path)
	if strings.HasPrefix(s, "assets/") {
		return strings.TrimPrefix(s, "assets/")
	}
	return s
}

// Package visual maps button interaction state to a material description.
package visual

import (
	"image/color"

	"golang.org/x/image/colornames"
)

// Kind identifies which rule produced a Material.
type Kind int

const (
	KindIdle Kind = iota
	KindHovering
	KindPlaying
	KindPressed
)

func (k Kind) String() string {
	switch k {
	case KindHovering:
		return "hovering"
	case KindPlaying:
		return "playing"
	case KindPressed:
		return "pressed"
	default:
		return "idle"
	}
}

// State is the input to Resolve.
type State struct {
	Pressed  bool
	Playing  bool
	Hovering bool
}

// Material describes how the button mesh should be shaded. When Original is
// set the caller restores the unmodified material and ignores the other fields.
type Material struct {
	Kind      Kind
	Emissive  color.RGBA
	Intensity float64
	Original  bool
}

// Palette holds the emissive tints for each non-idle state.
type Palette struct {
	Pressed color.RGBA
	Playing color.RGBA
	Hover   color.RGBA
}

const (
	PressedIntensity = 0.4
	PlayingIntensity = 0.2
	HoverIntensity   = 0.3
)

func DefaultPalette() Palette {
	return Palette{
		Pressed: colornames.Orangered,
		Playing: colornames.Mediumseagreen,
		Hover:   colornames.Lightskyblue,
	}
}

// Resolve applies the priority pressed > playing > hovering > idle.
func Resolve(s State, p Palette) Material {
	switch {
	case s.Pressed:
		return Material{Kind: KindPressed, Emissive: p.Pressed, Intensity: PressedIntensity}
	case s.Playing:
		return Material{Kind: KindPlaying, Emissive: p.Playing, Intensity: PlayingIntensity}
	case s.Hovering:
		return Material{Kind: KindHovering, Emissive: p.Hover, Intensity: HoverIntensity}
	default:
		return Material{Kind: KindIdle, Original: true}
	}
}

// Shade blends base toward the material's emissive tint. Idle materials
// return base unchanged.
func (m Material) Shade(base color.RGBA) color.RGBA {
	if m.Original || m.Intensity <= 0 {
		return base
	}
	mix := func(a, b uint8) uint8 {
		v := float64(a) + (float64(b)-float64(a))*m.Intensity
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v + 0.5)
	}
	return color.RGBA{
		R: mix(base.R, m.Emissive.R),
		G: mix(base.G, m.Emissive.G),
		B: mix(base.B, m.Emissive.B),
		A: base.A,
	}
}

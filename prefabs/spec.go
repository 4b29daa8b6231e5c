package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultModel = "record_player.yaml"

var (
	ErrNoTracks    = errors.New("prefabs: model has no tracks")
	ErrNoNodes     = errors.New("prefabs: model has no nodes")
	ErrUnnamedNode = errors.New("prefabs: node without a name")
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// ModelSpec describes the record player: its interactive nodes, animation
// clips, audio and tuning.
type ModelSpec struct {
	Name    string        `yaml:"name"`
	Tracks  []string      `yaml:"tracks"`
	Volume  float64       `yaml:"volume"`
	Effects EffectsSpec   `yaml:"effects"`
	Timings TimingsSpec   `yaml:"timings"`
	Palette PaletteSpec   `yaml:"palette"`
	Status  StatusSpec    `yaml:"status"`
	Clips   []ClipSpec    `yaml:"clips"`
	Nodes   []NodeSpec    `yaml:"nodes"`
	Origin  TransformSpec `yaml:"origin"`
}

func LoadModelSpec(name string) (*ModelSpec, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultModel
	}
	spec, err := LoadSpec[ModelSpec](name)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", name, err)
	}
	return &spec, nil
}

// ParseModelSpec decodes and validates a model spec from raw YAML.
func ParseModelSpec(data []byte) (*ModelSpec, error) {
	var spec ModelSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("prefabs: unmarshal model: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (s *ModelSpec) Validate() error {
	if len(s.Tracks) == 0 {
		return ErrNoTracks
	}
	if len(s.Nodes) == 0 {
		return ErrNoNodes
	}
	for i, n := range s.Nodes {
		if strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("node %d: %w", i, ErrUnnamedNode)
		}
	}
	return nil
}

type EffectsSpec struct {
	Click  string  `yaml:"click"`
	Switch string  `yaml:"switch"`
	Volume float64 `yaml:"volume"`
}

type TimingsSpec struct {
	DefaultClipMS int     `yaml:"default_clip_ms"`
	ButtonFloorMS int     `yaml:"button_floor_ms"`
	SwitchDelayMS int     `yaml:"switch_delay_ms"`
	RotationSpeed float64 `yaml:"rotation_speed"`
	VinylRPM      float64 `yaml:"vinyl_rpm"`
}

func (t TimingsSpec) DefaultClip() time.Duration {
	return time.Duration(t.DefaultClipMS) * time.Millisecond
}

func (t TimingsSpec) ButtonFloor() time.Duration {
	return time.Duration(t.ButtonFloorMS) * time.Millisecond
}

func (t TimingsSpec) SwitchDelay() time.Duration {
	return time.Duration(t.SwitchDelayMS) * time.Millisecond
}

type PaletteSpec struct {
	Pressed *YAMLColor `yaml:"pressed"`
	Playing *YAMLColor `yaml:"playing"`
	Hover   *YAMLColor `yaml:"hover"`
}

// StatusSpec points at an optional tengo script that formats status lines.
type StatusSpec struct {
	Script string `yaml:"script"`
}

type ClipSpec struct {
	Name       string `yaml:"name"`
	DurationMS int    `yaml:"duration_ms"`
	Loop       bool   `yaml:"loop"`
}

func (c ClipSpec) Duration() time.Duration {
	return time.Duration(c.DurationMS) * time.Millisecond
}

// NodeSpec is one scene node. Tags are declared here once; nothing at
// interaction time inspects node names.
type NodeSpec struct {
	Name       string     `yaml:"name"`
	Parent     string     `yaml:"parent"`
	Z          int        `yaml:"z"`
	Button     bool       `yaml:"button"`
	ButtonType string     `yaml:"button_type"`
	Rotatable  bool       `yaml:"rotatable"`
	Vinyl      bool       `yaml:"vinyl"`
	Tonearm    bool       `yaml:"tonearm"`
	Shape      ShapeSpec  `yaml:"shape"`
	Color      *YAMLColor `yaml:"color"`
}

type ShapeKind string

const (
	ShapeNone   ShapeKind = ""
	ShapeBox    ShapeKind = "box"
	ShapeCircle ShapeKind = "circle"
)

// ShapeSpec is the node's pickable footprint, relative to the model origin.
// A tonearm uses X/Y as its pivot and Radius as its length.
type ShapeSpec struct {
	Kind   ShapeKind `yaml:"kind"`
	X      float64   `yaml:"x"`
	Y      float64   `yaml:"y"`
	Width  float64   `yaml:"width"`
	Height float64   `yaml:"height"`
	Radius float64   `yaml:"radius"`
}

type TransformSpec struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Scale float64 `yaml:"scale"`
}

type YAMLColor struct {
	Value color.RGBA
}

// RGBAOr returns the parsed color, or fallback when c is nil.
func (c *YAMLColor) RGBAOr(fallback color.RGBA) color.RGBA {
	if c == nil {
		return fallback
	}
	return c.Value
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Value = color.RGBA{R: r, G: g, B: b, A: a}
	return nil
}

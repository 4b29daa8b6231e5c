// Package scene holds the record player's node tree and answers pointer
// picks against its interactive nodes.
package scene

import (
	"image/color"
	"math"

	"github.com/milk9111/lofifm/common"
	"github.com/milk9111/lofifm/prefabs"
	"github.com/milk9111/lofifm/visual"
)

// Tag marks what a node does when the pointer hits it. Tags are assigned when
// the model is built.
type Tag uint8

const (
	TagButton Tag = 1 << iota
	TagRotatable
	TagVinyl
	TagTonearm
)

// Button types a button node can carry.
const (
	ButtonPlay     = "play"
	ButtonNext     = "next"
	ButtonPrevious = "previous"
)

// MaxPitch bounds the vertical tilt applied by dragging.
const MaxPitch = math.Pi / 2

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

type Node struct {
	Name       string
	Tags       Tag
	ButtonType string
	Z          int
	Shape      prefabs.ShapeSpec
	Color      color.RGBA

	// Material is the button shading chosen by the interaction router.
	Material visual.Material

	// Yaw and Pitch are in radians. Pitch stays within [-MaxPitch, MaxPitch].
	Yaw   float64
	Pitch float64
	// Spin is the vinyl's rotation about its own axis, in radians.
	Spin float64

	parent   *Node
	children []*Node
}

func (n *Node) Has(t Tag) bool {
	return n != nil && n.Tags&t != 0
}

func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return append([]*Node(nil), n.children...)
}

// AncestorUnder returns the nearest node on the path from n upward (n
// included) whose parent is root, or nil when n is not below root.
func (n *Node) AncestorUnder(root *Node) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.parent == root {
			return cur
		}
	}
	return nil
}

// Rotate adds to yaw without bound and to pitch, clamped to ±90°.
func (n *Node) Rotate(dYaw, dPitch float64) {
	if n == nil {
		return
	}
	n.Yaw += dYaw
	n.Pitch = common.Clamp(n.Pitch+dPitch, -MaxPitch, MaxPitch)
}

// ButtonKind returns the node's button type, defaulting to play.
func (n *Node) ButtonKind() string {
	if n == nil || !n.Has(TagButton) {
		return ""
	}
	if n.ButtonType == "" {
		return ButtonPlay
	}
	return n.ButtonType
}

func (n *Node) addChild(c *Node) {
	c.parent = n
	n.children = append(n.children, c)
}

package scene

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/lofifm/prefabs"
)

var (
	ErrDuplicateNode = errors.New("scene: duplicate node name")
	ErrUnknownParent = errors.New("scene: parent must be declared before its children")
)

// RootName names the synthetic interactive root every model node hangs off.
const RootName = "interactive"

// minProjectedScale is the smallest axis scale picking works against.
const minProjectedScale = 0.05

var defaultNodeColor = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}

// Model is a built record player: its node tree plus a cp space holding one
// static shape per pickable node, in model-local coordinates.
type Model struct {
	Name   string
	Root   *Node
	Origin Vec3
	Scale  float64

	nodes map[string]*Node
	order []*Node
	space *cp.Space
}

// Hit is the top-most node under a pointer.
type Hit struct {
	Node  *Node
	Point Vec3
}

func Build(spec *prefabs.ModelSpec) (*Model, error) {
	if spec == nil {
		return nil, fmt.Errorf("scene: nil model spec")
	}
	scale := spec.Origin.Scale
	if scale <= 0 {
		scale = 1
	}

	m := &Model{
		Name:   spec.Name,
		Root:   &Node{Name: RootName},
		Origin: Vec3{X: spec.Origin.X, Y: spec.Origin.Y},
		Scale:  scale,
		nodes:  make(map[string]*Node, len(spec.Nodes)),
		space:  cp.NewSpace(),
	}

	for _, ns := range spec.Nodes {
		name := strings.TrimSpace(ns.Name)
		if name == "" {
			return nil, prefabs.ErrUnnamedNode
		}
		if _, dup := m.nodes[name]; dup || name == RootName {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, name)
		}

		parent := m.Root
		if p := strings.TrimSpace(ns.Parent); p != "" {
			found, ok := m.nodes[p]
			if !ok {
				return nil, fmt.Errorf("%w: %s (parent %s)", ErrUnknownParent, name, p)
			}
			parent = found
		}

		node := &Node{
			Name:       name,
			ButtonType: strings.TrimSpace(ns.ButtonType),
			Z:          ns.Z,
			Shape:      ns.Shape,
			Color:      ns.Color.RGBAOr(defaultNodeColor),
			Tags:       tagsFor(ns),
		}
		node.Material.Original = true
		parent.addChild(node)
		m.nodes[name] = node
		m.order = append(m.order, node)
		m.addShape(node)
	}

	return m, nil
}

func tagsFor(ns prefabs.NodeSpec) Tag {
	var t Tag
	if ns.Button {
		t |= TagButton
	}
	if ns.Rotatable {
		t |= TagRotatable
	}
	if ns.Vinyl {
		t |= TagVinyl
	}
	if ns.Tonearm {
		t |= TagTonearm
	}
	return t
}

func (m *Model) addShape(n *Node) {
	if n.Tags&(TagButton|TagRotatable) == 0 {
		return
	}
	var shape *cp.Shape
	switch n.Shape.Kind {
	case prefabs.ShapeCircle:
		if n.Shape.Radius <= 0 {
			return
		}
		shape = cp.NewCircle(m.space.StaticBody, n.Shape.Radius, cp.Vector{X: n.Shape.X, Y: n.Shape.Y})
	case prefabs.ShapeBox:
		if n.Shape.Width <= 0 || n.Shape.Height <= 0 {
			return
		}
		bb := cp.BB{L: n.Shape.X, B: n.Shape.Y, R: n.Shape.X + n.Shape.Width, T: n.Shape.Y + n.Shape.Height}
		shape = cp.NewBox2(m.space.StaticBody, bb, 0)
	default:
		return
	}
	shape.UserData = n
	m.space.AddShape(shape)
}

func (m *Model) Find(name string) (*Node, bool) {
	if m == nil {
		return nil, false
	}
	n, ok := m.nodes[name]
	return n, ok
}

// Nodes returns every node in declaration order.
func (m *Model) Nodes() []*Node {
	if m == nil {
		return nil
	}
	return append([]*Node(nil), m.order...)
}

func (m *Model) Buttons() []*Node {
	var out []*Node
	for _, n := range m.Nodes() {
		if n.Has(TagButton) {
			out = append(out, n)
		}
	}
	return out
}

// Tonearm returns the first node tagged as the stylus arm.
func (m *Model) Tonearm() *Node {
	for _, n := range m.Nodes() {
		if n.Has(TagTonearm) {
			return n
		}
	}
	return nil
}

// Vinyl returns the first node tagged as the record.
func (m *Model) Vinyl() *Node {
	for _, n := range m.Nodes() {
		if n.Has(TagVinyl) {
			return n
		}
	}
	return nil
}

// Project maps a model-local point inside the subtree headed by top to
// screen space. Yaw foreshortens horizontally and pitch vertically.
func (m *Model) Project(top *Node, local Vec3) Vec3 {
	sx, sy := m.axisScale(top)
	return Vec3{X: m.Origin.X + local.X*sx, Y: m.Origin.Y + local.Y*sy, Z: local.Z}
}

// AxisScale returns the horizontal and vertical screen scale of top's subtree.
func (m *Model) AxisScale(top *Node) (float64, float64) {
	return m.axisScale(top)
}

func (m *Model) axisScale(top *Node) (float64, float64) {
	sx, sy := m.Scale, m.Scale
	if top != nil {
		sx *= math.Cos(top.Yaw)
		sy *= math.Cos(top.Pitch)
	}
	return sx, sy
}

// Pick returns the top-most button or rotatable node under the screen point.
// A subtree turned edge-on is picked against a floored scale so it can still
// be grabbed and turned back.
func (m *Model) Pick(p Vec3) (Hit, bool) {
	if m == nil || m.space == nil {
		return Hit{}, false
	}

	var best *Node
	for _, top := range m.Root.children {
		sx, sy := m.axisScale(top)
		sx, sy = floorScale(sx), floorScale(sy)
		local := cp.Vector{X: (p.X - m.Origin.X) / sx, Y: (p.Y - m.Origin.Y) / sy}

		m.space.EachShape(func(shape *cp.Shape) {
			n, ok := shape.UserData.(*Node)
			if !ok || n.AncestorUnder(m.Root) != top {
				return
			}
			if shape.PointQuery(local).Distance > 0 {
				return
			}
			if best == nil || n.Z > best.Z || (n.Z == best.Z && m.index(n) > m.index(best)) {
				best = n
			}
		})
	}

	if best == nil {
		return Hit{}, false
	}
	return Hit{Node: best, Point: p}, true
}

func floorScale(v float64) float64 {
	if math.Abs(v) >= minProjectedScale {
		return v
	}
	if v < 0 {
		return -minProjectedScale
	}
	return minProjectedScale
}

func (m *Model) index(n *Node) int {
	for i, o := range m.order {
		if o == n {
			return i
		}
	}
	return -1
}

// SpinVinyl turns every vinyl node at rpm for dt.
func (m *Model) SpinVinyl(dt time.Duration, rpm float64) {
	if m == nil || dt <= 0 || rpm == 0 {
		return
	}
	delta := 2 * math.Pi * rpm / 60 * dt.Seconds()
	for _, n := range m.order {
		if n.Has(TagVinyl) {
			n.Spin = math.Mod(n.Spin+delta, 2*math.Pi)
		}
	}
}

// CopyPose carries drag rotation and vinyl spin over from a previous model so
// a hot reload does not snap the player back to its rest pose.
func (m *Model) CopyPose(prev *Model) {
	if m == nil || prev == nil {
		return
	}
	for name, n := range m.nodes {
		old, ok := prev.nodes[name]
		if !ok {
			continue
		}
		n.Yaw, n.Pitch, n.Spin = old.Yaw, old.Pitch, old.Spin
	}
}

// Interactive returns the root every pickable node hangs off.
func (m *Model) Interactive() *Node {
	if m == nil {
		return nil
	}
	return m.Root
}

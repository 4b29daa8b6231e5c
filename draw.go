package main

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"

	"github.com/milk9111/lofifm/anim"
	"github.com/milk9111/lofifm/common"
	"github.com/milk9111/lofifm/playback"
	"github.com/milk9111/lofifm/prefabs"
	"github.com/milk9111/lofifm/scene"
	"github.com/milk9111/lofifm/visual"
)

const (
	ellipseSegments = 48

	// Tonearm angles, radians from +X in model space.
	armRest   = math.Pi / 2
	armPlay   = 2.3
	armWobble = 0.01
)

var backgroundColor = color.RGBA{R: 0x1e, G: 0x1a, B: 0x24, A: 0xff}

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

func paletteFor(spec *prefabs.ModelSpec) visual.Palette {
	def := visual.DefaultPalette()
	return visual.Palette{
		Pressed: spec.Palette.Pressed.RGBAOr(def.Pressed),
		Playing: spec.Palette.Playing.RGBAOr(def.Playing),
		Hover:   spec.Palette.Hover.RGBAOr(def.Hover),
	}
}

// drawModel paints every node back to front, foreshortened by its top-level
// ancestor's rotation.
func drawModel(screen *ebiten.Image, m *scene.Model, anims *anim.Registry, state playback.State) {
	if m == nil {
		return
	}
	nodes := m.Nodes()
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Z < nodes[j].Z })

	for _, n := range nodes {
		top := n.AncestorUnder(m.Interactive())
		clr := n.Material.Shade(n.Color)

		switch {
		case n.Has(scene.TagTonearm):
			drawTonearm(screen, m, top, n, tonearmAngle(anims, state))
		case n.Shape.Kind == prefabs.ShapeBox:
			fillPolygon(screen, projectAll(m, top, boxPoints(n.Shape)), clr)
		case n.Shape.Kind == prefabs.ShapeCircle:
			fillPolygon(screen, projectAll(m, top, ellipsePoints(n.Shape.X, n.Shape.Y, n.Shape.Radius)), clr)
		}

		if n.Has(scene.TagVinyl) {
			drawGrooves(screen, m, top, n)
		}
	}
}

func drawGrooves(screen *ebiten.Image, m *scene.Model, top, n *scene.Node) {
	cx, cy, r := n.Shape.X, n.Shape.Y, n.Shape.Radius
	for _, f := range []float64{0.55, 0.75, 0.92} {
		pts := projectAll(m, top, ellipsePoints(cx, cy, r*f))
		strokePolygon(screen, pts, 1, colornames.Dimgray)
	}
	fillPolygon(screen, projectAll(m, top, ellipsePoints(cx, cy, r*0.3)), colornames.Firebrick)

	// Label marker so the spin is visible.
	from := m.Project(top, scene.Vec3{X: cx, Y: cy})
	to := m.Project(top, scene.Vec3{X: cx + math.Cos(n.Spin)*r*0.3, Y: cy + math.Sin(n.Spin)*r*0.3})
	vector.StrokeLine(screen, float32(from.X), float32(from.Y), float32(to.X), float32(to.Y), 3, colornames.Wheat, true)
}

func tonearmAngle(anims *anim.Registry, state playback.State) float64 {
	switch state {
	case playback.Starting:
		return common.Lerp(armRest, armPlay, anims.Progress(anim.StylusOn))
	case playback.Playing:
		return armPlay + armWobble*math.Sin(2*math.Pi*anims.Progress(anim.StylusPlaying))
	case playback.Stopping:
		return common.Lerp(armPlay, armRest, anims.Progress(anim.StylusOff))
	default:
		return armRest
	}
}

func drawTonearm(screen *ebiten.Image, m *scene.Model, top, n *scene.Node, angle float64) {
	pivot := scene.Vec3{X: n.Shape.X, Y: n.Shape.Y}
	tip := scene.Vec3{X: pivot.X + math.Cos(angle)*n.Shape.Radius, Y: pivot.Y + math.Sin(angle)*n.Shape.Radius}
	p, t := m.Project(top, pivot), m.Project(top, tip)
	sx, _ := m.AxisScale(top)

	vector.StrokeLine(screen, float32(p.X), float32(p.Y), float32(t.X), float32(t.Y), 6, n.Color, true)
	vector.FillCircle(screen, float32(p.X), float32(p.Y), float32(14*math.Abs(sx)), colornames.Darkgray, true)
	vector.FillCircle(screen, float32(t.X), float32(t.Y), float32(6*math.Abs(sx)), n.Color, true)
}

// drawPickDebug outlines every pickable footprint.
func drawPickDebug(screen *ebiten.Image, m *scene.Model) {
	for _, n := range m.Nodes() {
		if !n.Has(scene.TagButton) && !n.Has(scene.TagRotatable) {
			continue
		}
		top := n.AncestorUnder(m.Interactive())
		var pts []scene.Vec3
		switch n.Shape.Kind {
		case prefabs.ShapeBox:
			pts = boxPoints(n.Shape)
		case prefabs.ShapeCircle:
			pts = ellipsePoints(n.Shape.X, n.Shape.Y, n.Shape.Radius)
		}
		strokePolygon(screen, projectAll(m, top, pts), 1, colornames.Lime)
	}
}

func boxPoints(s prefabs.ShapeSpec) []scene.Vec3 {
	return []scene.Vec3{
		{X: s.X, Y: s.Y},
		{X: s.X + s.Width, Y: s.Y},
		{X: s.X + s.Width, Y: s.Y + s.Height},
		{X: s.X, Y: s.Y + s.Height},
	}
}

func ellipsePoints(cx, cy, r float64) []scene.Vec3 {
	pts := make([]scene.Vec3, ellipseSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		pts[i] = scene.Vec3{X: cx + math.Cos(a)*r, Y: cy + math.Sin(a)*r}
	}
	return pts
}

func projectAll(m *scene.Model, top *scene.Node, local []scene.Vec3) []scene.Vec3 {
	out := make([]scene.Vec3, len(local))
	for i, p := range local {
		out[i] = m.Project(top, p)
	}
	return out
}

func fillPolygon(screen *ebiten.Image, pts []scene.Vec3, clr color.RGBA) {
	if len(pts) < 3 {
		return
	}
	var path vector.Path
	path.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		path.LineTo(float32(p.X), float32(p.Y))
	}
	path.Close()

	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	r, g, b, a := float32(clr.R)/0xff, float32(clr.G)/0xff, float32(clr.B)/0xff, float32(clr.A)/0xff
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = r, g, b, a
	}
	screen.DrawTriangles(vs, is, whiteSubImage, &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

func strokePolygon(screen *ebiten.Image, pts []scene.Vec3, width float32, clr color.Color) {
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		vector.StrokeLine(screen, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), width, clr, true)
	}
}

func drawCursor(screen *ebiten.Image, at scene.Vec3) {
	vector.StrokeCircle(screen, float32(at.X), float32(at.Y), 10, 2, colornames.White, true)
}

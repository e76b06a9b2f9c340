// Package render draws a level and its HUD with ebiten vector primitives.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/slingshot/common"
	"github.com/milk9111/slingshot/game"
	"github.com/milk9111/slingshot/levels"
	"github.com/milk9111/slingshot/physics"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// View is what the renderer needs from a play session or an editor.
type View struct {
	Registry   *game.Registry
	World      physics.World
	Controller *game.Controller
	GroundY    float64

	// Round is nil in the editor.
	Round   *game.RoundState
	Cleared bool
	Notice  string
	Title   string
}

// SessionView builds the view of a play session.
func SessionView(s *game.Session) View {
	round := s.Round()
	return View{
		Registry:   s.Registry(),
		World:      s.World(),
		Controller: s.Controller(),
		GroundY:    s.Tuning().GroundY,
		Round:      &round,
		Cleared:    s.Cleared(),
	}
}

type Renderer struct {
	face text.Face
	// Debug overlays the Chipmunk shapes when the world exposes a space.
	Debug bool
}

func New() *Renderer {
	return &Renderer{face: text.NewGoXFace(basicfont.Face7x13)}
}

func (r *Renderer) Draw(screen *ebiten.Image, v View) {
	screen.Fill(colornames.Skyblue)

	_, gy := common.WorldToScreen(0, v.GroundY)
	vector.FillRect(screen, 0, float32(gy), common.BaseWidth, float32(common.BaseHeight-gy), colornames.Forestgreen, false)

	if v.Registry != nil && v.World != nil {
		for _, e := range v.Registry.All() {
			r.drawEntry(screen, v.World, e)
		}
	}

	if v.Controller != nil {
		if anchor, pointer, ok := v.Controller.AimLine(); ok {
			ax, ay := common.WorldToScreen(anchor.X, anchor.Y)
			px, py := common.WorldToScreen(pointer.X, pointer.Y)
			vector.StrokeLine(screen, float32(ax), float32(ay), float32(px), float32(py), 2, colornames.Black, true)
		}
	}

	if r.Debug {
		if s, ok := v.World.(interface{ Space() *cp.Space }); ok && s.Space() != nil {
			DrawPhysicsDebug(s.Space(), screen)
		}
	}

	r.drawHUD(screen, v)
}

func (r *Renderer) drawEntry(screen *ebiten.Image, w physics.World, e *game.Entry) {
	pos, ok := w.Position(e.Body)
	if !ok {
		return
	}
	switch e.Kind {
	case levels.KindBox:
		angle, _ := w.Angle(e.Body)
		fillQuad(screen, BoxCorners(pos, e.Width, e.Height, angle), colornames.Burlywood, colornames.Saddlebrown)
	case levels.KindPig:
		drawBall(screen, pos, e.Radius, colornames.Limegreen, colornames.Darkgreen)
	case levels.KindBird:
		drawBall(screen, pos, e.Radius, colornames.Red, colornames.Darkred)
	}
}

func (r *Renderer) drawHUD(screen *ebiten.Image, v View) {
	lines := make([]string, 0, 4)
	if v.Title != "" {
		lines = append(lines, v.Title)
	}
	if v.Round != nil {
		lines = append(lines, fmt.Sprintf("Birds: %d   Score: %d   %s", v.Round.BirdsRemaining, v.Round.Score, v.Round.Phase))
	}
	if v.Cleared {
		lines = append(lines, "All pigs destroyed!")
	}
	if v.Notice != "" {
		lines = append(lines, v.Notice)
	}
	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(12, 12+float64(i)*18)
		op.ColorScale.ScaleWithColor(colornames.Black)
		text.Draw(screen, line, r.face, op)
	}
}

// BoxCorners returns the four world-space corners of a rotated box.
func BoxCorners(center physics.Vec, width, height, angle float64) [4]physics.Vec {
	hw, hh := width/2, height/2
	local := [4]physics.Vec{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}}
	var out [4]physics.Vec
	for i, p := range local {
		x, y := common.Rotate(p.X, p.Y, angle)
		out[i] = physics.Vec{X: center.X + x, Y: center.Y + y}
	}
	return out
}

func fillQuad(screen *ebiten.Image, corners [4]physics.Vec, fill, outline color.Color) {
	fr, fg, fb, fa := fill.RGBA()
	vs := make([]ebiten.Vertex, 4)
	for i, c := range corners {
		x, y := common.WorldToScreen(c.X, c.Y)
		vs[i] = ebiten.Vertex{
			DstX:   float32(x),
			DstY:   float32(y),
			SrcX:   1,
			SrcY:   1,
			ColorR: float32(fr) / 0xffff,
			ColorG: float32(fg) / 0xffff,
			ColorB: float32(fb) / 0xffff,
			ColorA: float32(fa) / 0xffff,
		}
	}
	screen.DrawTriangles(vs, []uint16{0, 1, 2, 0, 2, 3}, whiteSubImage, &ebiten.DrawTrianglesOptions{AntiAlias: true})

	for i := range vs {
		a, b := vs[i], vs[(i+1)%len(vs)]
		vector.StrokeLine(screen, a.DstX, a.DstY, b.DstX, b.DstY, 1.5, outline, true)
	}
}

func drawBall(screen *ebiten.Image, pos physics.Vec, radius float64, fill, outline color.Color) {
	x, y := common.WorldToScreen(pos.X, pos.Y)
	r := float32(common.WorldLength(radius))
	vector.FillCircle(screen, float32(x), float32(y), r, fill, true)
	vector.StrokeCircle(screen, float32(x), float32(y), r, 1.5, outline, true)
}

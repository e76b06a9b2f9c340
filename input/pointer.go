// Package input turns ebiten mouse and touch state into pointer events.
package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Handler receives pointer events in screen coordinates.
type Handler interface {
	PointerDown(x, y float64)
	PointerMove(x, y float64)
	PointerUp(x, y float64)
}

// Sample is one tick of a single pointer device.
type Sample struct {
	X, Y         float64
	JustPressed  bool
	JustReleased bool
}

// Tracker turns samples into down/move/up events for one device.
type Tracker struct {
	held         bool
	lastX, lastY float64
}

func (t *Tracker) Held() bool {
	return t.held
}

// Feed dispatches the events implied by s. A press that starts while blocked
// (for example over a UI widget) is ignored along with its drag.
func (t *Tracker) Feed(s Sample, h Handler, blocked bool) {
	switch {
	case s.JustPressed && !t.held:
		if !blocked {
			t.held = true
			h.PointerDown(s.X, s.Y)
		}
	case t.held && s.JustReleased:
		t.held = false
		h.PointerUp(s.X, s.Y)
	case t.held && (s.X != t.lastX || s.Y != t.lastY):
		h.PointerMove(s.X, s.Y)
	}
	t.lastX, t.lastY = s.X, s.Y
}

// Pointer merges the left mouse button and the first active touch.
type Pointer struct {
	mouse Tracker
	touch Tracker

	touchID  ebiten.TouchID
	touching bool
	ids      []ebiten.TouchID
}

func (p *Pointer) Held() bool {
	return p.mouse.Held() || p.touch.Held()
}

// Update polls ebiten and forwards events to h.
func (p *Pointer) Update(h Handler, blocked bool) {
	mx, my := ebiten.CursorPosition()
	p.mouse.Feed(Sample{
		X:            float64(mx),
		Y:            float64(my),
		JustPressed:  inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		JustReleased: inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
	}, h, blocked)

	if !p.touching {
		p.ids = inpututil.AppendJustPressedTouchIDs(p.ids[:0])
		if len(p.ids) == 0 {
			return
		}
		p.touchID = p.ids[0]
		p.touching = true
		x, y := ebiten.TouchPosition(p.touchID)
		p.touch.Feed(Sample{X: float64(x), Y: float64(y), JustPressed: true}, h, blocked)
		if !p.touch.Held() {
			p.touching = false
		}
		return
	}

	if inpututil.IsTouchJustReleased(p.touchID) {
		x, y := inpututil.TouchPositionInPreviousTick(p.touchID)
		p.touch.Feed(Sample{X: float64(x), Y: float64(y), JustReleased: true}, h, blocked)
		p.touching = false
		return
	}
	x, y := ebiten.TouchPosition(p.touchID)
	p.touch.Feed(Sample{X: float64(x), Y: float64(y)}, h, blocked)
}

// Package physicstest provides a deterministic physics.World for tests of
// code that consumes the physics capability.
package physicstest

import (
	"fmt"

	"github.com/milk9111/slingshot/physics"
)

// Body is the fake's view of a body.
type Body struct {
	Static          bool
	Position        physics.Vec
	Velocity        physics.Vec
	AngularVelocity float64
	Angle           float64
	Fixtures        []Fixture
	Impulses        []physics.Vec
}

// Fixture records an attached shape.
type Fixture struct {
	Kind     string
	Width    float64
	Height   float64
	Radius   float64
	A, B     physics.Vec
	Material physics.Material
}

// World integrates velocities without gravity or collision response. Contacts
// are only those queued by the test.
type World struct {
	Gravity physics.Vec
	Steps   int

	bodies  map[physics.Handle]*Body
	nextID  physics.Handle
	queued  []physics.Contact
	onTouch physics.ContactFunc

	// BeforeStep runs at the start of every Step.
	BeforeStep func(w *World)
}

func New() *World {
	return &World{bodies: make(map[physics.Handle]*Body)}
}

// Body returns the fake body for h.
func (w *World) Body(h physics.Handle) (*Body, bool) {
	b, ok := w.bodies[h]
	return b, ok
}

// QueueContact schedules a contact for delivery during the next Step.
func (w *World) QueueContact(a, b physics.Handle, normalImpulse float64) {
	w.queued = append(w.queued, physics.Contact{A: a, B: b, NormalImpulse: normalImpulse})
}

// Vanish drops a body without going through DestroyBody, mimicking an engine fault.
func (w *World) Vanish(h physics.Handle) {
	delete(w.bodies, h)
}

func (w *World) CreateStaticBody(pos physics.Vec) physics.Handle {
	return w.add(&Body{Static: true, Position: pos})
}

func (w *World) CreateDynamicBody(pos physics.Vec) physics.Handle {
	return w.add(&Body{Position: pos})
}

func (w *World) add(b *Body) physics.Handle {
	w.nextID++
	w.bodies[w.nextID] = b
	return w.nextID
}

func (w *World) AttachBox(h physics.Handle, width, height float64, m physics.Material) error {
	return w.attach(h, Fixture{Kind: "box", Width: width, Height: height, Material: m})
}

func (w *World) AttachCircle(h physics.Handle, radius float64, m physics.Material) error {
	return w.attach(h, Fixture{Kind: "circle", Radius: radius, Material: m})
}

func (w *World) AttachEdge(h physics.Handle, a, b physics.Vec, m physics.Material) error {
	return w.attach(h, Fixture{Kind: "edge", A: a, B: b, Material: m})
}

func (w *World) attach(h physics.Handle, f Fixture) error {
	b, ok := w.bodies[h]
	if !ok {
		return fmt.Errorf("physicstest: attach %s to %d: %w", f.Kind, h, physics.ErrUnknownBody)
	}
	b.Fixtures = append(b.Fixtures, f)
	return nil
}

func (w *World) Step(dt float64, velocityIters, positionIters int) {
	w.Steps++
	if w.BeforeStep != nil {
		w.BeforeStep(w)
	}
	for _, b := range w.bodies {
		if b.Static {
			continue
		}
		b.Velocity = b.Velocity.Add(w.Gravity.Scale(dt))
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
		b.Angle += b.AngularVelocity * dt
	}
	queued := w.queued
	w.queued = nil
	for _, c := range queued {
		if w.onTouch != nil {
			w.onTouch(c)
		}
	}
}

func (w *World) OnContact(fn physics.ContactFunc) {
	w.onTouch = fn
}

func (w *World) Position(h physics.Handle) (physics.Vec, bool) {
	b, ok := w.bodies[h]
	if !ok {
		return physics.Vec{}, false
	}
	return b.Position, true
}

func (w *World) Angle(h physics.Handle) (float64, bool) {
	b, ok := w.bodies[h]
	if !ok {
		return 0, false
	}
	return b.Angle, true
}

func (w *World) LinearVelocity(h physics.Handle) (physics.Vec, bool) {
	b, ok := w.bodies[h]
	if !ok {
		return physics.Vec{}, false
	}
	return b.Velocity, true
}

func (w *World) SetPosition(h physics.Handle, p physics.Vec) error {
	b, ok := w.bodies[h]
	if !ok {
		return physics.ErrUnknownBody
	}
	b.Position = p
	return nil
}

func (w *World) SetLinearVelocity(h physics.Handle, v physics.Vec) error {
	b, ok := w.bodies[h]
	if !ok {
		return physics.ErrUnknownBody
	}
	b.Velocity = v
	return nil
}

func (w *World) SetAngularVelocity(h physics.Handle, av float64) error {
	b, ok := w.bodies[h]
	if !ok {
		return physics.ErrUnknownBody
	}
	b.AngularVelocity = av
	return nil
}

// ApplyLinearImpulse treats every body as unit mass.
func (w *World) ApplyLinearImpulse(h physics.Handle, impulse, point physics.Vec) error {
	b, ok := w.bodies[h]
	if !ok {
		return physics.ErrUnknownBody
	}
	b.Impulses = append(b.Impulses, impulse)
	b.Velocity = b.Velocity.Add(impulse)
	return nil
}

func (w *World) DestroyBody(h physics.Handle) error {
	if _, ok := w.bodies[h]; !ok {
		return physics.ErrUnknownBody
	}
	delete(w.bodies, h)
	return nil
}

func (w *World) BodyCount() int {
	return len(w.bodies)
}

var _ physics.World = (*World)(nil)

// Package physics defines the capability the simulation core needs from a 2D
// rigid-body engine, plus a Chipmunk2D-backed implementation.
package physics

import (
	"errors"
	"math"
)

var ErrUnknownBody = errors.New("physics: unknown body handle")

// Handle identifies a body without exposing engine internals. Zero is never issued.
type Handle uint64

func (h Handle) Valid() bool {
	return h != 0
}

// Vec is a 2D vector in simulation units.
type Vec struct {
	X float64
	Y float64
}

func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec) Sub(o Vec) Vec {
	return Vec{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec) Scale(s float64) Vec {
	return Vec{X: v.X * s, Y: v.Y * s}
}

func (v Vec) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Material is the per-fixture surface description.
type Material struct {
	Density    float64
	Friction   float64
	Elasticity float64
}

// Contact is reported once per touching body pair after each step.
type Contact struct {
	A             Handle
	B             Handle
	NormalImpulse float64
}

// ContactFunc receives the contacts of a step.
type ContactFunc func(Contact)

// World is the engine façade consumed by the game core. Implementations are
// not safe for concurrent use; Step is never called concurrently with itself.
type World interface {
	CreateStaticBody(pos Vec) Handle
	CreateDynamicBody(pos Vec) Handle

	AttachBox(h Handle, width, height float64, m Material) error
	AttachCircle(h Handle, radius float64, m Material) error
	// AttachEdge adds a segment from a to b, relative to the body position.
	AttachEdge(h Handle, a, b Vec, m Material) error

	Step(dt float64, velocityIters, positionIters int)
	OnContact(fn ContactFunc)

	Position(h Handle) (Vec, bool)
	Angle(h Handle) (float64, bool)
	LinearVelocity(h Handle) (Vec, bool)

	SetPosition(h Handle, p Vec) error
	SetLinearVelocity(h Handle, v Vec) error
	SetAngularVelocity(h Handle, w float64) error
	ApplyLinearImpulse(h Handle, impulse, point Vec) error

	DestroyBody(h Handle) error
	BodyCount() int
}

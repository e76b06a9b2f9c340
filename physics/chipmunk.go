package physics

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// ChipmunkWorld owns a Chipmunk space and maps handles onto its bodies.
type ChipmunkWorld struct {
	space   *cp.Space
	nextID  Handle
	onTouch ContactFunc

	bodies       map[Handle]*bodyInfo
	shapeToBody  map[*cp.Shape]Handle
	contactsSeen map[*cp.Arbiter]struct{}
}

type bodyInfo struct {
	body   *cp.Body
	shapes []*cp.Shape
	static bool
	mass   float64
	moment float64
}

// NewChipmunkWorld creates a space with the given gravity (y up).
func NewChipmunkWorld(gravity Vec) *ChipmunkWorld {
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{X: gravity.X, Y: gravity.Y})
	return &ChipmunkWorld{
		space:        space,
		bodies:       make(map[Handle]*bodyInfo),
		shapeToBody:  make(map[*cp.Shape]Handle),
		contactsSeen: make(map[*cp.Arbiter]struct{}),
	}
}

// Space returns the underlying Chipmunk space.
func (cw *ChipmunkWorld) Space() *cp.Space {
	if cw == nil {
		return nil
	}
	return cw.space
}

func (cw *ChipmunkWorld) CreateStaticBody(pos Vec) Handle {
	body := cp.NewStaticBody()
	body.SetPosition(cp.Vector{X: pos.X, Y: pos.Y})
	cw.space.AddBody(body)
	return cw.track(&bodyInfo{body: body, static: true})
}

func (cw *ChipmunkWorld) CreateDynamicBody(pos Vec) Handle {
	// mass and moment are replaced once the first fixture is attached
	body := cp.NewBody(1, cp.MomentForCircle(1, 0, 1, cp.Vector{}))
	body.SetPosition(cp.Vector{X: pos.X, Y: pos.Y})
	body.SetAngle(0)
	body.SetAngularVelocity(0)
	cw.space.AddBody(body)
	return cw.track(&bodyInfo{body: body})
}

func (cw *ChipmunkWorld) track(info *bodyInfo) Handle {
	cw.nextID++
	cw.bodies[cw.nextID] = info
	return cw.nextID
}

func (cw *ChipmunkWorld) AttachBox(h Handle, width, height float64, m Material) error {
	info, ok := cw.bodies[h]
	if !ok {
		return fmt.Errorf("physics: attach box to %d: %w", h, ErrUnknownBody)
	}
	shape := cp.NewBox(info.body, width, height, 0)
	mass := m.Density * width * height
	cw.addShape(h, info, shape, m, mass, cp.MomentForBox(mass, width, height))
	return nil
}

func (cw *ChipmunkWorld) AttachCircle(h Handle, radius float64, m Material) error {
	info, ok := cw.bodies[h]
	if !ok {
		return fmt.Errorf("physics: attach circle to %d: %w", h, ErrUnknownBody)
	}
	shape := cp.NewCircle(info.body, radius, cp.Vector{})
	mass := m.Density * math.Pi * radius * radius
	cw.addShape(h, info, shape, m, mass, cp.MomentForCircle(mass, 0, radius, cp.Vector{}))
	return nil
}

func (cw *ChipmunkWorld) AttachEdge(h Handle, a, b Vec, m Material) error {
	info, ok := cw.bodies[h]
	if !ok {
		return fmt.Errorf("physics: attach edge to %d: %w", h, ErrUnknownBody)
	}
	shape := cp.NewSegment(info.body, cp.Vector{X: a.X, Y: a.Y}, cp.Vector{X: b.X, Y: b.Y}, 0)
	cw.addShape(h, info, shape, m, 0, 0)
	return nil
}

func (cw *ChipmunkWorld) addShape(h Handle, info *bodyInfo, shape *cp.Shape, m Material, mass, moment float64) {
	shape.SetFriction(m.Friction)
	shape.SetElasticity(m.Elasticity)
	cw.space.AddShape(shape)
	info.shapes = append(info.shapes, shape)
	cw.shapeToBody[shape] = h

	if info.static || mass <= 0 {
		return
	}
	info.mass += mass
	info.moment += moment
	info.body.SetMass(info.mass)
	info.body.SetMoment(info.moment)
}

// Step advances the space. Chipmunk folds positional correction into its
// single solver loop, so both iteration budgets feed space.Iterations.
func (cw *ChipmunkWorld) Step(dt float64, velocityIters, positionIters int) {
	iters := velocityIters + positionIters
	if iters < 1 {
		iters = 1
	}
	cw.space.Iterations = uint(iters)
	cw.space.Step(dt)
	cw.reportContacts()
}

func (cw *ChipmunkWorld) OnContact(fn ContactFunc) {
	cw.onTouch = fn
}

// reportContacts walks the arbiters cached by the last step. Impulses read
// here are the ones the solver accumulated during that step.
func (cw *ChipmunkWorld) reportContacts() {
	if cw.onTouch == nil {
		return
	}
	clear(cw.contactsSeen)
	for _, info := range cw.bodies {
		if info.static {
			continue
		}
		info.body.EachArbiter(func(arb *cp.Arbiter) {
			if _, seen := cw.contactsSeen[arb]; seen {
				return
			}
			cw.contactsSeen[arb] = struct{}{}

			shapeA, shapeB := arb.Shapes()
			a, okA := cw.shapeToBody[shapeA]
			b, okB := cw.shapeToBody[shapeB]
			if !okA || !okB {
				return
			}
			impulse := math.Abs(arb.TotalImpulse().Dot(arb.Normal()))
			cw.onTouch(Contact{A: a, B: b, NormalImpulse: impulse})
		})
	}
}

func (cw *ChipmunkWorld) Position(h Handle) (Vec, bool) {
	info, ok := cw.bodies[h]
	if !ok {
		return Vec{}, false
	}
	p := info.body.Position()
	return Vec{X: p.X, Y: p.Y}, true
}

func (cw *ChipmunkWorld) Angle(h Handle) (float64, bool) {
	info, ok := cw.bodies[h]
	if !ok {
		return 0, false
	}
	return info.body.Angle(), true
}

func (cw *ChipmunkWorld) LinearVelocity(h Handle) (Vec, bool) {
	info, ok := cw.bodies[h]
	if !ok {
		return Vec{}, false
	}
	v := info.body.Velocity()
	return Vec{X: v.X, Y: v.Y}, true
}

func (cw *ChipmunkWorld) SetPosition(h Handle, p Vec) error {
	info, ok := cw.bodies[h]
	if !ok {
		return fmt.Errorf("physics: set position of %d: %w", h, ErrUnknownBody)
	}
	info.body.SetPosition(cp.Vector{X: p.X, Y: p.Y})
	if info.static {
		// static shapes are only re-indexed when they re-enter the space
		for _, shape := range info.shapes {
			cw.space.RemoveShape(shape)
			cw.space.AddShape(shape)
		}
	}
	return nil
}

func (cw *ChipmunkWorld) SetLinearVelocity(h Handle, v Vec) error {
	info, ok := cw.bodies[h]
	if !ok {
		return fmt.Errorf("physics: set velocity of %d: %w", h, ErrUnknownBody)
	}
	if info.static {
		return nil
	}
	info.body.SetVelocityVector(cp.Vector{X: v.X, Y: v.Y})
	return nil
}

func (cw *ChipmunkWorld) SetAngularVelocity(h Handle, w float64) error {
	info, ok := cw.bodies[h]
	if !ok {
		return fmt.Errorf("physics: set angular velocity of %d: %w", h, ErrUnknownBody)
	}
	if info.static {
		return nil
	}
	info.body.SetAngularVelocity(w)
	return nil
}

func (cw *ChipmunkWorld) ApplyLinearImpulse(h Handle, impulse, point Vec) error {
	info, ok := cw.bodies[h]
	if !ok {
		return fmt.Errorf("physics: apply impulse to %d: %w", h, ErrUnknownBody)
	}
	if info.static {
		return nil
	}
	info.body.ApplyImpulseAtWorldPoint(cp.Vector{X: impulse.X, Y: impulse.Y}, cp.Vector{X: point.X, Y: point.Y})
	return nil
}

func (cw *ChipmunkWorld) DestroyBody(h Handle) error {
	info, ok := cw.bodies[h]
	if !ok {
		return fmt.Errorf("physics: destroy %d: %w", h, ErrUnknownBody)
	}
	for _, shape := range info.shapes {
		cw.space.RemoveShape(shape)
		delete(cw.shapeToBody, shape)
	}
	cw.space.RemoveBody(info.body)
	delete(cw.bodies, h)
	return nil
}

func (cw *ChipmunkWorld) BodyCount() int {
	return len(cw.bodies)
}

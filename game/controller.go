package game

import (
	"github.com/milk9111/slingshot/common"
	"github.com/milk9111/slingshot/config"
	"github.com/milk9111/slingshot/ecs"
	"github.com/milk9111/slingshot/physics"
	"go.uber.org/zap"
)

type DragMode int

const (
	DragNone DragMode = iota
	DragAimingBird
	DragObject
)

// DragSession lives between a pointer-down and the matching pointer-up.
type DragSession struct {
	Mode   DragMode
	Target ecs.Entity
	// Offset is the object's position minus the pointer at pick-up.
	Offset  physics.Vec
	Anchor  physics.Vec
	Pointer physics.Vec
}

// Controller turns pointer events into aiming, dragging and launches.
type Controller struct {
	reg    *Registry
	world  physics.World
	round  *RoundState
	tuning *config.Tuning
	log    *zap.Logger

	drag    DragSession
	pressed bool

	// EditMode treats the bird as a draggable object and never launches.
	EditMode bool
}

func NewController(reg *Registry, world physics.World, round *RoundState, tuning *config.Tuning, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{reg: reg, world: world, round: round, tuning: tuning, log: log}
}

func (c *Controller) Drag() DragSession {
	return c.drag
}

// Pressed reports whether the pointer is held down.
func (c *Controller) Pressed() bool {
	return c.pressed
}

// AimLine returns the anchor and pointer of an aim in progress.
func (c *Controller) AimLine() (anchor, pointer physics.Vec, ok bool) {
	if c.drag.Mode != DragAimingBird {
		return physics.Vec{}, physics.Vec{}, false
	}
	return c.drag.Anchor, c.drag.Pointer, true
}

// Reset drops any drag in progress.
func (c *Controller) Reset() {
	c.drag = DragSession{}
	c.pressed = false
}

func toWorld(sx, sy float64) physics.Vec {
	x, y := common.ScreenToWorld(sx, sy)
	return physics.Vec{X: x, Y: y}
}

func (c *Controller) PointerDown(sx, sy float64) {
	p := toWorld(sx, sy)
	c.pressed = true
	c.drag = DragSession{Pointer: p}

	if c.round.Phase == PhaseGameOver {
		return
	}

	if !c.EditMode && c.round.Phase == PhaseAiming && !c.round.BirdLaunched {
		if bird, ok := c.reg.Bird(); ok {
			if pos, ok := c.world.Position(bird.Body); ok && within(p, pos, c.tuning.BirdPickRadius) {
				c.drag.Mode = DragAimingBird
				c.drag.Target = bird.Handle
				c.drag.Anchor = pos
				return
			}
		}
	}

	if e, pos, ok := c.Pick(p); ok {
		c.drag.Mode = DragObject
		c.drag.Target = e.Handle
		c.drag.Offset = pos.Sub(p)
	}
}

type pickGroup struct {
	entries []*Entry
	radius  float64
}

// Pick hit-tests boxes, then pigs, then (in edit mode) the bird.
func (c *Controller) Pick(p physics.Vec) (*Entry, physics.Vec, bool) {
	groups := []pickGroup{
		{c.reg.Boxes(), c.tuning.BoxPickRadius},
		{c.reg.Pigs(), c.tuning.PigPickRadius},
	}
	if c.EditMode {
		if bird, ok := c.reg.Bird(); ok {
			groups = append(groups, pickGroup{[]*Entry{bird}, c.tuning.BirdPickRadius})
		}
	}
	for _, g := range groups {
		for _, e := range g.entries {
			pos, ok := c.world.Position(e.Body)
			if ok && within(p, pos, g.radius) {
				return e, pos, true
			}
		}
	}
	return nil, physics.Vec{}, false
}

func (c *Controller) PointerMove(sx, sy float64) {
	p := toWorld(sx, sy)
	c.drag.Pointer = p

	if c.drag.Mode != DragObject {
		return
	}
	e, ok := c.reg.Get(c.drag.Target)
	if !ok {
		// destroyed while held
		c.drag.Mode = DragNone
		return
	}
	if err := c.world.SetPosition(e.Body, p.Add(c.drag.Offset)); err != nil {
		c.log.Warn("drag teleport failed", zap.Stringer("entity", e.Handle), zap.Error(err))
		c.drag.Mode = DragNone
	}
}

func (c *Controller) PointerUp(sx, sy float64) {
	p := toWorld(sx, sy)
	c.drag.Pointer = p
	c.pressed = false

	if c.drag.Mode == DragAimingBird {
		c.launch(c.drag.Anchor, p)
	}
	c.drag = DragSession{Pointer: p}
}

func (c *Controller) launch(anchor, p physics.Vec) {
	if c.round.Phase != PhaseAiming || c.round.BirdsRemaining <= 0 {
		return
	}
	bird, ok := c.reg.Bird()
	if !ok {
		return
	}
	center, ok := c.world.Position(bird.Body)
	if !ok {
		return
	}
	impulse := p.Sub(anchor).Scale(c.tuning.LaunchMultiplier)

	if err := c.world.SetLinearVelocity(bird.Body, physics.Vec{}); err != nil {
		c.log.Warn("launch aborted", zap.Error(err))
		return
	}
	if err := c.world.ApplyLinearImpulse(bird.Body, impulse, center); err != nil {
		c.log.Warn("launch aborted", zap.Error(err))
		return
	}

	c.round.Phase = PhaseInFlight
	c.round.BirdLaunched = true
	c.round.BirdsRemaining--
	c.log.Debug("bird launched",
		zap.Float64("impulse_x", impulse.X),
		zap.Float64("impulse_y", impulse.Y),
		zap.Int("birds_remaining", c.round.BirdsRemaining))
}

func within(p, center physics.Vec, r float64) bool {
	return common.WithinRadius(p.X, p.Y, center.X, center.Y, r)
}

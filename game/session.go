package game

import (
	"fmt"

	"github.com/milk9111/slingshot/config"
	"github.com/milk9111/slingshot/ecs"
	"github.com/milk9111/slingshot/levels"
	"github.com/milk9111/slingshot/physics"
	"go.uber.org/zap"
)

// Session is the play-mode aggregate: the world, the registry, the round and
// the controller. It is single-threaded and driven by the host's frame loop.
type Session struct {
	world  physics.World
	tuning config.Tuning
	log    *zap.Logger

	reg    *Registry
	ctrl   *Controller
	round  RoundState
	ground physics.Handle

	doc      levels.Document
	origin   physics.Vec
	pigCount int

	contacts []physics.Contact
	events   ecs.EventQueue[Event]
}

// NewSession wires a session onto world and adds the ground. It holds no
// level until LoadLevel is called.
func NewSession(world physics.World, tuning config.Tuning, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		world:  world,
		tuning: tuning,
		log:    log,
		round:  NewRoundState(tuning.BirdsPerRound),
		origin: tuning.LaunchOrigin.Vec(),
	}
	s.reg = NewRegistry(world, tuning, log.Named("registry"))
	s.ctrl = NewController(s.reg, world, &s.round, &s.tuning, log.Named("controller"))
	world.OnContact(func(c physics.Contact) {
		s.contacts = append(s.contacts, c)
	})

	s.ground = world.CreateStaticBody(physics.Vec{X: 0, Y: tuning.GroundY})
	a := physics.Vec{X: -tuning.GroundHalfWidth}
	b := physics.Vec{X: tuning.GroundHalfWidth}
	if err := world.AttachEdge(s.ground, a, b, tuning.Materials.Ground.Material()); err != nil {
		log.Error("attach ground", zap.Error(err))
	}
	return s
}

func (s *Session) World() physics.World { return s.world }
func (s *Session) Registry() *Registry { return s.reg }
func (s *Session) Controller() *Controller { return s.ctrl }
func (s *Session) Round() RoundState { return s.round }
func (s *Session) Tuning() config.Tuning { return s.tuning }
func (s *Session) Ground() physics.Handle { return s.ground }
func (s *Session) LaunchOrigin() physics.Vec { return s.origin }
func (s *Session) Level() levels.Document { return s.doc }
func (s *Session) PointerDown(sx, sy float64) { s.ctrl.PointerDown(sx, sy) }
func (s *Session) PointerMove(sx, sy float64) { s.ctrl.PointerMove(sx, sy) }
func (s *Session) PointerUp(sx, sy float64) { s.ctrl.PointerUp(sx, sy) }

// Cleared reports a won round: the level had pigs and none remain.
func (s *Session) Cleared() bool {
	return s.pigCount > 0 && len(s.reg.Pigs()) == 0
}

// LoadLevel decodes doc on the lenient path and swaps it in. The old level is
// fully torn down before the new one is populated. A document that fails to
// decode leaves the session untouched.
func (s *Session) LoadLevel(doc levels.Document) error {
	lvl, err := levels.Decode(doc, levels.Point{X: s.tuning.LaunchOrigin.X, Y: s.tuning.LaunchOrigin.Y})
	if err != nil {
		return err
	}
	s.doc = doc
	return s.populate(lvl, 0)
}

// Restart acknowledges the end of a round and reloads the current level.
// Score carries over only when tuning asks for it.
func (s *Session) Restart() error {
	if s.doc == nil {
		return &levels.ValidationError{Reason: "no level loaded"}
	}
	lvl, err := levels.Decode(s.doc, levels.Point{X: s.tuning.LaunchOrigin.X, Y: s.tuning.LaunchOrigin.Y})
	if err != nil {
		return err
	}
	score := 0
	if s.tuning.KeepScoreOnRestart {
		score = s.round.Score
	}
	return s.populate(lvl, score)
}

func (s *Session) populate(lvl levels.Level, score int) error {
	s.ctrl.Reset()
	s.reg.Clear()
	s.contacts = s.contacts[:0]
	s.events.Flush()
	s.round = NewRoundState(s.tuning.BirdsPerRound)
	s.round.Score = score
	s.origin = physics.Vec{X: lvl.Bird.X, Y: lvl.Bird.Y}
	s.pigCount = 0

	for _, e := range lvl.Entities {
		pos := physics.Vec{X: e.X, Y: e.Y}
		var err error
		switch e.Kind {
		case levels.KindBox:
			_, err = s.reg.AddBox(e.ID, pos, e.Width, e.Height)
		case levels.KindPig:
			_, err = s.reg.AddPig(e.ID, pos)
			s.pigCount++
		}
		if err != nil {
			s.reg.Clear()
			return fmt.Errorf("game: load level: %w", err)
		}
	}
	if _, err := s.reg.SpawnBird(s.origin); err != nil {
		s.reg.Clear()
		return fmt.Errorf("game: load level: %w", err)
	}

	s.log.Info("level loaded",
		zap.Int("boxes", lvl.Count(levels.KindBox)),
		zap.Int("pigs", s.pigCount),
		zap.Bool("bird_in_level", lvl.HasBird))
	return nil
}

// Update runs one frame. A returned PhysicsEngineFault has already been
// recovered from; the caller only needs to log it.
func (s *Session) Update() error {
	t := s.tuning
	s.contacts = s.contacts[:0]
	s.world.Step(t.TimeStep, t.VelocityIterations, t.PositionIterations)

	s.flagPigs()
	s.sweepPigs()

	fault := s.ensureBird()
	s.resolveBird()

	if fault != nil {
		return fault
	}
	return nil
}

func (s *Session) flagPigs() {
	for _, c := range s.contacts {
		if c.A == s.ground || c.B == s.ground {
			continue
		}
		if c.NormalImpulse <= s.tuning.DestroyImpulse {
			continue
		}
		for _, body := range [2]physics.Handle{c.A, c.B} {
			if e, ok := s.reg.Lookup(body); ok && e.Kind == levels.KindPig {
				e.Destroyed = true
			}
		}
	}
}

func (s *Session) sweepPigs() {
	for _, pig := range s.reg.Pigs() {
		if !pig.Destroyed {
			continue
		}
		s.reg.Remove(pig.Handle)
		s.round.Score += s.tuning.PigPoints
		s.events.Push(Event{Kind: EventPigDestroyed, ID: pig.ID, Score: s.round.Score})
		s.log.Debug("pig destroyed", zap.String("id", pig.ID), zap.Int("score", s.round.Score))
	}
}

// ensureBird recreates the bird at the launch origin when its body is gone.
func (s *Session) ensureBird() *PhysicsEngineFault {
	if s.round.Phase == PhaseGameOver || s.round.ending {
		return nil
	}
	bird, ok := s.reg.Bird()
	if ok {
		if _, alive := s.world.Position(bird.Body); alive {
			return nil
		}
	}

	fault := &PhysicsEngineFault{Reason: "bird missing after step"}
	if ok {
		fault.Body = bird.Body
	}
	if _, err := s.reg.SpawnBird(s.origin); err != nil {
		fault.Reason += ": respawn failed: " + err.Error()
		return fault
	}
	if s.round.Phase == PhaseInFlight {
		// the launched bird is lost; resolve it as if it had come to rest
		s.nextBird(false)
	}
	return fault
}

func (s *Session) resolveBird() {
	switch {
	case s.round.ending:
		s.round.gameOverIn -= s.tuning.TimeStep
		if s.round.gameOverIn <= 0 {
			s.round.ending = false
			s.round.Phase = PhaseGameOver
			s.events.Push(Event{Kind: EventGameOver, Score: s.round.Score})
			s.log.Info("game over", zap.Int("score", s.round.Score))
		}
		return
	case s.round.Phase != PhaseInFlight:
		return
	}

	bird, ok := s.reg.Bird()
	if !ok {
		return
	}
	pos, okPos := s.world.Position(bird.Body)
	vel, okVel := s.world.LinearVelocity(bird.Body)
	if !okPos || !okVel {
		return
	}

	out := pos.X > s.tuning.BoundsMaxX || pos.Y < s.tuning.BoundsMinY
	rest := vel.Len() < s.tuning.RestSpeed && !s.ctrl.Pressed()
	if out || rest {
		s.nextBird(true)
	}
}

// nextBird resolves the launched bird: a fresh one when ammo remains,
// otherwise the game-over countdown starts.
func (s *Session) nextBird(respawn bool) {
	s.events.Push(Event{Kind: EventBirdResolved, Score: s.round.Score})
	if s.round.BirdsRemaining <= 0 {
		s.round.ending = true
		s.round.gameOverIn = s.tuning.GameOverDelay.Seconds()
		return
	}
	if respawn {
		if _, err := s.reg.SpawnBird(s.origin); err != nil {
			s.log.Error("spawn bird", zap.Error(err))
			return
		}
	}
	s.round.Phase = PhaseAiming
	s.round.BirdLaunched = false
}

// Events drains the round events emitted since the last call.
func (s *Session) Events() []Event {
	return s.events.Drain()
}

// Document encodes the current registry, with live body positions, in the
// given dialect.
func (s *Session) Document(d levels.Dialect) levels.Document {
	return Snapshot(s.reg, s.world, s.origin, d)
}

// Snapshot encodes reg using the live positions from world. fallback is used
// as the bird position when there is no bird body.
func Snapshot(reg *Registry, world physics.World, fallback physics.Vec, d levels.Dialect) levels.Document {
	var entities []levels.Entity
	bird := levels.Point{X: fallback.X, Y: fallback.Y}
	for _, e := range reg.All() {
		pos, ok := world.Position(e.Body)
		if !ok {
			continue
		}
		if e.Kind == levels.KindBird {
			bird = levels.Point{X: pos.X, Y: pos.Y}
			continue
		}
		entities = append(entities, levels.Entity{
			ID:     e.ID,
			Kind:   e.Kind,
			X:      pos.X,
			Y:      pos.Y,
			Width:  e.Width,
			Height: e.Height,
		})
	}
	return levels.Encode(entities, bird, d)
}

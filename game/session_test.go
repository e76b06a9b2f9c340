package game

import (
	"errors"
	"math"
	"testing"

	"github.com/milk9111/slingshot/common"
	"github.com/milk9111/slingshot/config"
	"github.com/milk9111/slingshot/levels"
	"github.com/milk9111/slingshot/physics"
	"github.com/milk9111/slingshot/physics/physicstest"
	"go.uber.org/zap/zaptest"
)

func size(v float64) *float64 { return &v }

func pigLevel() levels.Document {
	return levels.Document{
		{ID: "box", X: 10, Y: 0.5, Width: size(1), Height: size(1), Type: "box"},
		{ID: "pig", X: 15, Y: 2, Type: "pig"},
		{ID: "bird", X: 5, Y: 1, Type: "bird"},
	}
}

func newSession(t *testing.T, tuning config.Tuning, doc levels.Document) (*Session, *physicstest.World) {
	t.Helper()
	w := physicstest.New()
	s := NewSession(w, tuning, zaptest.NewLogger(t))
	if err := s.LoadLevel(doc); err != nil {
		t.Fatalf("LoadLevel: %v", err)
	}
	return s, w
}

func screen(x, y float64) (float64, float64) {
	return common.WorldToScreen(x, y)
}

// launch drags from the bird by (dx, dy) and releases.
func launch(t *testing.T, s *Session, dx, dy float64) {
	t.Helper()
	bird, ok := s.Registry().Bird()
	if !ok {
		t.Fatal("no bird to launch")
	}
	pos, _ := s.World().Position(bird.Body)
	s.PointerDown(screen(pos.X, pos.Y))
	if s.Controller().Drag().Mode != DragAimingBird {
		t.Fatalf("expected to aim, drag mode %v", s.Controller().Drag().Mode)
	}
	s.PointerMove(screen(pos.X+dx, pos.Y+dy))
	s.PointerUp(screen(pos.X+dx, pos.Y+dy))
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestLaunchImpulse(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
	}{
		{name: "forward and up", dx: 3, dy: 4},
		{name: "pull back", dx: -2, dy: -1},
		{name: "straight up", dx: 0, dy: 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, w := newSession(t, config.DefaultTuning(), pigLevel())
			bird, _ := s.Registry().Bird()
			body, _ := w.Body(bird.Body)
			body.Velocity = physics.Vec{X: 7, Y: -3}

			launch(t, s, tt.dx, tt.dy)

			if len(body.Impulses) != 1 {
				t.Fatalf("expected one impulse, got %d", len(body.Impulses))
			}
			got := body.Impulses[0]
			if !approx(got.X, 5*tt.dx) || !approx(got.Y, 5*tt.dy) {
				t.Fatalf("impulse = %+v, want (%v, %v)", got, 5*tt.dx, 5*tt.dy)
			}
			if !approx(got.Len(), 5*math.Hypot(tt.dx, tt.dy)) {
				t.Fatalf("impulse magnitude = %v", got.Len())
			}
			// velocity is zeroed before the impulse
			if !approx(body.Velocity.X, got.X) || !approx(body.Velocity.Y, got.Y) {
				t.Fatalf("velocity = %+v, want %+v", body.Velocity, got)
			}

			r := s.Round()
			if r.BirdsRemaining != 2 || r.Phase != PhaseInFlight || !r.BirdLaunched {
				t.Fatalf("unexpected round %+v", r)
			}
			if s.Controller().Drag().Mode != DragNone {
				t.Fatal("drag should end on release")
			}
		})
	}
}

func TestPointerDownMidFlightDoesNotAim(t *testing.T) {
	s, _ := newSession(t, config.DefaultTuning(), pigLevel())
	launch(t, s, 3, 0)

	bird, _ := s.Registry().Bird()
	pos, _ := s.World().Position(bird.Body)
	s.PointerDown(screen(pos.X, pos.Y))
	if s.Controller().Drag().Mode == DragAimingBird {
		t.Fatal("aim started mid-flight")
	}
	s.PointerUp(screen(pos.X+1, pos.Y))
	if got := s.Round().BirdsRemaining; got != 2 {
		t.Fatalf("birds remaining = %d, want 2", got)
	}
}

func TestDragMovesObjectRigidly(t *testing.T) {
	s, _ := newSession(t, config.DefaultTuning(), pigLevel())
	box := s.Registry().Boxes()[0]

	s.PointerDown(screen(10.2, 0.6))
	d := s.Controller().Drag()
	if d.Mode != DragObject || d.Target != box.Handle {
		t.Fatalf("expected to drag the box, got %+v", d)
	}

	s.PointerMove(screen(12.2, 2.6))
	pos, _ := s.World().Position(box.Body)
	if !approx(pos.X, 12) || !approx(pos.Y, 2.5) {
		t.Fatalf("box at %+v, want (12, 2.5)", pos)
	}

	s.PointerUp(screen(12.2, 2.6))
	if r := s.Round(); r.BirdsRemaining != 3 || r.Phase != PhaseAiming {
		t.Fatalf("dragging consumed a bird: %+v", r)
	}
}

func TestDragAllowedMidFlight(t *testing.T) {
	s, _ := newSession(t, config.DefaultTuning(), pigLevel())
	launch(t, s, 3, 0)

	s.PointerDown(screen(15, 2))
	if s.Controller().Drag().Mode != DragObject {
		t.Fatal("expected to pick up the pig mid-flight")
	}
}

func TestPickOrderPrefersBoxes(t *testing.T) {
	doc := levels.Document{
		{ID: "box", X: 10, Y: 1, Width: size(1), Height: size(1), Type: "box"},
		{ID: "pig", X: 10.1, Y: 1, Type: "pig"},
		{ID: "bird", X: 5, Y: 1, Type: "bird"},
	}
	s, _ := newSession(t, config.DefaultTuning(), doc)
	s.PointerDown(screen(10.1, 1))
	e, ok := s.Registry().Get(s.Controller().Drag().Target)
	if !ok || e.Kind != levels.KindBox {
		t.Fatalf("expected the box to be picked first, got %+v", e)
	}
}

func TestPointerMissStaysIdle(t *testing.T) {
	s, _ := newSession(t, config.DefaultTuning(), pigLevel())
	s.PointerDown(screen(30, 10))
	if s.Controller().Drag().Mode != DragNone {
		t.Fatal("expected no drag")
	}
	s.PointerUp(screen(30, 10))
	if s.Round().Phase != PhaseAiming {
		t.Fatal("phase changed on a miss")
	}
}

func TestPigDestruction(t *testing.T) {
	tests := []struct {
		name      string
		impulse   float64
		other     string
		wantGone  bool
		wantScore int
	}{
		{name: "bird hit above threshold", other: "bird", impulse: 5, wantGone: true, wantScore: 100},
		{name: "box hit above threshold", other: "box", impulse: 1.5, wantGone: true, wantScore: 100},
		{name: "hit at threshold", other: "bird", impulse: 1.0},
		{name: "ground hit at any impulse", other: "ground", impulse: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, w := newSession(t, config.DefaultTuning(), pigLevel())
			pig := s.Registry().Pigs()[0]
			box := s.Registry().Boxes()[0]
			bird, _ := s.Registry().Bird()

			other := map[string]physics.Handle{
				"bird":   bird.Body,
				"box":    box.Body,
				"ground": s.Ground(),
			}[tt.other]
			w.QueueContact(other, pig.Body, tt.impulse)

			if err := s.Update(); err != nil {
				t.Fatalf("Update: %v", err)
			}

			gone := len(s.Registry().Pigs()) == 0
			if gone != tt.wantGone {
				t.Fatalf("pig removed = %v, want %v", gone, tt.wantGone)
			}
			if _, alive := w.Body(pig.Body); alive == tt.wantGone {
				t.Fatalf("pig body alive = %v after removal = %v", alive, tt.wantGone)
			}
			if s.Round().Score != tt.wantScore {
				t.Fatalf("score = %d, want %d", s.Round().Score, tt.wantScore)
			}
		})
	}
}

func TestPigScoredOncePerStep(t *testing.T) {
	s, w := newSession(t, config.DefaultTuning(), pigLevel())
	pig := s.Registry().Pigs()[0]
	box := s.Registry().Boxes()[0]
	bird, _ := s.Registry().Bird()

	w.QueueContact(bird.Body, pig.Body, 4)
	w.QueueContact(pig.Body, box.Body, 3)
	if err := s.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if s.Round().Score != 100 {
		t.Fatalf("score = %d, want 100", s.Round().Score)
	}

	// a contact naming the dead body must not score again
	w.QueueContact(bird.Body, pig.Body, 4)
	if err := s.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if s.Round().Score != 100 {
		t.Fatalf("score = %d after stale contact, want 100", s.Round().Score)
	}
}

func TestLaunchIntoPig(t *testing.T) {
	s, w := newSession(t, config.DefaultTuning(), pigLevel())
	pig := s.Registry().Pigs()[0]
	bird, _ := s.Registry().Bird()

	w.BeforeStep = func(w *physicstest.World) {
		b, ok := w.Body(bird.Body)
		if !ok {
			return
		}
		if _, alive := w.Body(pig.Body); alive && within(b.Position, physics.Vec{X: 15, Y: 2}, 0.6) {
			w.QueueContact(bird.Body, pig.Body, b.Velocity.Len())
		}
	}

	// straight line from (5, 1) through (15, 2)
	launch(t, s, 2, 0.2)
	for i := 0; i < 120 && len(s.Registry().Pigs()) > 0; i++ {
		if err := s.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	if n := len(s.Registry().Pigs()); n != 0 {
		t.Fatalf("pigs = %d, want 0", n)
	}
	if s.Round().Score != 100 {
		t.Fatalf("score = %d, want 100", s.Round().Score)
	}
	if !s.Cleared() {
		t.Fatal("round should be cleared")
	}
}

func TestThreeExitsEndTheRound(t *testing.T) {
	s, w := newSession(t, config.DefaultTuning(), pigLevel())
	spawned := 0
	lastBird := physics.Handle(0)

	for shot := 1; shot <= 3; shot++ {
		bird, ok := s.Registry().Bird()
		if !ok {
			t.Fatalf("shot %d: no bird", shot)
		}
		if bird.Body != lastBird {
			spawned++
			lastBird = bird.Body
		}
		launch(t, s, 3, 0)
		if got := s.Round().BirdsRemaining; got != 3-shot {
			t.Fatalf("shot %d: birds remaining = %d", shot, got)
		}

		for i := 0; i < 600 && s.Round().Phase == PhaseInFlight && !s.Round().Ending(); i++ {
			if err := s.Update(); err != nil {
				t.Fatalf("Update: %v", err)
			}
		}
	}

	if !s.Round().Ending() && s.Round().Phase != PhaseGameOver {
		t.Fatalf("expected the round to be ending, got %+v", s.Round())
	}
	frames := 0
	for s.Round().Phase != PhaseGameOver && frames < 100 {
		if err := s.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
		frames++
	}
	if s.Round().Phase != PhaseGameOver {
		t.Fatal("never reached game over")
	}
	// 500ms at 60Hz
	if frames < 25 || frames > 31 {
		t.Fatalf("game over after %d frames, expected about 30", frames)
	}

	bird, _ := s.Registry().Bird()
	pos, _ := w.Position(bird.Body)
	if bird.Body != lastBird || pos.X <= 50 {
		t.Fatalf("a fourth bird was created at %+v", pos)
	}
	if spawned != 3 || s.Round().BirdsRemaining != 0 {
		t.Fatalf("spawned %d birds, %d remaining", spawned, s.Round().BirdsRemaining)
	}

	s.PointerDown(screen(10, 0.5))
	if s.Controller().Drag().Mode != DragNone {
		t.Fatal("no interaction expected after game over")
	}
}

func TestBirdAtRest(t *testing.T) {
	s, _ := newSession(t, config.DefaultTuning(), pigLevel())
	launch(t, s, 0, 0)

	// held pointer keeps the bird in flight
	s.PointerDown(screen(30, 10))
	if err := s.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if s.Round().Phase != PhaseInFlight {
		t.Fatalf("phase = %v while pointer held", s.Round().Phase)
	}

	s.PointerUp(screen(30, 10))
	if err := s.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	r := s.Round()
	if r.Phase != PhaseAiming || r.BirdLaunched || r.BirdsRemaining != 2 {
		t.Fatalf("unexpected round after rest %+v", r)
	}
	bird, _ := s.Registry().Bird()
	pos, _ := s.World().Position(bird.Body)
	if pos != (physics.Vec{X: 5, Y: 1}) {
		t.Fatalf("new bird at %+v, want launch origin", pos)
	}
}

func TestVanishedBirdIsRecreated(t *testing.T) {
	tests := []struct {
		name      string
		launch    bool
		wantPhase Phase
		wantBirds int
	}{
		{name: "while aiming", wantPhase: PhaseAiming, wantBirds: 3},
		{name: "in flight", launch: true, wantPhase: PhaseAiming, wantBirds: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, w := newSession(t, config.DefaultTuning(), pigLevel())
			if tt.launch {
				launch(t, s, 3, 0)
			}
			bird, _ := s.Registry().Bird()
			w.Vanish(bird.Body)

			err := s.Update()
			var fault *PhysicsEngineFault
			if !errors.As(err, &fault) {
				t.Fatalf("expected PhysicsEngineFault, got %v", err)
			}

			fresh, ok := s.Registry().Bird()
			if !ok || fresh.Body == bird.Body {
				t.Fatal("bird was not recreated")
			}
			if _, alive := w.Body(fresh.Body); !alive {
				t.Fatal("recreated bird has no body")
			}
			r := s.Round()
			if r.Phase != tt.wantPhase || r.BirdsRemaining != tt.wantBirds {
				t.Fatalf("round = %+v", r)
			}
			if err := s.Update(); err != nil {
				t.Fatalf("second frame: %v", err)
			}
		})
	}
}

func TestRestartScore(t *testing.T) {
	tests := []struct {
		name      string
		keep      bool
		wantScore int
	}{
		{name: "reset", wantScore: 0},
		{name: "keep", keep: true, wantScore: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tuning := config.DefaultTuning()
			tuning.KeepScoreOnRestart = tt.keep
			s, w := newSession(t, tuning, pigLevel())
			bird, _ := s.Registry().Bird()
			w.QueueContact(bird.Body, s.Registry().Pigs()[0].Body, 3)
			if err := s.Update(); err != nil {
				t.Fatal(err)
			}
			launch(t, s, 1, 0)

			if err := s.Restart(); err != nil {
				t.Fatalf("Restart: %v", err)
			}
			r := s.Round()
			if r.Score != tt.wantScore || r.BirdsRemaining != 3 || r.Phase != PhaseAiming {
				t.Fatalf("round after restart = %+v", r)
			}
			if len(s.Registry().Pigs()) != 1 {
				t.Fatal("restart should restore the pig")
			}
			// ground + box + pig + bird
			if n := w.BodyCount(); n != 4 {
				t.Fatalf("body count = %d, want 4", n)
			}
		})
	}
}

func TestLoadLevelRejectsEmptyDocument(t *testing.T) {
	s, w := newSession(t, config.DefaultTuning(), pigLevel())
	before := w.BodyCount()

	err := s.LoadLevel(levels.Document{})
	if !levels.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if w.BodyCount() != before || len(s.Registry().Pigs()) != 1 {
		t.Fatal("failed load mutated the session")
	}
}

func TestLoadLevelWithoutBirdUsesOrigin(t *testing.T) {
	doc := levels.Document{{ID: "pig", X: 15, Y: 2, Type: "pig"}}
	s, _ := newSession(t, config.DefaultTuning(), doc)
	bird, ok := s.Registry().Bird()
	if !ok {
		t.Fatal("expected a bird")
	}
	pos, _ := s.World().Position(bird.Body)
	if pos != config.DefaultTuning().LaunchOrigin.Vec() {
		t.Fatalf("bird at %+v", pos)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	s, _ := newSession(t, config.DefaultTuning(), pigLevel())
	doc := s.Document(levels.DialectEditor)
	lvl, err := levels.DecodeStrict(doc)
	if err != nil {
		t.Fatalf("DecodeStrict: %v", err)
	}
	if lvl.Count(levels.KindBox) != 1 || lvl.Count(levels.KindPig) != 1 {
		t.Fatalf("unexpected entities %+v", lvl.Entities)
	}
	if lvl.Bird != (levels.Point{X: 5, Y: 1}) {
		t.Fatalf("bird at %+v", lvl.Bird)
	}
}

func TestRoundEvents(t *testing.T) {
	s, w := newSession(t, config.DefaultTuning(), pigLevel())
	pig := s.Registry().Pigs()[0]
	bird, _ := s.Registry().Bird()

	w.QueueContact(bird.Body, pig.Body, 4)
	if err := s.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	events := s.Events()
	if len(events) != 1 || events[0].Kind != EventPigDestroyed || events[0].ID != "pig" || events[0].Score != 100 {
		t.Fatalf("events = %+v", events)
	}
	if again := s.Events(); len(again) != 0 {
		t.Fatalf("events not drained: %+v", again)
	}

	launch(t, s, 20, 0)
	var resolved bool
	for i := 0; i < 120 && !resolved; i++ {
		if err := s.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
		for _, e := range s.Events() {
			resolved = resolved || e.Kind == EventBirdResolved
		}
	}
	if !resolved {
		t.Fatal("bird leaving the bounds was never resolved")
	}

	if err := s.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if n := len(s.Events()); n != 0 {
		t.Fatalf("%d events survived a restart", n)
	}
}

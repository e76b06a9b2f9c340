package physics

import (
	"errors"
	"math"
	"testing"
)

func TestChipmunkImpulseChangesVelocity(t *testing.T) {
	w := NewChipmunkWorld(Vec{})
	h := w.CreateDynamicBody(Vec{X: 1, Y: 1})
	if err := w.AttachCircle(h, 0.5, Material{Density: 1}); err != nil {
		t.Fatalf("attach circle: %v", err)
	}

	if err := w.ApplyLinearImpulse(h, Vec{X: 5, Y: 0}, Vec{X: 1, Y: 1}); err != nil {
		t.Fatalf("apply impulse: %v", err)
	}
	v, ok := w.LinearVelocity(h)
	if !ok {
		t.Fatalf("expected velocity for live body")
	}
	mass := math.Pi * 0.25
	if math.Abs(v.X-5/mass) > 1e-6 || math.Abs(v.Y) > 1e-9 {
		t.Fatalf("velocity = %+v, want (%v, 0)", v, 5/mass)
	}
}

func TestChipmunkReportsGroundContact(t *testing.T) {
	w := NewChipmunkWorld(Vec{Y: -10})
	ground := w.CreateStaticBody(Vec{})
	if err := w.AttachEdge(ground, Vec{X: -10}, Vec{X: 10}, Material{Friction: 0.8}); err != nil {
		t.Fatalf("attach edge: %v", err)
	}
	ball := w.CreateDynamicBody(Vec{Y: 1})
	if err := w.AttachCircle(ball, 0.3, Material{Density: 1, Friction: 0.5}); err != nil {
		t.Fatalf("attach circle: %v", err)
	}

	touched := false
	w.OnContact(func(c Contact) {
		if (c.A == ground && c.B == ball) || (c.A == ball && c.B == ground) {
			touched = true
		}
	})
	for i := 0; i < 120 && !touched; i++ {
		w.Step(1.0/60.0, 8, 3)
	}
	if !touched {
		t.Fatalf("expected ball to touch the ground within two seconds")
	}
	pos, _ := w.Position(ball)
	if pos.Y < 0 {
		t.Fatalf("ball fell through the ground: %+v", pos)
	}
}

func TestChipmunkDestroyBody(t *testing.T) {
	w := NewChipmunkWorld(Vec{})
	h := w.CreateDynamicBody(Vec{})
	if err := w.AttachBox(h, 1, 2, Material{Density: 1}); err != nil {
		t.Fatalf("attach box: %v", err)
	}
	if w.BodyCount() != 1 {
		t.Fatalf("expected 1 body, got %d", w.BodyCount())
	}
	if err := w.DestroyBody(h); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if w.BodyCount() != 0 {
		t.Fatalf("expected 0 bodies, got %d", w.BodyCount())
	}
	if _, ok := w.Position(h); ok {
		t.Fatalf("destroyed body must not report a position")
	}
	if err := w.DestroyBody(h); !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("expected ErrUnknownBody, got %v", err)
	}
}

func TestChipmunkSetPosition(t *testing.T) {
	w := NewChipmunkWorld(Vec{Y: -10})
	ball := w.CreateDynamicBody(Vec{X: 1, Y: 1})
	if err := w.AttachCircle(ball, 0.3, Material{Density: 1}); err != nil {
		t.Fatalf("attach circle: %v", err)
	}
	wall := w.CreateStaticBody(Vec{})
	if err := w.AttachBox(wall, 1, 1, Material{Friction: 0.5}); err != nil {
		t.Fatalf("attach box: %v", err)
	}

	cases := []struct {
		name string
		h    Handle
		to   Vec
	}{
		{"dynamic", ball, Vec{X: 4, Y: 3}},
		{"static", wall, Vec{X: -6, Y: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := w.SetPosition(tc.h, tc.to); err != nil {
				t.Fatalf("SetPosition: %v", err)
			}
			pos, ok := w.Position(tc.h)
			if !ok || pos != tc.to {
				t.Fatalf("position = %+v (%v), want %+v", pos, ok, tc.to)
			}
		})
	}

	// the moved bodies must still simulate
	w.Step(1.0/60.0, 8, 3)
	if pos, _ := w.Position(wall); pos != (Vec{X: -6, Y: 2}) {
		t.Fatalf("static body drifted to %+v", pos)
	}
	if pos, _ := w.Position(ball); pos.Y >= 3 {
		t.Fatalf("dynamic body did not fall after teleport: %+v", pos)
	}

	if err := w.SetPosition(Handle(999), Vec{}); !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("SetPosition on unknown body = %v, want ErrUnknownBody", err)
	}
}

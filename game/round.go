package game

import (
	"fmt"

	"github.com/milk9111/slingshot/physics"
)

type Phase int

const (
	PhaseAiming Phase = iota
	PhaseInFlight
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseAiming:
		return "Aiming"
	case PhaseInFlight:
		return "InFlight"
	case PhaseGameOver:
		return "GameOver"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// RoundState is the ammo and score accounting of one round.
type RoundState struct {
	BirdsRemaining int
	BirdLaunched   bool
	Score          int
	Phase          Phase

	// gameOverIn counts down the display delay once the last bird resolved.
	gameOverIn float64
	ending     bool
}

func NewRoundState(birds int) RoundState {
	return RoundState{BirdsRemaining: birds, Phase: PhaseAiming}
}

// Ending reports whether the last bird has resolved and the round is waiting
// out the game-over delay.
func (r RoundState) Ending() bool {
	return r.ending
}

// PhysicsEngineFault reports a body the engine lost. The session recovers
// from it before returning.
type PhysicsEngineFault struct {
	Body   physics.Handle
	Reason string
}

func (e *PhysicsEngineFault) Error() string {
	return fmt.Sprintf("physics engine fault on body %d: %s", e.Body, e.Reason)
}

// EventKind identifies round events reported to the host.
type EventKind string

const (
	EventPigDestroyed EventKind = "pig_destroyed"
	EventBirdResolved EventKind = "bird_resolved"
	EventGameOver     EventKind = "game_over"
)

// Event is emitted by Session.Update. Score is the round score after the event.
type Event struct {
	Kind  EventKind
	ID    string
	Score int
}

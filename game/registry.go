package game

import (
	"fmt"

	"github.com/milk9111/slingshot/config"
	"github.com/milk9111/slingshot/ecs"
	"github.com/milk9111/slingshot/levels"
	"github.com/milk9111/slingshot/physics"
	"go.uber.org/zap"
)

// Entry is the registry's record of one box, pig or bird.
type Entry struct {
	Handle ecs.Entity
	Kind   levels.Kind
	// ID is the level document identity, kept so saves preserve it.
	ID   string
	Body physics.Handle

	// Width and Height are set for boxes, Radius for pigs and the bird.
	Width  float64
	Height float64
	Radius float64

	// Destroyed is set once per pig life and never cleared.
	Destroyed bool
}

// Registry owns the level's entities and keeps each one paired with its
// physics body.
type Registry struct {
	world  physics.World
	tuning config.Tuning
	log    *zap.Logger

	handles ecs.EntityStore
	entries ecs.SparseSet[*Entry]
	byBody  map[physics.Handle]ecs.Entity
	bird    ecs.Entity
}

func NewRegistry(world physics.World, tuning config.Tuning, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		world:  world,
		tuning: tuning,
		log:    log,
		byBody: make(map[physics.Handle]ecs.Entity),
	}
}

// AddBox creates a dynamic box body and its entry. Non-positive sizes fall
// back to the tuning box size.
func (r *Registry) AddBox(id string, pos physics.Vec, width, height float64) (ecs.Entity, error) {
	if width <= 0 {
		width = r.tuning.BoxWidth
	}
	if height <= 0 {
		height = r.tuning.BoxHeight
	}
	body := r.world.CreateDynamicBody(pos)
	if err := r.world.AttachBox(body, width, height, r.tuning.Materials.Box.Material()); err != nil {
		r.discard(body)
		return ecs.Entity{}, fmt.Errorf("game: add box: %w", err)
	}
	return r.track(&Entry{Kind: levels.KindBox, ID: id, Body: body, Width: width, Height: height}), nil
}

func (r *Registry) AddPig(id string, pos physics.Vec) (ecs.Entity, error) {
	body := r.world.CreateDynamicBody(pos)
	if err := r.world.AttachCircle(body, r.tuning.PigRadius, r.tuning.Materials.Pig.Material()); err != nil {
		r.discard(body)
		return ecs.Entity{}, fmt.Errorf("game: add pig: %w", err)
	}
	return r.track(&Entry{Kind: levels.KindPig, ID: id, Body: body, Radius: r.tuning.PigRadius}), nil
}

// SpawnBird creates the bird at pos, removing any previous bird first.
func (r *Registry) SpawnBird(pos physics.Vec) (ecs.Entity, error) {
	if r.handles.IsAlive(r.bird) {
		r.Remove(r.bird)
	}
	body := r.world.CreateDynamicBody(pos)
	if err := r.world.AttachCircle(body, r.tuning.BirdRadius, r.tuning.Materials.Bird.Material()); err != nil {
		r.discard(body)
		return ecs.Entity{}, fmt.Errorf("game: spawn bird: %w", err)
	}
	r.bird = r.track(&Entry{Kind: levels.KindBird, ID: "bird", Body: body, Radius: r.tuning.BirdRadius})
	return r.bird, nil
}

func (r *Registry) track(e *Entry) ecs.Entity {
	e.Handle = r.handles.Create()
	r.entries.Set(e.Handle.ID, e)
	r.byBody[e.Body] = e.Handle
	return e.Handle
}

func (r *Registry) discard(body physics.Handle) {
	if err := r.world.DestroyBody(body); err != nil {
		r.log.Warn("destroy orphaned body", zap.Uint64("body", uint64(body)), zap.Error(err))
	}
}

// Remove deletes the entry and its body. Unknown or stale handles are a
// logged no-op.
func (r *Registry) Remove(h ecs.Entity) bool {
	e, ok := r.Get(h)
	if !ok {
		r.log.Warn("remove of unknown entity", zap.Stringer("entity", h))
		return false
	}
	r.entries.Remove(h.ID)
	r.handles.Destroy(h)
	delete(r.byBody, e.Body)
	if h == r.bird {
		r.bird = ecs.Entity{}
	}
	if err := r.world.DestroyBody(e.Body); err != nil {
		r.log.Warn("body already gone", zap.Stringer("entity", h), zap.Stringer("kind", e.Kind), zap.Error(err))
	}
	return true
}

// Get returns the live entry for h.
func (r *Registry) Get(h ecs.Entity) (*Entry, bool) {
	if !r.handles.IsAlive(h) {
		return nil, false
	}
	return r.entries.Get(h.ID)
}

// Lookup maps a physics body back to its entry.
func (r *Registry) Lookup(body physics.Handle) (*Entry, bool) {
	h, ok := r.byBody[body]
	if !ok {
		return nil, false
	}
	return r.Get(h)
}

// All returns every entry in insertion order. The slice must not be retained
// across mutations.
func (r *Registry) All() []*Entry {
	return r.entries.Values()
}

func (r *Registry) Boxes() []*Entry {
	return r.ofKind(levels.KindBox)
}

func (r *Registry) Pigs() []*Entry {
	return r.ofKind(levels.KindPig)
}

func (r *Registry) ofKind(k levels.Kind) []*Entry {
	var out []*Entry
	for _, e := range r.entries.Values() {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

func (r *Registry) Bird() (*Entry, bool) {
	return r.Get(r.bird)
}

func (r *Registry) Len() int {
	return r.entries.Len()
}

// Clear removes every entry together with its body.
func (r *Registry) Clear() {
	all := append([]*Entry(nil), r.entries.Values()...)
	for _, e := range all {
		r.Remove(e.Handle)
	}
}

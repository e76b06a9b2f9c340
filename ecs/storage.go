package ecs

// EntityStore tracks entity generations and free ids.
type EntityStore struct {
	nextID int
	gen    []int
	free   []int
	alive  int
}

// Create allocates a handle, reusing freed ids under a bumped generation.
func (s *EntityStore) Create() Entity {
	if s == nil {
		return Entity{}
	}
	var id int
	if len(s.free) > 0 {
		id = s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
	} else {
		s.nextID++
		id = s.nextID
		if id > len(s.gen) {
			s.gen = append(s.gen, 0)
		}
	}
	s.alive++
	return Entity{ID: id, Gen: s.gen[id-1]}
}

// Destroy invalidates e. It reports false when e was already dead.
func (s *EntityStore) Destroy(e Entity) bool {
	if !s.IsAlive(e) {
		return false
	}
	s.gen[e.ID-1]++
	s.free = append(s.free, e.ID)
	s.alive--
	return true
}

func (s *EntityStore) IsAlive(e Entity) bool {
	if s == nil || e.ID <= 0 || e.ID > len(s.gen) {
		return false
	}
	return s.gen[e.ID-1] == e.Gen
}

// Len returns the number of live handles.
func (s *EntityStore) Len() int {
	if s == nil {
		return 0
	}
	return s.alive
}

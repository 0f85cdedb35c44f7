package scene

import "sync"

// Scene is the set of objects a viewer renders. Safe for concurrent use;
// the render loop reads while selection and load completion write.
type Scene struct {
	mu      sync.RWMutex
	objects []*Object
}

func New() *Scene {
	return &Scene{}
}

// Add inserts o. Adding the same object twice is a no-op.
func (s *Scene) Add(o *Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.objects {
		if existing == o {
			return
		}
	}
	s.objects = append(s.objects, o)
}

// Remove deletes o and reports whether it was present.
func (s *Scene) Remove(o *Object) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.objects {
		if existing == o {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return true
		}
	}
	return false
}

// Objects returns a snapshot of the current objects.
func (s *Scene) Objects() []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Object, len(s.objects))
	copy(out, s.objects)
	return out
}

func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *Scene) Clear() {
	s.mu.Lock()
	s.objects = nil
	s.mu.Unlock()
}

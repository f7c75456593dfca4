package server

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/region-tools-mcp/internal/object"
)

// ErrUnknownObject is returned for an ID the store does not hold.
var ErrUnknownObject = errors.New("unknown object id")

// ObjectStore holds the objects created by tool calls, keyed by a random
// UUID. The store owns one link to every object it holds.
type ObjectStore struct {
	mu      sync.RWMutex
	objects map[uuid.UUID]*object.Object
}

// NewObjectStore returns an empty store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[uuid.UUID]*object.Object)}
}

// Put adopts the caller's link to obj and returns its new ID.
func (s *ObjectStore) Put(obj *object.Object) string {
	id := uuid.New()
	s.mu.Lock()
	s.objects[id] = obj
	s.mu.Unlock()
	return id.String()
}

// Get returns the object stored under id. The store keeps its link; callers
// that hold the object past the next Delete must Assign their own.
func (s *ObjectStore) Get(id string) (*object.Object, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("object id %q: %w", id, ErrUnknownObject)
	}
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object id %q: %w", id, ErrUnknownObject)
	}
	return obj, nil
}

// GetAll resolves every id, failing on the first unknown one.
func (s *ObjectStore) GetAll(ids []string) ([]*object.Object, error) {
	objs := make([]*object.Object, 0, len(ids))
	for _, id := range ids {
		obj, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// Delete drops the store's link to the object under id.
func (s *ObjectStore) Delete(id string) error {
	key, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("object id %q: %w", id, ErrUnknownObject)
	}
	s.mu.Lock()
	obj, ok := s.objects[key]
	delete(s.objects, key)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("object id %q: %w", id, ErrUnknownObject)
	}
	object.Free(obj)
	return nil
}

// Clear drops every link the store holds.
func (s *ObjectStore) Clear() {
	s.mu.Lock()
	objs := s.objects
	s.objects = make(map[uuid.UUID]*object.Object)
	s.mu.Unlock()
	for _, obj := range objs {
		object.Free(obj)
	}
}

// Len returns the number of stored objects.
func (s *ObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// IDs returns the stored IDs in sorted order.
func (s *ObjectStore) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, id.String())
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

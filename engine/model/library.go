package model

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/rotisserie/eris"
)

// Library maps geometry ids to their source models. It outlives any GPU backend and is what
// a backend swap re-registers from.
type Library struct {
	mu     sync.RWMutex
	models map[common.GeometryID]Model
}

// NewLibrary creates an empty Library.
//
// Returns:
//   - *Library: the library
func NewLibrary() *Library {
	return &Library{models: make(map[common.GeometryID]Model)}
}

// Add validates m and stores it under id, replacing any previous model.
//
// Parameters:
//   - id: the geometry id
//   - m: the source model
//
// Returns:
//   - error: the validation error, if any
func (l *Library) Add(id common.GeometryID, m Model) error {
	if err := m.Validate(); err != nil {
		return eris.Wrapf(err, "model %q (geometry %d)", m.Name(), id)
	}
	l.mu.Lock()
	l.models[id] = m
	l.mu.Unlock()
	return nil
}

// Get returns the model stored under id.
func (l *Library) Get(id common.GeometryID) (Model, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.models[id]
	return m, ok
}

// Remove deletes id from the library and reports whether it was present.
func (l *Library) Remove(id common.GeometryID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.models[id]
	delete(l.models, id)
	return ok
}

// Len returns the number of stored models.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.models)
}

// IDs returns every stored id in ascending order.
func (l *Library) IDs() []common.GeometryID {
	l.mu.RLock()
	ids := make([]common.GeometryID, 0, len(l.models))
	for id := range l.models {
		ids = append(ids, id)
	}
	l.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// EachGeometry calls fn for every stored model in ascending id order, stopping at the first error.
//
// Parameters:
//   - fn: the visitor
//
// Returns:
//   - error: the first error returned by fn
func (l *Library) EachGeometry(fn func(id common.GeometryID, m Model) error) error {
	for _, id := range l.IDs() {
		m, ok := l.Get(id)
		if !ok {
			continue
		}
		if err := fn(id, m); err != nil {
			return err
		}
	}
	return nil
}

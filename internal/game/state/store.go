package state

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown session, entity or component ids.
	ErrNotFound = errors.New("not found")
	// ErrSessionExists is returned when an account already holds an open session.
	ErrSessionExists = errors.New("account already has an open session")
	// ErrRefCorrupted is returned when a component ref names the wrong type.
	ErrRefCorrupted = errors.New("ref is corrupted")
	// ErrMissingComponents is returned when an entity lacks a type its ref requires.
	ErrMissingComponents = errors.New("entity is missing required components")
)

// Component is a read-only view of one stored component.
type Component struct {
	ID       string
	EntityID string
	Data     Data
}

// Ref returns a typed ref to the component.
func (c Component) Ref() ComponentRef {
	return ComponentRef{ID: c.ID, Type: c.Data.Type()}
}

// Entity is a snapshot of an entity and its components at read time.
type Entity struct {
	ID         string
	components map[Type][]Component
}

// Has reports whether the entity carries at least one component of every type.
func (e Entity) Has(types ...Type) bool {
	for _, t := range types {
		if len(e.components[t]) == 0 {
			return false
		}
	}
	return true
}

// Components returns the components of type t in insertion order.
func (e Entity) Components(t Type) []Component {
	return e.components[t]
}

// Component returns the first component of type t.
func (e Entity) Component(t Type) (Component, bool) {
	list := e.components[t]
	if len(list) == 0 {
		return Component{}, false
	}
	return list[0], true
}

// Types returns the component types present, sorted.
func (e Entity) Types() []Type {
	types := make([]Type, 0, len(e.components))
	for t, list := range e.components {
		if len(list) > 0 {
			types = append(types, t)
		}
	}
	slices.Sort(types)
	return types
}

// Ref returns an entity ref requiring the given types.
func (e Entity) Ref(with ...Type) EntityRef {
	return EntityRef{ID: e.ID, With: with}
}

type entityRecord struct {
	id         string
	components map[Type][]string
}

type componentRecord struct {
	entityID string
	data     Data
}

type session struct {
	id         string
	accountID  string
	order      []string
	entities   map[string]*entityRecord
	components map[string]*componentRecord
	typeIndex  map[Type]map[string]int
}

// Store keeps every session's entities and components in memory.
// The session index is guarded; state inside one session is not, so calls
// against the same session must be serialized by the caller.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*session
	byAccount map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions:  make(map[string]*session),
		byAccount: make(map[string]string),
	}
}

// CreateSession opens a session for accountID.
func (s *Store) CreateSession(accountID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byAccount[accountID]; ok {
		return "", fmt.Errorf("%w: account %s holds session %s", ErrSessionExists, accountID, existing)
	}

	id := uuid.NewString()
	s.sessions[id] = &session{
		id:         id,
		accountID:  accountID,
		entities:   make(map[string]*entityRecord),
		components: make(map[string]*componentRecord),
		typeIndex:  make(map[Type]map[string]int),
	}
	s.byAccount[accountID] = id
	return id, nil
}

// SessionFor returns the open session of an account.
func (s *Store) SessionFor(accountID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byAccount[accountID]
	return id, ok
}

// AccountFor returns the account that owns a session.
func (s *Store) AccountFor(sessionID string) (string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return "", err
	}
	return sess.accountID, nil
}

func (s *Store) session(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return sess, nil
}

// CreateEntity adds an empty entity to the session.
func (s *Store) CreateEntity(sessionID string) (string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	sess.entities[id] = &entityRecord{id: id, components: make(map[Type][]string)}
	sess.order = append(sess.order, id)
	return id, nil
}

// AddComponent attaches data to an entity.
func (s *Store) AddComponent(sessionID, entityID string, data Data) (Component, error) {
	if data == nil {
		return Component{}, errors.New("component data is nil")
	}
	sess, err := s.session(sessionID)
	if err != nil {
		return Component{}, err
	}
	ent, ok := sess.entities[entityID]
	if !ok {
		return Component{}, fmt.Errorf("entity %s: %w", entityID, ErrNotFound)
	}
	stored, err := cloneData(data)
	if err != nil {
		return Component{}, err
	}

	id := uuid.NewString()
	t := data.Type()
	sess.components[id] = &componentRecord{entityID: entityID, data: stored}
	ent.components[t] = append(ent.components[t], id)

	if sess.typeIndex[t] == nil {
		sess.typeIndex[t] = make(map[string]int)
	}
	sess.typeIndex[t][entityID]++

	return sess.component(id)
}

// RemoveComponent detaches a component from its entity.
func (s *Store) RemoveComponent(sessionID, componentID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	rec, ok := sess.components[componentID]
	if !ok {
		return fmt.Errorf("component %s: %w", componentID, ErrNotFound)
	}
	t := rec.data.Type()
	ent := sess.entities[rec.entityID]
	ent.components[t] = slices.DeleteFunc(ent.components[t], func(id string) bool { return id == componentID })
	if len(ent.components[t]) == 0 {
		delete(ent.components, t)
	}
	delete(sess.components, componentID)

	if counts := sess.typeIndex[t]; counts != nil {
		counts[rec.entityID]--
		if counts[rec.entityID] <= 0 {
			delete(counts, rec.entityID)
		}
	}
	return nil
}

// Entity returns a fresh snapshot of an entity.
func (s *Store) Entity(sessionID, entityID string) (Entity, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return Entity{}, err
	}
	return sess.snapshot(entityID)
}

// EntityByRef resolves ref and verifies its required component types.
func (s *Store) EntityByRef(sessionID string, ref EntityRef) (Entity, error) {
	ent, err := s.Entity(sessionID, ref.ID)
	if err != nil {
		return Entity{}, err
	}
	for _, t := range ref.With {
		if !ent.Has(t) {
			return Entity{}, fmt.Errorf("%w: entity %s has no %q", ErrMissingComponents, ref.ID, t)
		}
	}
	return ent, nil
}

// Component returns one component by id.
func (s *Store) Component(sessionID, componentID string) (Component, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return Component{}, err
	}
	return sess.component(componentID)
}

// ComponentByRef resolves ref and verifies the stored type.
func (s *Store) ComponentByRef(sessionID string, ref ComponentRef) (Component, error) {
	c, err := s.Component(sessionID, ref.ID)
	if err != nil {
		return Component{}, err
	}
	if c.Data.Type() != ref.Type {
		return Component{}, fmt.Errorf("%w: %s is %q", ErrRefCorrupted, ref, c.Data.Type())
	}
	return c, nil
}

// UpdateComponent replaces the component's data, keeping its id.
// The new data must have the same type.
func (s *Store) UpdateComponent(sessionID string, c Component, data Data) (Component, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return Component{}, err
	}
	rec, ok := sess.components[c.ID]
	if !ok {
		return Component{}, fmt.Errorf("component %s: %w", c.ID, ErrNotFound)
	}
	if rec.data.Type() != data.Type() {
		return Component{}, fmt.Errorf("%w: cannot update %q with %q", ErrRefCorrupted, rec.data.Type(), data.Type())
	}
	stored, err := cloneData(data)
	if err != nil {
		return Component{}, err
	}
	rec.data = stored
	return sess.component(c.ID)
}

// HasComponentOfType reports whether any entity in the session carries t.
func (s *Store) HasComponentOfType(sessionID string, t Type) bool {
	sess, err := s.session(sessionID)
	if err != nil {
		return false
	}
	return len(sess.typeIndex[t]) > 0
}

// EntitiesWith scans the session in creation order for entities carrying every type.
func (s *Store) EntitiesWith(sessionID string, types ...Type) ([]Entity, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	var out []Entity
	for _, id := range sess.order {
		rec := sess.entities[id]
		matched := true
		for _, t := range types {
			if len(rec.components[t]) == 0 {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		ent, err := sess.snapshot(id)
		if err != nil {
			return nil, err
		}
		out = append(out, ent)
	}
	return out, nil
}

// FirstWith returns the first entity carrying every type.
func (s *Store) FirstWith(sessionID string, types ...Type) (Entity, error) {
	list, err := s.EntitiesWith(sessionID, types...)
	if err != nil {
		return Entity{}, err
	}
	if len(list) == 0 {
		return Entity{}, fmt.Errorf("entity with %v: %w", types, ErrNotFound)
	}
	return list[0], nil
}

func (sess *session) snapshot(entityID string) (Entity, error) {
	rec, ok := sess.entities[entityID]
	if !ok {
		return Entity{}, fmt.Errorf("entity %s: %w", entityID, ErrNotFound)
	}
	ent := Entity{ID: entityID, components: make(map[Type][]Component, len(rec.components))}
	for t, ids := range rec.components {
		list := make([]Component, 0, len(ids))
		for _, id := range ids {
			c, err := sess.component(id)
			if err != nil {
				return Entity{}, err
			}
			list = append(list, c)
		}
		ent.components[t] = list
	}
	return ent, nil
}

func (sess *session) component(componentID string) (Component, error) {
	rec, ok := sess.components[componentID]
	if !ok {
		return Component{}, fmt.Errorf("component %s: %w", componentID, ErrNotFound)
	}
	data, err := cloneData(rec.data)
	if err != nil {
		return Component{}, err
	}
	return Component{ID: componentID, EntityID: rec.entityID, Data: data}, nil
}

func cloneData(d Data) (Data, error) {
	return mapRefs(d,
		func(r EntityRef) (EntityRef, error) {
			r.With = slices.Clone(r.With)
			return r, nil
		},
		func(r ComponentRef) (ComponentRef, error) { return r, nil })
}

// Decode returns the data of c as T.
func Decode[T Data](c Component) (T, error) {
	v, ok := c.Data.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: component %s is %q, want %q", ErrRefCorrupted, c.ID, c.Data.Type(), zero.Type())
	}
	return v, nil
}

// First returns the first component of T's type on e.
func First[T Data](e Entity) (T, Component, bool) {
	var zero T
	c, ok := e.Component(zero.Type())
	if !ok {
		return zero, Component{}, false
	}
	v, ok := c.Data.(T)
	return v, c, ok
}

// All returns every component payload of T's type on e, in order.
func All[T Data](e Entity) []T {
	var zero T
	list := e.Components(zero.Type())
	out := make([]T, 0, len(list))
	for _, c := range list {
		if v, ok := c.Data.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// Fetch resolves ref and decodes it as T.
func Fetch[T Data](s *Store, sessionID string, ref ComponentRef) (T, Component, error) {
	var zero T
	c, err := s.ComponentByRef(sessionID, ref)
	if err != nil {
		return zero, Component{}, err
	}
	v, err := Decode[T](c)
	return v, c, err
}

// Update applies fn to a copy of c's data and stores the result.
func Update[T Data](s *Store, sessionID string, c Component, fn func(*T)) (Component, error) {
	current, err := s.Component(sessionID, c.ID)
	if err != nil {
		return Component{}, err
	}
	v, err := Decode[T](current)
	if err != nil {
		return Component{}, err
	}
	fn(&v)
	return s.UpdateComponent(sessionID, current, v)
}

package state

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrIllegalPrefab is returned for prefabs that cannot be instantiated.
var ErrIllegalPrefab = errors.New("illegal refs in prefab")

// RootKey names the template returned by Instantiate.
const RootKey = "root"

// Spec is one component template. ID is local to the prefab and may be
// referenced by component refs elsewhere in the same prefab.
type Spec struct {
	ID   string
	Data Data
}

// Template lists the components of one entity.
type Template []Spec

// Prefab is a graph of named entity templates. Refs whose id names a
// template key or a spec id are placeholders resolved on instantiation.
type Prefab map[string]Template

// Keys returns template keys with the root first and the rest sorted.
func (p Prefab) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		if key != RootKey {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	if _, ok := p[RootKey]; ok {
		keys = append([]string{RootKey}, keys...)
	}
	return keys
}

type pendingSpec struct {
	key  string
	spec Spec
}

// Instantiate creates one entity per template and materializes components
// in ref-dependency order. It returns the root entity.
func (s *Store) Instantiate(sessionID string, p Prefab) (Entity, error) {
	if _, ok := p[RootKey]; !ok {
		return Entity{}, fmt.Errorf("%w: no %q template", ErrIllegalPrefab, RootKey)
	}

	keys := p.Keys()
	specTypes := make(map[string]Type)
	var pending []pendingSpec
	for _, key := range keys {
		for _, spec := range p[key] {
			if spec.ID == "" {
				return Entity{}, fmt.Errorf("%w: component without id in %q", ErrIllegalPrefab, key)
			}
			if _, dup := specTypes[spec.ID]; dup {
				return Entity{}, fmt.Errorf("%w: duplicate id %q", ErrIllegalPrefab, spec.ID)
			}
			specTypes[spec.ID] = spec.Data.Type()
			pending = append(pending, pendingSpec{key: key, spec: spec})
		}
	}

	entityIDs := make(map[string]string, len(keys))
	for _, key := range keys {
		id, err := s.CreateEntity(sessionID)
		if err != nil {
			return Entity{}, err
		}
		entityIDs[key] = id
	}

	materialized := make(map[string]ComponentRef, len(specTypes))

	ready := func(d Data) (bool, error) {
		entityRefs, componentRefs := outgoingRefs(d)
		for _, ref := range componentRefs {
			wantType, local := specTypes[ref.ID]
			if !local {
				continue
			}
			if wantType != ref.Type {
				return false, fmt.Errorf("%w: %s points at %q", ErrRefCorrupted, ref, wantType)
			}
			if _, done := materialized[ref.ID]; !done {
				return false, nil
			}
		}
		for _, ref := range entityRefs {
			realID, local := entityIDs[ref.ID]
			if !local {
				continue
			}
			ent, err := s.Entity(sessionID, realID)
			if err != nil {
				return false, err
			}
			if !ent.Has(ref.With...) {
				return false, nil
			}
		}
		return true, nil
	}

	resolveEntity := func(ref EntityRef) (EntityRef, error) {
		if realID, ok := entityIDs[ref.ID]; ok {
			return EntityRef{ID: realID, With: slices.Clone(ref.With)}, nil
		}
		return ref, nil
	}
	resolveComponent := func(ref ComponentRef) (ComponentRef, error) {
		if _, local := specTypes[ref.ID]; !local {
			return ref, nil
		}
		real, ok := materialized[ref.ID]
		if !ok {
			return ComponentRef{}, fmt.Errorf("%w: %s is not materialized", ErrIllegalPrefab, ref)
		}
		return real, nil
	}

	for len(pending) > 0 {
		var stuck []pendingSpec
		for _, item := range pending {
			ok, err := ready(item.spec.Data)
			if err != nil {
				return Entity{}, err
			}
			if !ok {
				stuck = append(stuck, item)
				continue
			}
			data, err := mapRefs(item.spec.Data, resolveEntity, resolveComponent)
			if err != nil {
				return Entity{}, err
			}
			c, err := s.AddComponent(sessionID, entityIDs[item.key], data)
			if err != nil {
				return Entity{}, err
			}
			materialized[item.spec.ID] = c.Ref()
		}
		if len(stuck) == len(pending) {
			ids := make([]string, len(stuck))
			for i, item := range stuck {
				ids[i] = item.key + "/" + item.spec.ID
			}
			return Entity{}, fmt.Errorf("%w: unresolved %s", ErrIllegalPrefab, strings.Join(ids, ", "))
		}
		pending = stuck
	}

	return s.Entity(sessionID, entityIDs[RootKey])
}

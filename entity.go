package pageplan

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const (
	_unloadedReference  = "@UnloadedReference"
	_unloadedCollection = "@UnloadedCollection"
)

// Entity is a decoded record of one EntityType. Associations that were not
// fetched stay unloaded: IsLoaded reports false and String renders them as
// @UnloadedReference or @UnloadedCollection. Loading them is left to the
// caller.
type Entity struct {
	Type *EntityType

	values      map[string]any
	references  map[string]*Entity
	collections map[string][]*Entity
	loaded      map[string]bool
}

func newEntity(t *EntityType) *Entity {
	return &Entity{
		Type:        t,
		values:      make(map[string]any, len(t.attributes)+1),
		references:  make(map[string]*Entity),
		collections: make(map[string][]*Entity),
		loaded:      make(map[string]bool),
	}
}

// ID returns the identifier value.
func (e *Entity) ID() any {
	return e.values[e.Type.ID.Name]
}

// Get returns the value of a scalar attribute.
func (e *Entity) Get(name string) (any, bool) {
	v, ok := e.values[name]

	return v, ok
}

// IsLoaded reports whether association name was fetched with the entity.
func (e *Entity) IsLoaded(name string) bool {
	return e.loaded[name]
}

// Reference returns a fetched to-one association; the result is nil when the
// association is loaded but empty. ok is false when it is not loaded.
func (e *Entity) Reference(name string) (ref *Entity, ok bool) {
	if !e.loaded[name] {
		return nil, false
	}

	return e.references[name], true
}

// Collection returns a fetched to-many association in row arrival order. ok
// is false when it is not loaded.
func (e *Entity) Collection(name string) (items []*Entity, ok bool) {
	if !e.loaded[name] {
		return nil, false
	}

	return e.collections[name], true
}

// String - implements fmt.Stringer.
//
//	{ id: 1, firstName: Matt, department: @UnloadedReference, annualLeaves: [ { id: 3, ... } ] }
func (e *Entity) String() string {
	var sb strings.Builder
	e.format(&sb, make(map[*Entity]bool))

	return sb.String()
}

func (e *Entity) format(sb *strings.Builder, visiting map[*Entity]bool) {
	if e == nil {
		sb.WriteString("null")
		return
	}
	if visiting[e] {
		sb.WriteString(fmt.Sprintf("@%s#%v", e.Type.Name, e.ID()))
		return
	}
	visiting[e] = true
	defer delete(visiting, e)

	parts := lo.Map(e.Type.Attributes(), func(a Attribute, _ int) string {
		v := e.values[a.Name]
		if v == nil {
			return a.Name + ": null"
		}

		return fmt.Sprintf("%s: %v", a.Name, v)
	})

	for _, association := range e.Type.associations {
		var part strings.Builder
		part.WriteString(association.Name + ": ")

		switch {
		case !e.loaded[association.Name]:
			part.WriteString(lo.Ternary(association.ToMany, _unloadedCollection, _unloadedReference))
		case association.ToMany:
			formatEntities(&part, e.collections[association.Name], visiting)
		default:
			e.references[association.Name].format(&part, visiting)
		}

		parts = append(parts, part.String())
	}

	sb.WriteString("{ ")
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString(" }")
}

// FormatEntities renders entities as "[ {...}, {...} ]".
func FormatEntities(entities []*Entity) string {
	var sb strings.Builder
	formatEntities(&sb, entities, make(map[*Entity]bool))

	return sb.String()
}

func formatEntities(sb *strings.Builder, entities []*Entity, visiting map[*Entity]bool) {
	if len(entities) == 0 {
		sb.WriteString("[]")
		return
	}

	sb.WriteString("[ ")
	for i, entity := range entities {
		if i > 0 {
			sb.WriteString(", ")
		}
		entity.format(sb, visiting)
	}
	sb.WriteString(" ]")
}

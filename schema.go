package pageplan

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Attribute maps an entity attribute to its column.
type Attribute struct {
	Name   string
	Column string
}

// Association describes a navigable relation between two entity types.
//
// For a reference (to-one) the foreign key lives on the owner:
//
//	owner.<Column> = target.<target id column>
//
// For a collection (to-many) the foreign key lives on the target:
//
//	owner.<owner id column> = target.<Column>
type Association struct {
	Name   string
	Owner  *EntityType
	Target *EntityType
	ToMany bool
	Column string
}

// joinCondition renders the ON condition between the owner and target aliases.
func (a *Association) joinCondition(ownerAlias, targetAlias string) string {
	if a.ToMany {
		return fmt.Sprintf("%s.%s=%s.%s", ownerAlias, a.Owner.ID.Column, targetAlias, a.Column)
	}

	return fmt.Sprintf("%s.%s=%s.%s", ownerAlias, a.Column, targetAlias, a.Target.ID.Column)
}

// EntityType is the schema descriptor of one mapped entity: its table, its
// identifier, its scalar attributes and its associations. It is assembled
// once at start-up and treated as read-only afterwards.
type EntityType struct {
	Name  string
	Table string
	ID    Attribute

	attributes   []Attribute
	associations []*Association
}

func NewEntityType(name, table string) *EntityType {
	return &EntityType{
		Name:  name,
		Table: table,
	}
}

// WithID sets the identifier attribute.
func (e *EntityType) WithID(name, column string) *EntityType {
	if e == nil {
		e = new(EntityType)
	}

	e.ID = Attribute{Name: name, Column: column}

	return e
}

// WithAttribute appends a scalar attribute.
func (e *EntityType) WithAttribute(name, column string) *EntityType {
	if e == nil {
		e = new(EntityType)
	}

	e.attributes = append(e.attributes, Attribute{Name: name, Column: column})

	return e
}

// WithReference declares a to-one association whose foreign key column
// fkColumn is stored in this entity's table.
func (e *EntityType) WithReference(name string, target *EntityType, fkColumn string) *EntityType {
	if e == nil {
		e = new(EntityType)
	}

	e.associations = append(e.associations, &Association{
		Name:   name,
		Owner:  e,
		Target: target,
		ToMany: false,
		Column: fkColumn,
	})

	return e
}

// WithCollection declares a to-many association whose foreign key column
// fkColumn is stored in the target's table.
func (e *EntityType) WithCollection(name string, target *EntityType, fkColumn string) *EntityType {
	if e == nil {
		e = new(EntityType)
	}

	e.associations = append(e.associations, &Association{
		Name:   name,
		Owner:  e,
		Target: target,
		ToMany: true,
		Column: fkColumn,
	})

	return e
}

// Attributes returns all scalar attributes, the identifier first.
func (e *EntityType) Attributes() []Attribute {
	ret := make([]Attribute, 0, len(e.attributes)+1)
	ret = append(ret, e.ID)

	return append(ret, e.attributes...)
}

// Attribute looks up a scalar attribute (the identifier included) by name.
func (e *EntityType) Attribute(name string) (Attribute, bool) {
	return lo.Find(e.Attributes(), func(a Attribute) bool {
		return a.Name == name
	})
}

// Associations returns associations in declaration order.
func (e *EntityType) Associations() []*Association {
	return slices.Clone(e.associations)
}

// Association looks up an association by name.
func (e *EntityType) Association(name string) (*Association, bool) {
	return lo.Find(e.associations, func(a *Association) bool {
		return a.Name == name
	})
}

func (e *EntityType) memberNames() []string {
	names := lo.Map(e.Attributes(), func(a Attribute, _ int) string { return a.Name })

	return append(names, lo.Map(e.associations, func(a *Association, _ int) string { return a.Name })...)
}

func (e *EntityType) validate() error {
	if e == nil {
		return fmt.Errorf("entity type is nil")
	}

	if !validIdentifier(e.Table) {
		return fmt.Errorf("entity type '%s': table name contains forbidden symbols '%s'", e.Name, e.Table)
	}

	if e.ID.Name == "" || !validIdentifier(e.ID.Column) {
		return fmt.Errorf("entity type '%s': missing or invalid identifier", e.Name)
	}

	for _, attribute := range e.attributes {
		if !validIdentifier(attribute.Column) {
			return fmt.Errorf("entity type '%s': column name contains forbidden symbols '%s'", e.Name, attribute.Column)
		}
	}

	for _, association := range e.associations {
		if association.Target == nil {
			return fmt.Errorf("entity type '%s': association '%s' has no target", e.Name, association.Name)
		}
		if !validIdentifier(association.Column) {
			return fmt.Errorf("entity type '%s': column name contains forbidden symbols '%s'", e.Name, association.Column)
		}
	}

	return nil
}

// resolveAssociationPath walks path where every segment must be an association.
func (e *EntityType) resolveAssociationPath(path []string) ([]*Association, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty association path", ErrMalformedPathSpec)
	}

	ret := make([]*Association, 0, len(path))
	current := e
	for _, segment := range path {
		association, ok := current.Association(segment)
		if !ok {
			return nil, current.unknownMember(segment, "association")
		}

		ret = append(ret, association)
		current = association.Target
	}

	return ret, nil
}

// resolveAttributePath walks path where every segment but the last must be an
// association and the last one must be a scalar attribute of the reached type.
func (e *EntityType) resolveAttributePath(path []string) ([]*Association, Attribute, error) {
	if len(path) == 0 {
		return nil, Attribute{}, fmt.Errorf("%w: empty attribute path", ErrMalformedPathSpec)
	}

	associations := make([]*Association, 0, len(path)-1)
	current := e
	for _, segment := range path[:len(path)-1] {
		association, ok := current.Association(segment)
		if !ok {
			return nil, Attribute{}, current.unknownMember(segment, "association")
		}

		associations = append(associations, association)
		current = association.Target
	}

	last := path[len(path)-1]
	attribute, ok := current.Attribute(last)
	if !ok {
		return nil, Attribute{}, current.unknownMember(last, "attribute")
	}

	return associations, attribute, nil
}

func (e *EntityType) unknownMember(name, kind string) error {
	if _, ok := e.Association(name); ok {
		return fmt.Errorf("%w: '%s' of '%s' is an association, %s expected", ErrMalformedPathSpec, name, e.Name, kind)
	}
	if _, ok := e.Attribute(name); ok {
		return fmt.Errorf("%w: '%s' of '%s' is an attribute, %s expected", ErrMalformedPathSpec, name, e.Name, kind)
	}

	return fmt.Errorf("%w: unknown %s '%s' of '%s'. closest: '%s'",
		ErrMalformedPathSpec, kind, name, e.Name, closestName(name, e.memberNames()))
}

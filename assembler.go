package pageplan

import (
	"fmt"
)

// assembler merges raw rows into entities. Within one assembly every
// (type, identifier) pair resolves to a single instance.
type assembler struct {
	shape    *QueryShape
	roots    []*Entity
	rootSeen map[*Entity]bool
	identity map[string]*Entity
	members  map[string]struct{}
}

// Assemble merges rows sharing a root identity into one root entity, in order
// of first appearance. Collection rows are appended in arrival order, each
// child once; references are set once. Fetched associations are marked
// loaded even when no row carries a child.
func Assemble(rows []Row, shape *QueryShape) ([]*Entity, error) {
	a := &assembler{
		shape:    shape,
		rootSeen: make(map[*Entity]bool),
		identity: make(map[string]*Entity),
		members:  make(map[string]struct{}),
	}

	for i, row := range rows {
		if err := a.add(row); err != nil {
			return nil, fmt.Errorf("cannot assemble row %d: %w", i, err)
		}
	}

	return a.roots, nil
}

func (a *assembler) add(row Row) error {
	root, err := a.decode(_rootAlias, a.shape.root, row)
	if err != nil {
		return err
	}
	if root == nil {
		return fmt.Errorf("root identifier '%s' is null", a.shape.idKey())
	}

	// A root may have been decoded earlier as an associated entity.
	if !a.rootSeen[root] {
		a.rootSeen[root] = true
		a.roots = append(a.roots, root)
	}

	byAlias := map[string]*Entity{_rootAlias: root}
	for _, j := range a.shape.joins {
		if !j.fetch {
			continue
		}

		parent := byAlias[j.parentAlias()]
		if parent == nil {
			continue
		}

		child, err := a.decode(j.alias, j.association.Target, row)
		if err != nil {
			return err
		}
		byAlias[j.alias] = child

		a.link(parent, j.association, child)
	}

	return nil
}

// link attaches child to association of parent and marks it loaded.
func (a *assembler) link(parent *Entity, association *Association, child *Entity) {
	name := association.Name
	parent.loaded[name] = true

	if !association.ToMany {
		if parent.references[name] == nil {
			parent.references[name] = child
		}
		return
	}

	if _, ok := parent.collections[name]; !ok {
		parent.collections[name] = []*Entity{}
	}
	if child == nil {
		return
	}

	member := entityKey(parent.Type, parent.ID()) + "." + name + "->" + entityKey(child.Type, child.ID())
	if _, ok := a.members[member]; ok {
		return
	}
	a.members[member] = struct{}{}
	parent.collections[name] = append(parent.collections[name], child)
}

// decode returns the entity of type t stored under alias in row, or nil when
// its identifier is null (an optional join without a match).
func (a *assembler) decode(alias string, t *EntityType, row Row) (*Entity, error) {
	id := row[rowKey(alias, t.ID.Column)]
	if id == nil {
		return nil, nil
	}

	key := entityKey(t, id)
	if existing, ok := a.identity[key]; ok {
		return existing, nil
	}

	e := newEntity(t)
	for _, attribute := range t.Attributes() {
		column := rowKey(alias, attribute.Column)
		value, ok := row[column]
		if !ok {
			return nil, fmt.Errorf("column '%s' is missing", column)
		}
		e.values[attribute.Name] = value
	}
	a.identity[key] = e

	return e, nil
}

func entityKey(t *EntityType, id any) string {
	key, err := identity(id)
	if err != nil {
		key = fmt.Sprint(id)
	}

	return t.Name + "#" + key
}

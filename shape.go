package pageplan

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

const _rootAlias = "t0"

// join is one planned association join. Joins are kept in creation order so
// that a parent always precedes its children.
type join struct {
	alias       string
	pathKey     string
	parent      *join
	association *Association
	kind        JoinKind

	fetch  bool
	filter bool
	order  bool
}

func (j *join) parentAlias() string {
	if j.parent == nil {
		return _rootAlias
	}

	return j.parent.alias
}

// orderKey is an order path resolved against the join set.
type orderKey struct {
	spec      PathSpec
	join      *join
	attribute Attribute
	// throughToMany is set when the ordered attribute is reached through a
	// collection, i.e. its value may differ between rows of one root.
	throughToMany bool
}

func (k orderKey) alias() string {
	if k.join == nil {
		return _rootAlias
	}

	return k.join.alias
}

// QueryShape aggregates everything a paging query is planned from. It is
// immutable once built; planning never modifies it.
type QueryShape struct {
	root        *EntityType
	filters     []Predicate
	fetchPaths  []PathSpec
	filterPaths []PathSpec
	orderPaths  []PathSpec
	distinct    bool

	joins     []*join
	joinIndex map[string]*join
	orderKeys []orderKey
}

func (s *QueryShape) Root() *EntityType {
	return s.root
}

// Distinct reports whether root entities are deduplicated (the default).
func (s *QueryShape) Distinct() bool {
	return s.distinct
}

func (s *QueryShape) FetchPaths() []PathSpec {
	return slices.Clone(s.fetchPaths)
}

func (s *QueryShape) FilterPaths() []PathSpec {
	return slices.Clone(s.filterPaths)
}

func (s *QueryShape) OrderPaths() []PathSpec {
	return slices.Clone(s.orderPaths)
}

// hasDuplicatingJoin reports whether some join may produce several rows per
// root entity.
func (s *QueryShape) hasDuplicatingJoin() bool {
	return lo.SomeBy(s.joins, func(j *join) bool {
		return j.association.ToMany
	})
}

// orderedThroughToMany reports whether some order key is reached through a
// collection association.
func (s *QueryShape) orderedThroughToMany() bool {
	return lo.SomeBy(s.orderKeys, func(k orderKey) bool {
		return k.throughToMany
	})
}

// idKey is the row key carrying the root identity.
func (s *QueryShape) idKey() string {
	return rowKey(_rootAlias, s.root.ID.Column)
}

func (s *QueryShape) aliasOf(pathKey string) string {
	if pathKey == "" {
		return _rootAlias
	}

	return s.joinIndex[pathKey].alias
}

func rowKey(alias, column string) string {
	return strings.ToLower(alias + "_" + column)
}

// QueryBuilder collects the parts of a QueryShape. Build validates every path
// eagerly against the schema.
//
//	shape, err := NewQuery(employee).
//		Where("{}.GENDER = ?", "FEMALE").
//		With(Fetch("annualLeaves"), Order("firstName").Asc()).
//		Build()
type QueryBuilder struct {
	root     *EntityType
	filters  []Predicate
	specs    []PathSpec
	distinct bool
}

// NewQuery starts a distinct-mode query over root.
func NewQuery(root *EntityType) *QueryBuilder {
	return &QueryBuilder{
		root:     root,
		distinct: true,
	}
}

// Where appends a filter predicate; several predicates are AND-ed.
func (b *QueryBuilder) Where(sql string, vars ...any) *QueryBuilder {
	if b == nil {
		b = new(QueryBuilder)
	}

	b.filters = append(b.filters, Where(sql, vars...))

	return b
}

// With appends fetch, order and filter-join path specs. Relative order
// within each role is preserved.
func (b *QueryBuilder) With(specs ...PathSpec) *QueryBuilder {
	if b == nil {
		b = new(QueryBuilder)
	}

	b.specs = append(b.specs, specs...)

	return b
}

// Distinct switches between distinct mode (root entities deduplicated) and
// plain mode.
func (b *QueryBuilder) Distinct(distinct bool) *QueryBuilder {
	if b == nil {
		b = new(QueryBuilder)
	}

	b.distinct = distinct

	return b
}

// Build validates the collected paths and plans the join set.
func (b *QueryBuilder) Build() (*QueryShape, error) {
	if b == nil || b.root == nil {
		return nil, fmt.Errorf("cannot build query shape: root entity type is not set")
	}

	err := b.root.validate()
	if err != nil {
		return nil, fmt.Errorf("cannot build query shape: %w", err)
	}

	s := &QueryShape{
		root:      b.root,
		filters:   lo.Filter(b.filters, func(p Predicate, _ int) bool { return !p.IsEmpty() }),
		distinct:  b.distinct,
		joinIndex: make(map[string]*join),
	}

	for _, spec := range b.specs {
		switch spec.role {
		case RoleFetch:
			s.fetchPaths = append(s.fetchPaths, spec)
		case RoleFilter:
			s.filterPaths = append(s.filterPaths, spec)
		case RoleOrder:
			s.orderPaths = append(s.orderPaths, spec)
		default:
			return nil, fmt.Errorf("%w: path '%s' has no role", ErrMalformedPathSpec, spec.key())
		}
	}

	steps := []func() error{
		s.planFetchJoins,
		s.planFilterJoins,
		s.planOrderKeys,
	}
	for _, step := range steps {
		if err = step(); err != nil {
			return nil, fmt.Errorf("cannot build query shape: %w", err)
		}
	}

	return s, nil
}

func (s *QueryShape) planFetchJoins() error {
	for _, spec := range s.fetchPaths {
		if !spec.joinKind.Valid() {
			return fmt.Errorf("%w: invalid join kind '%s'", ErrMalformedPathSpec, spec.joinKind)
		}

		joins, err := s.ensureJoins(spec.path, spec.joinKind, false)
		if err != nil {
			return err
		}

		for _, j := range joins {
			j.fetch = true
		}
	}

	return nil
}

func (s *QueryShape) planFilterJoins() error {
	for _, spec := range s.filterPaths {
		if !spec.joinKind.Valid() {
			return fmt.Errorf("%w: invalid join kind '%s'", ErrMalformedPathSpec, spec.joinKind)
		}

		joins, err := s.ensureJoins(spec.path, spec.joinKind, false)
		if err != nil {
			return err
		}

		for _, j := range joins {
			j.filter = true
		}
	}

	for _, predicate := range s.filters {
		for _, path := range predicate.paths() {
			joins, err := s.ensureJoins(path, JoinRequired, true)
			if err != nil {
				return err
			}

			for _, j := range joins {
				j.filter = true
			}
		}
	}

	return nil
}

func (s *QueryShape) planOrderKeys() error {
	directions := make(map[string]Direction, len(s.orderPaths))

	for _, spec := range s.orderPaths {
		if !spec.direction.Valid() {
			return fmt.Errorf("%w: invalid ordering direction '%s'", ErrMalformedPathSpec, spec.direction)
		}

		associations, attribute, err := s.root.resolveAttributePath(spec.path)
		if err != nil {
			return err
		}

		key := spec.key()
		if previous, ok := directions[key]; ok {
			if previous != spec.direction {
				return fmt.Errorf("%w: conflicting directions for '%s'", ErrMalformedPathSpec, key)
			}
			continue
		}
		directions[key] = spec.direction

		var (
			last          *join
			throughToMany bool
		)
		for i, association := range associations {
			prefixKey := strings.Join(spec.path[:i+1], ".")
			existing, ok := s.joinIndex[prefixKey]
			if !ok && association.ToMany {
				return fmt.Errorf("%w: '%s' orders through collection '%s' which is not fetched",
					ErrMalformedPathSpec, key, prefixKey)
			}

			joins, err := s.ensureJoins(spec.path[:i+1], JoinOptional, true)
			if err != nil {
				return err
			}

			last = joins[len(joins)-1]
			if existing == nil {
				last.order = true
			}
			throughToMany = throughToMany || association.ToMany
		}

		s.orderKeys = append(s.orderKeys, orderKey{
			spec:          spec,
			join:          last,
			attribute:     attribute,
			throughToMany: throughToMany,
		})
	}

	return nil
}

// ensureJoins returns the joins of every prefix of path, creating missing
// ones with kind. When keepKind is false, an existing join is upgraded to a
// required one if kind is required.
func (s *QueryShape) ensureJoins(path []string, kind JoinKind, keepKind bool) ([]*join, error) {
	associations, err := s.root.resolveAssociationPath(path)
	if err != nil {
		return nil, err
	}

	ret := make([]*join, 0, len(associations))
	var parent *join
	for i, association := range associations {
		if err = association.Target.validate(); err != nil {
			return nil, err
		}

		key := strings.Join(path[:i+1], ".")
		j, ok := s.joinIndex[key]
		if !ok {
			j = &join{
				alias:       fmt.Sprintf("t%d", len(s.joins)+1),
				pathKey:     key,
				parent:      parent,
				association: association,
				kind:        kind,
			}
			s.joins = append(s.joins, j)
			s.joinIndex[key] = j
		} else if !keepKind && kind == JoinRequired {
			j.kind = JoinRequired
		}

		ret = append(ret, j)
		parent = j
	}

	return ret, nil
}

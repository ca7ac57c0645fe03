package pageplan

import (
	"slices"
	"strings"
)

// JoinKind defines how an association path is joined.
type JoinKind string

const (
	// JoinOptional renders a left outer join.
	JoinOptional JoinKind = "OPTIONAL"
	// JoinRequired renders an inner join.
	JoinRequired JoinKind = "REQUIRED"
)

func (k JoinKind) Valid() bool {
	return k == JoinOptional || k == JoinRequired
}

func (k JoinKind) sql() string {
	if k == JoinRequired {
		return "inner join"
	}

	return "left outer join"
}

// Role tells what a path is used for within a query.
type Role string

const (
	RoleFilter Role = "FILTER"
	RoleFetch  Role = "FETCH"
	RoleOrder  Role = "ORDER"
)

// PathSpec is an immutable description of one join or order request. Every
// modifier returns a copy.
type PathSpec struct {
	path      []string
	joinKind  JoinKind
	role      Role
	direction Direction
}

// Fetch declares an association path to be loaded eagerly together with the
// root entity. The path is joined optionally unless Required is called.
//
//	Fetch("annualLeaves")
//	Fetch("department", "company").Required()
func Fetch(path ...string) PathSpec {
	return PathSpec{
		path:     slices.Clone(path),
		joinKind: JoinOptional,
		role:     RoleFetch,
	}
}

// Order declares an ordering over an attribute reachable from the root, in
// ascending direction unless Desc is called.
//
//	Order("firstName").Asc()
//	Order("annualLeaves", "startTime").Desc()
func Order(path ...string) PathSpec {
	return PathSpec{
		path:      slices.Clone(path),
		joinKind:  JoinOptional,
		role:      RoleOrder,
		direction: DirectionASC,
	}
}

// FilterJoin declares the join kind for an association path referenced by the
// filter predicate. Paths referenced by the predicate without a FilterJoin
// are joined as required.
func FilterJoin(path ...string) PathSpec {
	return PathSpec{
		path:     slices.Clone(path),
		joinKind: JoinRequired,
		role:     RoleFilter,
	}
}

func (p PathSpec) Required() PathSpec {
	p.path = slices.Clone(p.path)
	p.joinKind = JoinRequired

	return p
}

func (p PathSpec) Optional() PathSpec {
	p.path = slices.Clone(p.path)
	p.joinKind = JoinOptional

	return p
}

func (p PathSpec) Asc() PathSpec {
	return p.withDirection(DirectionASC)
}

func (p PathSpec) Desc() PathSpec {
	return p.withDirection(DirectionDESC)
}

func (p PathSpec) withDirection(direction Direction) PathSpec {
	p.path = slices.Clone(p.path)
	if p.role == RoleOrder {
		p.direction = direction
	}

	return p
}

// Path returns a copy of the association path segments.
func (p PathSpec) Path() []string {
	return slices.Clone(p.path)
}

func (p PathSpec) JoinKind() JoinKind {
	return p.joinKind
}

func (p PathSpec) Role() Role {
	return p.role
}

// Direction returns the sort direction, empty for non-order paths.
func (p PathSpec) Direction() Direction {
	return p.direction
}

func (p PathSpec) key() string {
	return strings.Join(p.path, ".")
}

// String - implements fmt.Stringer.
func (p PathSpec) String() string {
	switch p.role {
	case RoleOrder:
		return p.key() + " " + p.direction.sql()
	default:
		return p.key() + " (" + strings.ToLower(string(p.joinKind)) + ")"
	}
}

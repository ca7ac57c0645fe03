package pageplan

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

// BuildCount builds the unlimited count query of shape.
//
// An optional fetch join is dropped from the count only in distinct mode and
// only when the filter does not reference it; order-only joins never change
// the number of roots and are always dropped. Whenever a join survives, the
// root identifier is counted distinctly.
func BuildCount(shape *QueryShape) clause.Expr {
	retained := shape.countJoins()

	var sb strings.Builder
	sb.WriteString("select ")
	sb.WriteString(lo.Ternary(len(retained) > 0, "count(distinct ", "count("))
	sb.WriteString(_rootAlias + "." + shape.root.ID.Column)
	sb.WriteString(") ")
	sb.WriteString(shape.fromClause(retained))

	where, vars := shape.whereClause()
	if where != "" {
		sb.WriteString(" where ")
		sb.WriteString(where)
	}

	return clause.Expr{
		SQL:  sb.String(),
		Vars: vars,
	}
}

// countJoins returns the joins the count query must keep, in plan order.
func (s *QueryShape) countJoins() []*join {
	keep := make(map[*join]bool, len(s.joins))

	for _, j := range s.joins {
		retain := j.filter ||
			(j.fetch && (j.kind == JoinRequired || !s.distinct))
		if !retain {
			continue
		}

		// A kept join needs its whole chain of parents.
		for p := j; p != nil; p = p.parent {
			keep[p] = true
		}
	}

	return lo.Filter(s.joins, func(j *join, _ int) bool {
		return keep[j]
	})
}

// fromClause renders "from <root table> <alias> <joins...>".
func (s *QueryShape) fromClause(joins []*join) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("from %s %s", s.root.Table, _rootAlias))

	for _, j := range joins {
		sb.WriteString(fmt.Sprintf(" %s %s %s on %s",
			j.kind.sql(),
			j.association.Target.Table,
			j.alias,
			j.association.joinCondition(j.parentAlias(), j.alias),
		))
	}

	return sb.String()
}

// whereClause renders all filter predicates AND-ed together.
func (s *QueryShape) whereClause() (string, []any) {
	if len(s.filters) == 0 {
		return "", nil
	}

	var vars []any
	clauses := make([]string, 0, len(s.filters))
	for _, predicate := range s.filters {
		expr := predicate.render(s.aliasOf)
		clauses = append(clauses, expr.SQL)
		vars = append(vars, expr.Vars...)
	}

	if len(clauses) == 1 {
		return clauses[0], vars
	}

	return "(" + strings.Join(clauses, ") and (") + ")", vars
}

package pageplan

import (
	"regexp"
	"strings"

	"gorm.io/gorm/clause"
)

// _pathTokenRegexp matches alias placeholders: "{}" is the root entity,
// "{department.company}" is the join reached through that association path.
var _pathTokenRegexp = regexp.MustCompile(`\{([A-Za-z0-9_.]*)\}`)

// Predicate is a filter condition compiled by the caller. Column references
// are written against alias placeholders instead of concrete aliases, which
// are only known once the join set is planned:
//
//	Where("{}.GENDER = ? and {annualLeaves}.STATE = ?", "FEMALE", "APPROVED")
//
// Every non-root placeholder makes the query join that association path and
// marks the path as referenced by the filter.
type Predicate struct {
	sql  string
	vars []any
}

// Where builds a Predicate using "?" placeholders for vars.
func Where(sql string, vars ...any) Predicate {
	return Predicate{
		sql:  sql,
		vars: vars,
	}
}

func (p Predicate) IsEmpty() bool {
	return strings.TrimSpace(p.sql) == ""
}

// paths returns the association paths referenced by the predicate in order of
// first appearance, the root placeholder excluded.
func (p Predicate) paths() [][]string {
	var (
		ret  [][]string
		seen = make(map[string]struct{})
	)

	for _, match := range _pathTokenRegexp.FindAllStringSubmatch(p.sql, -1) {
		key := match[1]
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		ret = append(ret, strings.Split(key, "."))
	}

	return ret
}

// render substitutes placeholders with aliases produced by aliasOf.
func (p Predicate) render(aliasOf func(pathKey string) string) clause.Expr {
	return clause.Expr{
		SQL: _pathTokenRegexp.ReplaceAllStringFunc(p.sql, func(token string) string {
			return aliasOf(strings.Trim(token, "{}"))
		}),
		Vars: p.vars,
	}
}

package pageplan

import (
	"fmt"
	"strings"
)

type (
	tConjunct struct {
		Column   string
		Value    any
		Operator Operator
	}

	// tConjunction is a list of conjuncts joined by AND.
	tConjunction []tConjunct
)

// toSQLClause converts a conjunct of the form Operator(Column, Value) to
// an SQL condition of the form "Column Operator ?" with a corresponding value.
//
// Example:
//
//	tConjunct = { Column: "dense_rank____", Operator: "<=", Value: 8}
//
// Result:
//
//	("dense_rank____ <= ?", 8)
func (c tConjunct) toSQLClause() (string, any, error) {
	if !c.Operator.Valid() {
		return "", nil, fmt.Errorf("invalid operator '%s' on column '%s'", c.Operator, c.Column)
	}

	return fmt.Sprintf("%s %s ?", c.Column, c.Operator), c.Value, nil
}

// toSQLClause converts a conjunction (K1, K2) into "K1 and K2" with the values
// for its placeholders in order.
func (c tConjunction) toSQLClause() (string, []any, error) {
	clauses := make([]string, 0, len(c))
	values := make([]any, 0, len(c))

	for _, conjunct := range c {
		sqlClause, value, err := conjunct.toSQLClause()
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, sqlClause)
		values = append(values, value)
	}

	return strings.Join(clauses, " and "), values, nil
}

// windowBounds returns the conjunction selecting ranks of one page:
// column <= pageIndex*pageSize and column > (pageIndex-1)*pageSize.
func windowBounds(column string, pageIndex, pageSize int) tConjunction {
	return tConjunction{
		{Column: column, Operator: OperatorLTE, Value: pageIndex * pageSize},
		{Column: column, Operator: OperatorGT, Value: (pageIndex - 1) * pageSize},
	}
}

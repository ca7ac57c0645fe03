package pageplan

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
)

// Direction defines the sort direction of an order path.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

func (o Direction) sql() string {
	return strings.ToLower(string(o))
}

type (
	// Orderings is a rendered ORDER BY list, column references already
	// qualified by their join alias.
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction Direction
	}
)

var _availableIdentifierSymbols = append([]rune("_.$#"), lo.AlphanumericCharset...)

// validIdentifier guards against SQL injection by restricting allowed
// characters in table, column and alias names.
func validIdentifier(s string) bool {
	return s != "" && lo.Every(_availableIdentifierSymbols, []rune(s))
}

// ToSQLSlice converts Orderings to a slice of strings in the form
// "<order_column> <order_direction>".
//
// Example: for Orderings: [{"t0.a", "ASC"}, {"t1.b", "DESC"}] returns ["t0.a asc", "t1.b desc"].
func (o Orderings) ToSQLSlice() []string {
	ret := make([]string, 0, len(o))
	for _, ordering := range o {
		ret = append(ret, fmt.Sprintf("%s %s", ordering.Column, ordering.Direction.sql()))
	}

	return ret
}

// ToSQL converts Orderings to a single string
// "<order_column_1> <order_direction_1>, <order_column_2> <order_direction_2>"
// suitable for embedding into ORDER BY or an analytic OVER clause.
func (o Orderings) ToSQL() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

// ParseOrder builds order path specs from a list of strings in the format
// "path.to.attribute asc|desc". Paths are resolved against root; an unknown
// segment yields ErrMalformedPathSpec with the closest known name as a hint.
func ParseOrder(stringsOrderings []string, root *EntityType) ([]PathSpec, error) {
	ret := make([]PathSpec, 0, len(stringsOrderings))

	for _, stringOrdering := range stringsOrderings {
		cutStringOrdering := strings.Fields(stringOrdering)
		if len(cutStringOrdering) != 2 {
			return nil, fmt.Errorf("%w: invalid ordering string format '%s'", ErrMalformedPathSpec, stringOrdering)
		}

		direction := Direction(strings.ToUpper(cutStringOrdering[1]))
		if !direction.Valid() {
			return nil, fmt.Errorf("%w: invalid ordering direction '%s'", ErrMalformedPathSpec, cutStringOrdering[1])
		}

		path := strings.Split(cutStringOrdering[0], ".")
		if _, _, err := root.resolveAttributePath(path); err != nil {
			return nil, err
		}

		ret = append(ret, Order(path...).withDirection(direction))
	}

	return ret, nil
}

func closestName(input string, dataSet []string) string {
	minDist := math.MaxInt
	closest := ""

	for _, candidate := range dataSet {
		dist := levenshtein([]rune(candidate), []rune(input))
		if dist < minDist {
			minDist = dist
			closest = candidate
		}
	}

	return closest
}

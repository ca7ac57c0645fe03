package pageplan

// Operator defines a comparison operator used in window bound conditions.
type Operator string

func (o Operator) Valid() bool {
	return o == OperatorLTE || o == OperatorGT
}

const (
	OperatorGT  Operator = ">"
	OperatorLTE Operator = "<="
)

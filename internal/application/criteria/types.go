package criteria

import "encoding/json"

// Group and criteria operators.
const (
	OpAnd = "and"
	OpOr  = "or"
)

// Condition operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpGe          = "ge"
	OpLe          = "le"
	OpIsNull      = "is_null"
	OpIsNotNull   = "is_not_null"
	OpIn          = "in"
	OpNotIn       = "not_in"
)

// Criteria is the persisted recipient-selection tree: groups of conditions
// combined with boolean operators.
type Criteria struct {
	GroupOperator string  `json:"group_operator"`
	Groups        []Group `json:"groups"`
}

// Group is one AND/OR block of conditions.
type Group struct {
	LogicalOperator string      `json:"logical_operator"`
	Conditions      []Condition `json:"conditions"`
}

// Condition is one field predicate over a CRM entity.
type Condition struct {
	EntityType string      `json:"entity_type"`
	Field      string      `json:"field"`
	Operator   string      `json:"operator"`
	Value      interface{} `json:"value"`
}

// Parse decodes persisted criteria JSON.
func Parse(raw []byte) (*Criteria, error) {
	var c Criteria
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Serialize encodes criteria for persistence. Parse(Serialize(c)) round-trips.
func Serialize(c *Criteria) ([]byte, error) {
	return json.Marshal(c)
}

package repositories

// Operator is the comparison applied by a Condition
type Operator string

const (
	// OpEquals requires exact equality
	OpEquals Operator = "eq"

	// OpContains requires a case-insensitive substring match
	OpContains Operator = "contains"
)

// Condition constrains a single field
type Condition struct {
	Field string
	Op    Operator
	Value string
}

// Predicate is the store-agnostic filter produced by the search condition builder.
// A record matches when its status equals Status, at least one AnyOf condition holds
// (when AnyOf is non-empty) and every AllOf condition holds.
type Predicate struct {
	Status string
	AnyOf  []Condition
	AllOf  []Condition
}

// SortOrder is the direction of an ordering
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// ListQuery is a bounded read against an entity store
type ListQuery struct {
	Predicate Predicate
	OrderBy   string
	Order     SortOrder
	Limit     int
	Offset    int
}

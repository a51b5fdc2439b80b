package search

import (
	"strings"

	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
)

// Match selects how a Filter compares its field
type Match int

const (
	// MatchExact requires equality
	MatchExact Match = iota

	// MatchContains requires a case-insensitive substring match
	MatchContains
)

// Filter is a single optional constraint taken from query parameters
type Filter struct {
	Field string
	Value string
	Match Match
}

// BuildConditions creates the base predicate for a keyword search. A blank status
// means active; a blank q adds no keyword group.
func BuildConditions(status, q string, textFields []string) repositories.Predicate {
	p := repositories.Predicate{Status: strings.TrimSpace(status)}
	if p.Status == "" {
		p.Status = entities.StatusActive
	}

	q = strings.TrimSpace(q)
	if q == "" {
		return p
	}

	p.AnyOf = make([]repositories.Condition, 0, len(textFields))
	for _, field := range textFields {
		p.AnyOf = append(p.AnyOf, repositories.Condition{
			Field: field,
			Op:    repositories.OpContains,
			Value: q,
		})
	}
	return p
}

// AddFilters returns p with one AND condition per non-blank filter
func AddFilters(p repositories.Predicate, filters ...Filter) repositories.Predicate {
	allOf := make([]repositories.Condition, 0, len(p.AllOf)+len(filters))
	allOf = append(allOf, p.AllOf...)

	for _, f := range filters {
		value := strings.TrimSpace(f.Value)
		if value == "" {
			continue
		}

		op := repositories.OpEquals
		if f.Match == MatchContains {
			op = repositories.OpContains
		}
		allOf = append(allOf, repositories.Condition{Field: f.Field, Op: op, Value: value})
	}

	p.AllOf = allOf
	return p
}

// CatalogFilters picks the known filter fields out of a parameter bag.
// Exact fields come first, both groups keep the declared field order.
func CatalogFilters(values map[string]string, exact, contains []string) []Filter {
	var filters []Filter
	for _, field := range exact {
		if v, ok := values[field]; ok {
			filters = append(filters, Filter{Field: field, Value: v, Match: MatchExact})
		}
	}
	for _, field := range contains {
		if v, ok := values[field]; ok {
			filters = append(filters, Filter{Field: field, Value: v, Match: MatchContains})
		}
	}
	return filters
}

package database

import (
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// columnSet is the allowlist of columns a query may filter or sort on
type columnSet map[string]struct{}

func newColumnSet(columns ...string) columnSet {
	set := make(columnSet, len(columns))
	for _, c := range columns {
		set[c] = struct{}{}
	}
	return set
}

func (s columnSet) has(column string) bool {
	_, ok := s[column]
	return ok
}

// whereClauses translates a predicate into goqu expressions that are ANDed by Where
func whereClauses(p repositories.Predicate, allowed columnSet) ([]exp.Expression, error) {
	clauses := []exp.Expression{goqu.Ex{"status": p.Status}}

	if len(p.AnyOf) > 0 {
		anyOf := make([]exp.Expression, 0, len(p.AnyOf))
		for _, c := range p.AnyOf {
			e, err := conditionExpression(c, allowed)
			if err != nil {
				return nil, err
			}
			anyOf = append(anyOf, e)
		}
		clauses = append(clauses, goqu.Or(anyOf...))
	}

	for _, c := range p.AllOf {
		e, err := conditionExpression(c, allowed)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, e)
	}

	return clauses, nil
}

func conditionExpression(c repositories.Condition, allowed columnSet) (exp.Expression, error) {
	if !allowed.has(c.Field) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown filter field %q", c.Field))
	}

	switch c.Op {
	case repositories.OpEquals:
		return goqu.Ex{c.Field: c.Value}, nil
	case repositories.OpContains:
		return goqu.I(c.Field).ILike("%" + likeEscaper.Replace(c.Value) + "%"), nil
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported operator %q", c.Op))
	}
}

// orderExpression validates the sort column and direction
func orderExpression(column string, order repositories.SortOrder, allowed columnSet) (exp.OrderedExpression, error) {
	if !allowed.has(column) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown sort field %q", column))
	}
	if order == repositories.SortDesc {
		return goqu.I(column).Desc(), nil
	}
	return goqu.I(column).Asc(), nil
}

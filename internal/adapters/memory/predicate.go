package memory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zatekoja/healthatlas/internal/domain/repositories"
)

// row is the JSON view of an entity, keyed by column name
type row map[string]any

func toRow(v any) (row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	r := row{}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return r, nil
}

func (r row) text(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (r row) matches(p repositories.Predicate) bool {
	if r.text("status") != p.Status {
		return false
	}

	if len(p.AnyOf) > 0 {
		matched := false
		for _, c := range p.AnyOf {
			if r.holds(c) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, c := range p.AllOf {
		if !r.holds(c) {
			return false
		}
	}
	return true
}

func (r row) holds(c repositories.Condition) bool {
	value := r.text(c.Field)
	switch c.Op {
	case repositories.OpContains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(c.Value))
	default:
		return value == c.Value
	}
}

// compare orders two rows by field; numbers numerically, everything else as case-folded text
func compare(a, b row, field string) int {
	if x, ok := a[field].(float64); ok {
		if y, ok := b[field].(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(strings.ToLower(a.text(field)), strings.ToLower(b.text(field)))
}

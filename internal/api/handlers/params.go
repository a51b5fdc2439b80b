package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
	"github.com/zatekoja/healthatlas/pkg/geo"
)

// queryParams parses typed values out of a query string, collecting every problem
// so a single 400 can report all of them. Blank values count as absent.
type queryParams struct {
	values url.Values
	errs   []string
}

func newQueryParams(values url.Values) *queryParams {
	return &queryParams{values: values}
}

func (p *queryParams) str(name string) string {
	return strings.TrimSpace(p.values.Get(name))
}

func (p *queryParams) float(name string) *float64 {
	raw := p.str(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s must be a number", name))
		return nil
	}
	return &v
}

// integer parses an integer not lower than minValue
func (p *queryParams) integer(name string, minValue int) *int {
	raw := p.str(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s must be an integer", name))
		return nil
	}
	if v < minValue {
		p.errs = append(p.errs, fmt.Sprintf("%s must be at least %d", name, minValue))
		return nil
	}
	return &v
}

// intOrZero is integer with absence mapped to 0, which the services treat as "use the default"
func (p *queryParams) intOrZero(name string, minValue int) int {
	if v := p.integer(name, minValue); v != nil {
		return *v
	}
	return 0
}

// origin reads lat and lng; both or neither must be present
func (p *queryParams) origin() *geo.Coordinate {
	lat, lng := p.float("lat"), p.float("lng")
	hasLat, hasLng := p.str("lat") != "", p.str("lng") != ""

	if hasLat != hasLng {
		p.errs = append(p.errs, "lat and lng must be provided together")
		return nil
	}
	if lat == nil || lng == nil {
		return nil
	}

	c := geo.NewCoordinate(*lat, *lng)
	if err := c.Validate(); err != nil {
		p.errs = append(p.errs, err.Error())
		return nil
	}
	return &c
}

func (p *queryParams) filters(fields []string) map[string]string {
	filters := make(map[string]string)
	for _, field := range fields {
		if v := p.str(field); v != "" {
			filters[field] = v
		}
	}
	return filters
}

func (p *queryParams) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return apperrors.NewValidationError(strings.Join(p.errs, "; "))
}

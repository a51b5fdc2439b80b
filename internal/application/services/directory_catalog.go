package services

import (
	"slices"
	"strings"

	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
)

// Catalog lists the searchable columns of one entity kind
type Catalog struct {
	Kind entities.EntityKind

	// TextFields are matched by the keyword query
	TextFields []string

	// ExactFilters and ContainsFilters are the recognised category parameters
	ExactFilters    []string
	ContainsFilters []string

	// NaturalSort orders results when no sort is requested
	NaturalSort string
	SortFields  []string
}

// SortDistance is the pseudo column that orders by computed distance
const SortDistance = "distance"

// FacilityCatalog describes facility search
var FacilityCatalog = Catalog{
	Kind:            entities.KindFacility,
	TextFields:      []string{"name", "address", "phone", "description"},
	ExactFilters:    []string{"facility_type_id", "province_id"},
	ContainsFilters: []string{"phone", "address"},
	NaturalSort:     "name",
	SortFields:      []string{"name", "address", "created_at", "updated_at"},
}

// PharmacyCatalog describes pharmacy search
var PharmacyCatalog = Catalog{
	Kind:            entities.KindPharmacy,
	TextFields:      []string{"name", "address", "phone", "license_number"},
	ExactFilters:    []string{"province_id"},
	ContainsFilters: []string{"phone", "address", "license_number"},
	NaturalSort:     "name",
	SortFields:      []string{"name", "address", "license_number", "created_at", "updated_at"},
}

// OutbreakCatalog describes outbreak zone search
var OutbreakCatalog = Catalog{
	Kind:         entities.KindOutbreak,
	TextFields:   []string{"name", "disease", "description"},
	ExactFilters: []string{"disease", "severity", "province_id"},
	NaturalSort:  "name",
	SortFields:   []string{"name", "disease", "severity", "case_count", "reported_at", "created_at"},
}

// FilterFields returns every recognised filter parameter
func (c Catalog) FilterFields() []string {
	fields := slices.Clone(c.ExactFilters)
	for _, f := range c.ContainsFilters {
		if !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}
	return fields
}

// resolveSort maps a requested sort onto a column and direction. Distance is not a
// column: byDistance is set and column falls back to the natural sort.
func (c Catalog) resolveSort(sortBy, sortOrder string) (column string, order repositories.SortOrder, byDistance bool) {
	order = repositories.SortAsc
	if strings.EqualFold(strings.TrimSpace(sortOrder), string(repositories.SortDesc)) {
		order = repositories.SortDesc
	}

	sortBy = strings.TrimSpace(sortBy)
	switch {
	case sortBy == SortDistance:
		return c.NaturalSort, order, true
	case slices.Contains(c.SortFields, sortBy):
		return sortBy, order, false
	default:
		return c.NaturalSort, order, false
	}
}

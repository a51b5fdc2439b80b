package entities

import "time"

// Entity statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// EntityKind names a kind of directory entry
type EntityKind string

const (
	KindFacility EntityKind = "facility"
	KindPharmacy EntityKind = "pharmacy"
	KindOutbreak EntityKind = "outbreak"
)

// DirectoryEntry is implemented by every searchable record that may own a Location
type DirectoryEntry interface {
	GetID() string
	SetID(id string)
	LocationRef() string
	SetLocationRef(id string)
	Stamp(now time.Time)
	Base() *Record
}

// Record holds the columns shared by all directory entries.
// LocationID is nil when the entry has no geometry.
type Record struct {
	ID         string    `json:"id" db:"id"`
	Status     string    `json:"status" db:"status"`
	LocationID *string   `json:"location_id" db:"location_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// GetID returns the record id
func (r *Record) GetID() string {
	return r.ID
}

// SetID sets the record id
func (r *Record) SetID(id string) {
	r.ID = id
}

// LocationRef returns the referenced Location id, or "" when absent
func (r *Record) LocationRef() string {
	if r.LocationID == nil {
		return ""
	}
	return *r.LocationID
}

// SetLocationRef points the record at a Location; "" clears the reference
func (r *Record) SetLocationRef(id string) {
	if id == "" {
		r.LocationID = nil
		return
	}
	r.LocationID = &id
}

// Base returns the shared columns
func (r *Record) Base() *Record {
	return r
}

// Stamp fills CreatedAt on first write, refreshes UpdatedAt and defaults the status
func (r *Record) Stamp(now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	if r.Status == "" {
		r.Status = StatusActive
	}
}

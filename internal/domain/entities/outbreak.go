package entities

import "time"

// Outbreak severities
const (
	SeverityLow      = "low"
	SeverityModerate = "moderate"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// OutbreakZone is an area affected by a disease outbreak, usually tied to a polygon
type OutbreakZone struct {
	Record
	Name        string     `json:"name" db:"name" validate:"required,max=255"`
	Disease     string     `json:"disease" db:"disease" validate:"required,max=255"`
	Severity    string     `json:"severity" db:"severity" validate:"omitempty,oneof=low moderate high critical"`
	CaseCount   int        `json:"case_count" db:"case_count" validate:"gte=0"`
	ProvinceID  string     `json:"province_id" db:"province_id"`
	Description string     `json:"description,omitempty" db:"description"`
	ReportedAt  *time.Time `json:"reported_at,omitempty" db:"reported_at"`
}

// Province is an administrative area used as an exact-match filter
type Province struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required,max=255"`
	Code      string    `json:"code" db:"code" validate:"required,max=20"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

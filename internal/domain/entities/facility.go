package entities

// Facility represents a medical facility (hospital, clinic, health post)
type Facility struct {
	Record
	Name           string   `json:"name" db:"name" validate:"required,max=255"`
	Address        string   `json:"address" db:"address" validate:"max=500"`
	Phone          string   `json:"phone" db:"phone" validate:"max=50"`
	Email          string   `json:"email,omitempty" db:"email" validate:"omitempty,email"`
	Description    string   `json:"description,omitempty" db:"description"`
	FacilityTypeID string   `json:"facility_type_id" db:"facility_type_id"`
	ProvinceID     string   `json:"province_id" db:"province_id"`
	Services       []string `json:"services" db:"services"`
}

// Pharmacy represents a licensed pharmacy
type Pharmacy struct {
	Record
	Name          string `json:"name" db:"name" validate:"required,max=255"`
	Address       string `json:"address" db:"address" validate:"max=500"`
	Phone         string `json:"phone" db:"phone" validate:"max=50"`
	LicenseNumber string `json:"license_number" db:"license_number" validate:"max=100"`
	OpeningHours  string `json:"opening_hours,omitempty" db:"opening_hours"`
	ProvinceID    string `json:"province_id" db:"province_id"`
}

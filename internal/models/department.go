package models

// DepartmentType classifies a service point
type DepartmentType string

const (
	DepartmentRegistration DepartmentType = "registration"
	DepartmentConsultation DepartmentType = "consultation"
	DepartmentDiagnostic   DepartmentType = "diagnostic"
	DepartmentPharmacy     DepartmentType = "pharmacy"
	DepartmentBilling      DepartmentType = "billing"
)

// Valid reports whether t is a known department type.
func (t DepartmentType) Valid() bool {
	switch t {
	case DepartmentRegistration, DepartmentConsultation, DepartmentDiagnostic, DepartmentPharmacy, DepartmentBilling:
		return true
	}
	return false
}

// DefaultServiceMinutes is used when a department has no average service time recorded.
const DefaultServiceMinutes = 15

// Department is a service point inside a hospital. CurrentQueue is only ever
// changed through the atomic counter updates in the journey package.
type Department struct {
	BaseModel
	HospitalID     string         `gorm:"size:36;index;not null" json:"hospitalId"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	Type           DepartmentType `gorm:"size:20;not null" json:"type"`
	Floor          int            `json:"floor"`
	Wing           string         `gorm:"size:50" json:"wing,omitempty"`
	AvgServiceTime int            `gorm:"not null;default:15" json:"avgServiceTime"`
	CurrentQueue   int            `gorm:"not null;default:0" json:"currentQueue"`
	MaxCapacity    int            `gorm:"not null;default:1" json:"maxCapacity"`
}

// ServiceMinutes returns the average service time, defaulting when unset.
func (d *Department) ServiceMinutes() int {
	if d == nil || d.AvgServiceTime <= 0 {
		return DefaultServiceMinutes
	}
	return d.AvgServiceTime
}

// AtCapacity reports whether the waiting line has reached the configured capacity.
func (d *Department) AtCapacity() bool {
	return d.CurrentQueue >= d.MaxCapacity
}

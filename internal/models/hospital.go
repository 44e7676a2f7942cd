package models

import "time"

// Hospital is a site that hands out journey tokens.
type Hospital struct {
	BaseModel
	Name     string `gorm:"size:255;not null" json:"name"`
	Code     string `gorm:"size:16;uniqueIndex;not null" json:"code"`
	Timezone string `gorm:"size:64" json:"timezone,omitempty"`

	Departments []Department `gorm:"foreignKey:HospitalID" json:"departments,omitempty"`
}

// Location resolves the hospital timezone, falling back to the server's local zone.
func (h *Hospital) Location() *time.Location {
	if h.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

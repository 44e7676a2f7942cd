package models

import "time"

// JourneyShare grants read access to one journey through a short code.
type JourneyShare struct {
	BaseModel
	JourneyID string    `gorm:"size:36;index;not null" json:"journeyId"`
	CodeHash  string    `gorm:"size:255;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
	CreatedBy string    `gorm:"size:36" json:"createdBy"`
}

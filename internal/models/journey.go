package models

import "time"

// JourneyStatus represents the overall state of a hospital visit
type JourneyStatus string

const (
	JourneyActive    JourneyStatus = "active"
	JourneyCompleted JourneyStatus = "completed"
	JourneyCancelled JourneyStatus = "cancelled"
	JourneyPaused    JourneyStatus = "paused"
)

// Valid reports whether s is a known journey status.
func (s JourneyStatus) Valid() bool {
	switch s {
	case JourneyActive, JourneyCompleted, JourneyCancelled, JourneyPaused:
		return true
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s JourneyStatus) Terminal() bool {
	return s == JourneyCompleted || s == JourneyCancelled
}

// Journey is one patient's visit, an ordered list of checkpoints
type Journey struct {
	BaseModel
	PatientID             string        `gorm:"size:36;index;not null" json:"patientId"`
	HospitalID            string        `gorm:"size:36;index;not null" json:"hospitalId"`
	TokenNumber           string        `gorm:"size:40;uniqueIndex;not null" json:"tokenNumber"`
	VisitType             string        `gorm:"size:50;not null;default:'general'" json:"visitType"`
	ChiefComplaint        string        `gorm:"type:text" json:"chiefComplaint,omitempty"`
	Status                JourneyStatus `gorm:"size:20;not null;default:'active';index" json:"status"`
	ProgressPercent       int           `gorm:"not null;default:0" json:"progressPercent"`
	EstimatedTotalMinutes int           `gorm:"not null;default:0" json:"estimatedTotalMinutes"`
	ActualTotalMinutes    *int          `json:"actualTotalMinutes,omitempty"`
	CurrentCheckpointID   *string       `gorm:"size:36" json:"currentCheckpointId,omitempty"`
	StartedAt             *time.Time    `json:"startedAt,omitempty"`
	CompletedAt           *time.Time    `json:"completedAt,omitempty"`

	// Relations
	Hospital    *Hospital    `gorm:"foreignKey:HospitalID" json:"hospital,omitempty"`
	Checkpoints []Checkpoint `gorm:"foreignKey:JourneyID" json:"checkpoints,omitempty"`
}

package models

import "time"

// CheckpointStatus represents where a patient is at a single department stop
type CheckpointStatus string

const (
	CheckpointPending    CheckpointStatus = "pending"
	CheckpointInQueue    CheckpointStatus = "in_queue"
	CheckpointInProgress CheckpointStatus = "in_progress"
	CheckpointCompleted  CheckpointStatus = "completed"
	CheckpointSkipped    CheckpointStatus = "skipped"
)

// Resolved reports whether the status counts towards journey progress.
func (s CheckpointStatus) Resolved() bool {
	return s == CheckpointCompleted || s == CheckpointSkipped
}

// Active reports whether a checkpoint in this status holds a department queue slot.
func (s CheckpointStatus) Active() bool {
	return s == CheckpointInQueue || s == CheckpointInProgress
}

// Checkpoint is one department stop within a journey
type Checkpoint struct {
	BaseModel
	JourneyID            string           `gorm:"size:36;not null;uniqueIndex:idx_checkpoint_sequence" json:"journeyId"`
	DepartmentID         string           `gorm:"size:36;index;not null" json:"departmentId"`
	Sequence             int              `gorm:"not null;uniqueIndex:idx_checkpoint_sequence" json:"sequence"`
	Status               CheckpointStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	QueuePosition        *int             `json:"queuePosition,omitempty"`
	EstimatedWaitMinutes int              `gorm:"not null;default:0" json:"estimatedWaitMinutes"`
	ActualWaitMinutes    *int             `json:"actualWaitMinutes,omitempty"`
	ActualServiceMinutes *int             `json:"actualServiceMinutes,omitempty"`
	ArrivedAt            *time.Time       `json:"arrivedAt,omitempty"`
	StartedAt            *time.Time       `json:"startedAt,omitempty"`
	CompletedAt          *time.Time       `json:"completedAt,omitempty"`
	Notes                string           `gorm:"type:text" json:"notes,omitempty"`

	Department *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}

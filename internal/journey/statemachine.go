// Package journey implements the hospital visit engine: the checkpoint state
// machine, the progress aggregator and the queue cascade that runs when a
// checkpoint is resolved.
package journey

import (
	"fmt"
	"math"
	"time"

	"hospital-journey-server/internal/apperrors"
	"hospital-journey-server/internal/models"
)

// transitions lists the statuses each status may move to. Re-submitting the
// current status is handled separately as a no-op.
var transitions = map[models.CheckpointStatus][]models.CheckpointStatus{
	models.CheckpointPending:    {models.CheckpointInQueue, models.CheckpointInProgress, models.CheckpointCompleted, models.CheckpointSkipped},
	models.CheckpointInQueue:    {models.CheckpointInProgress, models.CheckpointCompleted, models.CheckpointSkipped},
	models.CheckpointInProgress: {models.CheckpointCompleted, models.CheckpointSkipped},
	models.CheckpointCompleted:  {},
	models.CheckpointSkipped:    {},
}

// ParseCheckpointStatus validates a status received from a caller.
func ParseCheckpointStatus(s string) (models.CheckpointStatus, error) {
	status := models.CheckpointStatus(s)
	if _, ok := transitions[status]; !ok {
		return "", apperrors.NewInvalidInputError(fmt.Sprintf("invalid checkpoint status %q", s))
	}
	return status, nil
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to a conflict error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return apperrors.NewConflictError(r.Reason)
}

// CanTransition evaluates whether a checkpoint may move from one status to another.
// Rules:
// - Same status is allowed (idempotent re-submission)
// - Completed and skipped are terminal
// - Otherwise only forward moves, or skipped, are allowed
func CanTransition(from, to models.CheckpointStatus) GuardResult {
	if from == to {
		return GuardResult{Allowed: true}
	}
	for _, next := range transitions[from] {
		if next == to {
			return GuardResult{Allowed: true}
		}
	}
	if from.Resolved() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("checkpoint is already %s", from),
		}
	}
	return GuardResult{
		Allowed: false,
		Reason:  fmt.Sprintf("cannot move checkpoint from %s back to %s", from, to),
	}
}

// applyTransition moves cp to status and fills the timestamps that entry into
// that status implies. Timestamps already set are never touched. It reports
// whether the status actually changed.
func applyTransition(cp *models.Checkpoint, to models.CheckpointStatus, now time.Time, actualServiceMinutes *int) (bool, error) {
	from := cp.Status
	if err := CanTransition(from, to).Error(); err != nil {
		return false, err
	}

	switch to {
	case models.CheckpointInQueue:
		if cp.ArrivedAt == nil {
			cp.ArrivedAt = timePtr(now)
		}
	case models.CheckpointInProgress:
		if cp.StartedAt == nil {
			cp.StartedAt = timePtr(now)
			if cp.ArrivedAt != nil {
				cp.ActualWaitMinutes = intPtr(minutesBetween(*cp.ArrivedAt, now))
			}
		}
	case models.CheckpointCompleted:
		if cp.CompletedAt == nil {
			cp.CompletedAt = timePtr(now)
			if cp.StartedAt != nil {
				if actualServiceMinutes != nil {
					cp.ActualServiceMinutes = intPtr(*actualServiceMinutes)
				} else {
					cp.ActualServiceMinutes = intPtr(minutesBetween(*cp.StartedAt, now))
				}
			}
		}
	}

	cp.Status = to
	return from != to, nil
}

// minutesBetween rounds the elapsed time to whole minutes.
func minutesBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Minutes()))
}

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(i int) *int { return &i }

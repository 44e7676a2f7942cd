package journey

import (
	"math"
	"sort"

	"hospital-journey-server/internal/models"
)

// Progress is the derived state of a journey's checkpoint list.
type Progress struct {
	Percent                   int
	Current                   *models.Checkpoint
	EstimatedRemainingMinutes int
	Resolved                  int
	Total                     int
}

// Summarize computes every derived journey field in one pass.
func Summarize(checkpoints []models.Checkpoint) Progress {
	current := CurrentCheckpoint(checkpoints)
	p := Progress{
		Percent:                   ProgressPercent(checkpoints),
		Current:                   current,
		EstimatedRemainingMinutes: EstimatedRemainingMinutes(checkpoints),
		Total:                     len(checkpoints),
	}
	for _, cp := range checkpoints {
		if cp.Status.Resolved() {
			p.Resolved++
		}
	}
	return p
}

// ProgressPercent is round(100 * resolved / total), 0 for an empty journey.
func ProgressPercent(checkpoints []models.Checkpoint) int {
	if len(checkpoints) == 0 {
		return 0
	}
	resolved := 0
	for _, cp := range checkpoints {
		if cp.Status.Resolved() {
			resolved++
		}
	}
	return int(math.Round(float64(resolved) * 100 / float64(len(checkpoints))))
}

// AllResolved reports whether every checkpoint is completed or skipped.
func AllResolved(checkpoints []models.Checkpoint) bool {
	for _, cp := range checkpoints {
		if !cp.Status.Resolved() {
			return false
		}
	}
	return true
}

// CurrentCheckpoint returns the first queued or in-service checkpoint in
// sequence order, else the first pending one, else nil. The returned pointer
// refers into checkpoints.
func CurrentCheckpoint(checkpoints []models.Checkpoint) *models.Checkpoint {
	ordered := bySequence(checkpoints)
	for _, i := range ordered {
		if checkpoints[i].Status.Active() {
			return &checkpoints[i]
		}
	}
	for _, i := range ordered {
		if checkpoints[i].Status == models.CheckpointPending {
			return &checkpoints[i]
		}
	}
	return nil
}

// EstimatedRemainingMinutes sums, from the current checkpoint onward, the
// expected wait plus service time of every checkpoint not yet completed.
// Skipped checkpoints still count.
func EstimatedRemainingMinutes(checkpoints []models.Checkpoint) int {
	current := CurrentCheckpoint(checkpoints)
	if current == nil {
		return 0
	}
	total := 0
	for _, cp := range checkpoints {
		if cp.Sequence < current.Sequence || cp.Status == models.CheckpointCompleted {
			continue
		}
		total += cp.EstimatedWaitMinutes + cp.Department.ServiceMinutes()
	}
	return total
}

// nextUnresolved returns the index of the first unresolved checkpoint after
// the given sequence, or -1.
func nextUnresolved(checkpoints []models.Checkpoint, after int) int {
	for _, i := range bySequence(checkpoints) {
		if checkpoints[i].Sequence > after && !checkpoints[i].Status.Resolved() {
			return i
		}
	}
	return -1
}

func bySequence(checkpoints []models.Checkpoint) []int {
	idx := make([]int, len(checkpoints))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return checkpoints[idx[a]].Sequence < checkpoints[idx[b]].Sequence
	})
	return idx
}

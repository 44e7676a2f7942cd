package journey

import (
	"context"
	"time"

	"hospital-journey-server/internal/models"
)

// View is the journey as returned to polling clients: the stored journey with
// its checkpoints plus the fields derived from them.
type View struct {
	models.Journey
	CurrentCheckpoint         *models.Checkpoint `json:"currentCheckpoint,omitempty"`
	EstimatedRemainingMinutes int                `json:"estimatedRemainingMinutes"`
	PollIntervalSeconds       int                `json:"pollIntervalSeconds"`
}

// ViewCache stores computed views for at most one poll interval. Implementations
// must treat failures as misses.
type ViewCache interface {
	Get(ctx context.Context, journeyID string) (*View, bool)
	Set(ctx context.Context, view *View, ttl time.Duration)
	Invalidate(ctx context.Context, journeyID string)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*View, bool) { return nil, false }
func (nopCache) Set(context.Context, *View, time.Duration) {}
func (nopCache) Invalidate(context.Context, string) {}

func newView(journey *models.Journey, pollInterval time.Duration) *View {
	progress := Summarize(journey.Checkpoints)
	journey.ProgressPercent = progress.Percent

	view := &View{
		Journey:                   *journey,
		EstimatedRemainingMinutes: progress.EstimatedRemainingMinutes,
		PollIntervalSeconds:       int(pollInterval / time.Second),
	}
	if progress.Current != nil {
		current := *progress.Current
		view.CurrentCheckpoint = &current
	}
	return view
}

package journey

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hospital-journey-server/internal/apperrors"
	"hospital-journey-server/internal/models"
	"hospital-journey-server/internal/observability"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	db       *gorm.DB
	svc      *Service
	registry *Registry
	clock    *fakeClock
	metrics  *observability.Metrics
	hospital *models.Hospital
	reg      *models.Department
	consult  *models.Department
	pharmacy *models.Department
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.InitDB(models.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// newFixture registers one hospital with registration (10 min),
// consultation (20 min) and pharmacy (10 min).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	clock := &fakeClock{now: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	metrics := observability.NewMetrics()
	f := &fixture{
		db:       db,
		svc:      NewService(db, WithClock(clock.Now), WithMetrics(metrics), WithShareTTL(24*time.Hour)),
		registry: NewRegistry(db),
		clock:    clock,
		metrics:  metrics,
	}

	ctx := context.Background()
	var err error
	f.hospital, err = f.registry.CreateHospital(ctx, HospitalInput{Name: "City General", Code: "CGH", Timezone: "UTC"})
	require.NoError(t, err)
	f.reg = f.addDepartment(t, "Registration", models.DepartmentRegistration, 10)
	f.consult = f.addDepartment(t, "Consultation", models.DepartmentConsultation, 20)
	f.pharmacy = f.addDepartment(t, "Pharmacy", models.DepartmentPharmacy, 10)
	return f
}

func (f *fixture) addDepartment(t *testing.T, name string, typ models.DepartmentType, avg int) *models.Department {
	t.Helper()
	dept, err := f.registry.CreateDepartment(context.Background(), f.hospital.ID, DepartmentInput{
		Name:           name,
		Type:           string(typ),
		Floor:          1,
		AvgServiceTime: avg,
		MaxCapacity:    10,
	})
	require.NoError(t, err)
	return dept
}

func (f *fixture) start(t *testing.T, patientID string, departments ...*models.Department) *View {
	t.Helper()
	ids := make([]string, len(departments))
	for i, d := range departments {
		ids[i] = d.ID
	}
	view, err := f.svc.StartJourney(context.Background(), StartJourneyInput{
		PatientID:     patientID,
		HospitalID:    f.hospital.ID,
		DepartmentIDs: ids,
	})
	require.NoError(t, err)
	return view
}

func (f *fixture) transition(t *testing.T, view *View, seq int, status models.CheckpointStatus) *TransitionResult {
	t.Helper()
	result, err := f.svc.TransitionCheckpoint(context.Background(), TransitionInput{
		JourneyID:    view.ID,
		CheckpointID: view.Checkpoints[seq-1].ID,
		Status:       string(status),
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) queue(t *testing.T, dept *models.Department) int {
	t.Helper()
	var d models.Department
	require.NoError(t, f.db.First(&d, "id = ?", dept.ID).Error)
	return d.CurrentQueue
}

func assertCheckpointQueued(t *testing.T, cp models.Checkpoint, position, wait int) {
	t.Helper()
	assert.Equal(t, models.CheckpointInQueue, cp.Status)
	require.NotNil(t, cp.QueuePosition)
	assert.Equal(t, position, *cp.QueuePosition)
	assert.Equal(t, wait, cp.EstimatedWaitMinutes)
	assert.NotNil(t, cp.ArrivedAt)
}

func TestStartJourney(t *testing.T) {
	f := newFixture(t)

	view := f.start(t, "patient-1", f.reg, f.consult, f.pharmacy)

	assert.Equal(t, "CGH-20261016-0001", view.TokenNumber)
	assert.Equal(t, models.JourneyActive, view.Status)
	assert.Equal(t, DefaultVisitType, view.VisitType)
	assert.Equal(t, 40, view.EstimatedTotalMinutes)
	assert.Equal(t, 0, view.ProgressPercent)
	assert.Equal(t, 30, view.PollIntervalSeconds)
	require.NotNil(t, view.StartedAt)

	require.Len(t, view.Checkpoints, 3)
	for i, cp := range view.Checkpoints {
		assert.Equal(t, i+1, cp.Sequence)
		require.NotNil(t, cp.Department)
	}
	assertCheckpointQueued(t, view.Checkpoints[0], 1, 0)
	assert.Equal(t, models.CheckpointPending, view.Checkpoints[1].Status)
	assert.Equal(t, models.CheckpointPending, view.Checkpoints[2].Status)

	require.NotNil(t, view.CurrentCheckpointID)
	assert.Equal(t, view.Checkpoints[0].ID, *view.CurrentCheckpointID)
	require.NotNil(t, view.CurrentCheckpoint)
	assert.Equal(t, view.Checkpoints[0].ID, view.CurrentCheckpoint.ID)
	assert.Equal(t, 40, view.EstimatedRemainingMinutes)

	assert.Equal(t, 1, f.queue(t, f.reg))
	assert.Equal(t, 0, f.queue(t, f.consult))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.JourneysStarted.WithLabelValues(f.hospital.ID)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.DepartmentQueue.WithLabelValues(f.reg.ID)))
}

func TestStartJourney_SecondPatientQueuesBehindFirst(t *testing.T) {
	f := newFixture(t)

	f.start(t, "patient-1", f.reg, f.consult)
	second := f.start(t, "patient-2", f.reg, f.pharmacy)

	assert.Equal(t, "CGH-20261016-0002", second.TokenNumber)
	assertCheckpointQueued(t, second.Checkpoints[0], 2, 10)
	assert.Equal(t, 2, f.queue(t, f.reg))
}

func TestStartJourney_TokenSequenceResetsAtMidnight(t *testing.T) {
	f := newFixture(t)

	f.start(t, "patient-1", f.reg)
	f.start(t, "patient-2", f.reg)
	f.clock.Advance(24 * time.Hour)
	next := f.start(t, "patient-3", f.reg)

	assert.Equal(t, "CGH-20261017-0001", next.TokenNumber)
}

func TestStartJourney_EmptyDepartmentList(t *testing.T) {
	f := newFixture(t)

	view := f.start(t, "patient-1")

	assert.Equal(t, models.JourneyActive, view.Status)
	assert.Empty(t, view.Checkpoints)
	assert.Equal(t, 0, view.ProgressPercent)
	assert.Nil(t, view.CurrentCheckpointID)
	assert.Nil(t, view.CurrentCheckpoint)
	assert.Equal(t, 0, view.EstimatedRemainingMinutes)
}

func TestStartJourney_Errors(t *testing.T) {
	f := newFixture(t)
	other, err := f.registry.CreateHospital(context.Background(), HospitalInput{Name: "Other", Code: "OTH"})
	require.NoError(t, err)
	foreign, err := f.registry.CreateDepartment(context.Background(), other.ID, DepartmentInput{
		Name: "Billing", Type: "billing", AvgServiceTime: 5, MaxCapacity: 3,
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   StartJourneyInput
		errType apperrors.ErrorType
	}{
		{"missing hospital", StartJourneyInput{PatientID: "p"}, apperrors.ErrorTypeInvalidInput},
		{"unknown hospital", StartJourneyInput{PatientID: "p", HospitalID: uuid.NewString()}, apperrors.ErrorTypeInvalidInput},
		{"unknown department", StartJourneyInput{PatientID: "p", HospitalID: f.hospital.ID, DepartmentIDs: []string{uuid.NewString()}}, apperrors.ErrorTypeInvalidInput},
		{"department of another hospital", StartJourneyInput{PatientID: "p", HospitalID: f.hospital.ID, DepartmentIDs: []string{f.reg.ID, foreign.ID}}, apperrors.ErrorTypeInvalidInput},
		{"missing patient", StartJourneyInput{HospitalID: f.hospital.ID}, apperrors.ErrorTypeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.StartJourney(context.Background(), tt.input)
			assert.True(t, apperrors.Is(err, tt.errType), "got %v", err)
		})
	}

	// A rejected creation must not leave a slot taken.
	assert.Equal(t, 0, f.queue(t, f.reg))
}

func TestTransitionCheckpoint_ThreeDepartmentScenario(t *testing.T) {
	f := newFixture(t)
	view := f.start(t, "patient-1", f.reg, f.consult, f.pharmacy)

	f.clock.Advance(12 * time.Minute)
	result := f.transition(t, view, 1, models.CheckpointCompleted)
	assert.Equal(t, models.CheckpointCompleted, result.Checkpoint.Status)
	j := result.Journey
	assertCheckpointQueued(t, j.Checkpoints[1], 1, 0)
	assert.Equal(t, 33, j.ProgressPercent)
	assert.Equal(t, j.Checkpoints[1].ID, *j.CurrentCheckpointID)
	assert.Equal(t, 0, f.queue(t, f.reg))
	assert.Equal(t, 1, f.queue(t, f.consult))

	f.clock.Advance(25 * time.Minute)
	j = f.transition(t, view, 2, models.CheckpointCompleted).Journey
	assertCheckpointQueued(t, j.Checkpoints[2], 1, 0)
	assert.Equal(t, 67, j.ProgressPercent)
	assert.Equal(t, models.JourneyActive, j.Status)

	f.clock.Advance(8 * time.Minute)
	j = f.transition(t, view, 3, models.CheckpointCompleted).Journey
	assert.Equal(t, models.JourneyCompleted, j.Status)
	assert.Equal(t, 100, j.ProgressPercent)
	require.NotNil(t, j.CompletedAt)
	require.NotNil(t, j.ActualTotalMinutes)
	assert.Equal(t, 45, *j.ActualTotalMinutes)
	assert.Nil(t, j.CurrentCheckpointID)
	assert.Equal(t, 0, j.EstimatedRemainingMinutes)

	for _, d := range []*models.Department{f.reg, f.consult, f.pharmacy} {
		assert.Equal(t, 0, f.queue(t, d))
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.CheckpointTransitions.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.JourneysCompleted.WithLabelValues(f.hospital.ID)))
}

func TestTransitionCheckpoint_SkipPendingAdvancesNext(t *testing.T) {
	f := newFixture(t)
	view := f.start(t, "patient-1", f.reg, f.consult, f.pharmacy)

	j := f.transition(t, view, 2, models.CheckpointSkipped).Journey

	assert.Equal(t, models.CheckpointInQueue, j.Checkpoints[0].Status)
	assert.Equal(t, models.CheckpointSkipped, j.Checkpoints[1].Status)
	assertCheckpointQueued(t, j.Checkpoints[2], 1, 0)
	assert.Equal(t, 33, j.ProgressPercent)
	// The earliest active checkpoint stays current.
	assert.Equal(t, j.Checkpoints[0].ID, *j.CurrentCheckpointID)

	assert.Equal(t, 1, f.queue(t, f.reg))
	assert.Equal(t, 0, f.queue(t, f.consult))
	assert.Equal(t, 1, f.queue(t, f.pharmacy))
}

func TestTransitionCheckpoint_SkippedDownstreamStillCountsTowardsRemaining(t *testing.T) {
	f := newFixture(t)
	view := f.start(t, "patient-1", f.reg, f.consult, f.pharmacy)

	j := f.transition(t, view, 3, models.CheckpointSkipped).Journey

	assert.Equal(t, models.CheckpointInQueue, j.Checkpoints[0].Status)
	assert.Equal(t, models.CheckpointPending, j.Checkpoints[1].Status)
	assert.Equal(t, models.CheckpointSkipped, j.Checkpoints[2].Status)
	// 10 + 20 + 10: only completed checkpoints drop out of the estimate.
	assert.Equal(t, 40, j.EstimatedRemainingMinutes)
	assert.Equal(t, 0, f.queue(t, f.pharmacy))
}

func TestTransitionCheckpoint_QueueGaugeFollowsCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gauge := func(d *models.Department) float64 {
		return testutil.ToFloat64(f.metrics.DepartmentQueue.WithLabelValues(d.ID))
	}

	first := f.start(t, "patient-1", f.reg, f.consult)
	assert.Equal(t, 1.0, gauge(f.reg))

	_, err := f.svc.UpdateJourneyStatus(ctx, first.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, 0.0, gauge(f.reg))

	second := f.start(t, "patient-2", f.reg, f.consult)
	assert.Equal(t, 1.0, gauge(f.reg))

	f.transition(t, second, 1, models.CheckpointInProgress)
	assert.Equal(t, 1, f.queue(t, f.reg))
	assert.Equal(t, 1.0, gauge(f.reg))

	f.transition(t, second, 1, models.CheckpointCompleted)
	assert.Equal(t, 0.0, gauge(f.reg))
	assert.Equal(t, 1.0, gauge(f.consult))
}

func TestTransitionCheckpoint_CompletingPassesOverResolvedSuccessor(t *testing.T) {
	f := newFixture(t)
	view := f.start(t, "patient-1", f.reg, f.consult, f.pharmacy)

	f.transition(t, view, 2, models.CheckpointSkipped)
	f.transition(t, view, 3, models.CheckpointCompleted)
	j := f.transition(t, view, 1, models.CheckpointCompleted).Journey

	assert.Equal(t, models.JourneyCompleted, j.Status)
	assert.Equal(t, 100, j.ProgressPercent)
	for _, d := range []*models.Department{f.reg, f.consult, f.pharmacy} {
		assert.Equal(t, 0, f.queue(t, d))
	}
}

func TestTransitionCheckpoint_LeavesExactlyOneActiveSuccessor(t *testing.T) {
	f := newFixture(t)
	view := f.start(t, "patient-1", f.reg, f.consult, f.pharmacy)

	j := f.transition(t, view, 1, models.CheckpointCompleted).Journey

	active := 0
	for _, cp := range j.Checkpoints {
		if cp.Status.Active() {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestTransitionCheckpoint_Idempotent(t *testing.T) {
	f := newFixture(t)
	view := f.start(t, "patient-1", f.reg, f.consult)

	first := f.transition(t, view, 1, models.CheckpointCompleted)
	f.clock.Advance(5 * time.Minute)
	again := f.transition(t, view, 1, models.CheckpointCompleted)

	assert.Equal(t, first.Checkpoint.CompletedAt.UTC(), again.Checkpoint.CompletedAt.UTC())
	assert.Equal(t, 0, f.queue(t, f.reg))
	assert.Equal(t, 1, f.queue(t, f.consult))
	assertCheckpointQueued(t, again.Journey.Checkpoints[1], 1, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckpointTransitions.WithLabelValues("completed")))

	// Still a no-op once the journey itself is finished.
	f.transition(t, view, 2, models.CheckpointCompleted)
	final := f.transition(t, view, 2, models.CheckpointCompleted)
	assert.Equal(t, models.JourneyCompleted, final.Journey.Status)
}

func TestTransitionCheckpoint_WaitAndServiceTimes(t *testing.T) {
	f := newFixture(t)
	view := f.start(t, "patient-1", f.reg, f.consult)

	f.clock.Advance(7 * time.Minute)
	started := f.transition(t, view, 1, models.CheckpointInProgress).Checkpoint
	require.NotNil(t, started.ActualWaitMinutes)
	assert.Equal(t, 7, *started.ActualWaitMinutes)
	assert.Equal(t, 1, f.queue(t, f.reg))

	f.clock.Advance(12*time.Minute + 20*time.Second)
	done := f.transition(t, view, 1, models.CheckpointCompleted).Checkpoint
	require.NotNil(t, done.ActualServiceMinutes)
	assert.Equal(t, 12, *done.ActualServiceMinutes)
	assert.False(t, done.StartedAt.Before(*done.ArrivedAt))
	assert.False(t, done.CompletedAt.Before(*done.StartedAt))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckpointTransitions.WithLabelValues("in_progress")))
}

func TestTransitionCheckpoint_ManualQueueEntryTakesSlot(t *testing.T) {
	f := newFixture(t)
	view := f.start(t, "patient-1", f.reg, f.consult)
	f.start(t, "patient-2", f.consult)

	notes := "walked in early"
	result, err := f.svc.TransitionCheckpoint(context.Background(), TransitionInput{
		JourneyID:    view.ID,
		CheckpointID: view.Checkpoints[1].ID,
		Status:       string(models.CheckpointInQueue),
		Notes:        &notes,
	})
	require.NoError(t, err)

	assertCheckpointQueued(t, result.Checkpoint, 2, 20)
	assert.Equal(t, notes, result.Checkpoint.Notes)
	assert.Equal(t, 2, f.queue(t, f.consult))

	// Skipping it afterwards gives the slot back.
	f.transition(t, view, 2, models.CheckpointSkipped)
	assert.Equal(t, 1, f.queue(t, f.consult))
}

func TestTransitionCheckpoint_Errors(t *testing.T) {
	f := newFixture(t)
	view := f.start(t, "patient-1", f.reg, f.consult)
	otherView := f.start(t, "patient-2", f.reg)
	f.transition(t, view, 1, models.CheckpointCompleted)
	negative := -3

	tests := []struct {
		name    string
		input   TransitionInput
		errType apperrors.ErrorType
	}{
		{"invalid status", TransitionInput{JourneyID: view.ID, CheckpointID: view.Checkpoints[1].ID, Status: "done"}, apperrors.ErrorTypeInvalidInput},
		{"unknown journey", TransitionInput{JourneyID: uuid.NewString(), CheckpointID: view.Checkpoints[1].ID, Status: "completed"}, apperrors.ErrorTypeNotFound},
		{"checkpoint of another journey", TransitionInput{JourneyID: view.ID, CheckpointID: otherView.Checkpoints[0].ID, Status: "completed"}, apperrors.ErrorTypeNotFound},
		{"backwards", TransitionInput{JourneyID: view.ID, CheckpointID: view.Checkpoints[0].ID, Status: "in_queue"}, apperrors.ErrorTypeConflict},
		{"negative service minutes", TransitionInput{JourneyID: view.ID, CheckpointID: view.Checkpoints[1].ID, Status: "completed", ActualServiceMinutes: &negative}, apperrors.ErrorTypeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.TransitionCheckpoint(context.Background(), tt.input)
			assert.True(t, apperrors.Is(err, tt.errType), "got %v", err)
		})
	}

	assert.Equal(t, 1, f.queue(t, f.consult))
}

func TestTransitionCheckpoint_PausedJourneyRejectsChanges(t *testing.T) {
	f := newFixture(t)
	view := f.start(t, "patient-1", f.reg, f.consult)

	_, err := f.svc.UpdateJourneyStatus(context.Background(), view.ID, "paused")
	require.NoError(t, err)

	_, err = f.svc.TransitionCheckpoint(context.Background(), TransitionInput{
		JourneyID: view.ID, CheckpointID: view.Checkpoints[0].ID, Status: "completed",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConflict))

	resumed, err := f.svc.UpdateJourneyStatus(context.Background(), view.ID, "active")
	require.NoError(t, err)
	assert.Equal(t, models.JourneyActive, resumed.Status)
	f.transition(t, view, 1, models.CheckpointCompleted)
}

func TestUpdateJourneyStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("invalid status", func(t *testing.T) {
		view := f.start(t, "patient-1", f.reg)
		_, err := f.svc.UpdateJourneyStatus(ctx, view.ID, "archived")
		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput))
	})

	t.Run("unknown journey", func(t *testing.T) {
		_, err := f.svc.UpdateJourneyStatus(ctx, uuid.NewString(), "paused")
		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("complete with unresolved checkpoints", func(t *testing.T) {
		view := f.start(t, "patient-1", f.consult)
		_, err := f.svc.UpdateJourneyStatus(ctx, view.ID, "completed")
		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConflict))
	})

	t.Run("complete empty journey", func(t *testing.T) {
		view := f.start(t, "patient-1")
		done, err := f.svc.UpdateJourneyStatus(ctx, view.ID, "completed")
		require.NoError(t, err)
		assert.Equal(t, models.JourneyCompleted, done.Status)
		assert.NotNil(t, done.CompletedAt)
	})

	t.Run("cancel releases held slots and is final", func(t *testing.T) {
		view := f.start(t, "patient-1", f.pharmacy, f.consult)
		require.Equal(t, 1, f.queue(t, f.pharmacy))

		cancelled, err := f.svc.UpdateJourneyStatus(ctx, view.ID, "cancelled")
		require.NoError(t, err)
		assert.Equal(t, models.JourneyCancelled, cancelled.Status)
		assert.Equal(t, 0, f.queue(t, f.pharmacy))
		assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.DepartmentQueue.WithLabelValues(f.pharmacy.ID)))

		again, err := f.svc.UpdateJourneyStatus(ctx, view.ID, "cancelled")
		require.NoError(t, err)
		assert.Equal(t, models.JourneyCancelled, again.Status)
		assert.Equal(t, 0, f.queue(t, f.pharmacy))

		_, err = f.svc.UpdateJourneyStatus(ctx, view.ID, "active")
		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConflict))
	})
}

func TestListJourneys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.start(t, "patient-1", f.reg)
	f.clock.Advance(time.Minute)
	second := f.start(t, "patient-1", f.consult)
	f.start(t, "patient-2", f.reg)
	_, err := f.svc.UpdateJourneyStatus(ctx, first.ID, "cancelled")
	require.NoError(t, err)

	all, err := f.svc.ListJourneys(ctx, "patient-1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	active, err := f.svc.ListJourneys(ctx, "patient-1", "active")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	none, err := f.svc.ListJourneys(ctx, "patient-3", "")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.ListJourneys(ctx, "patient-1", "unknown")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput))
}

func TestGetJourney(t *testing.T) {
	f := newFixture(t)
	view := f.start(t, "patient-1", f.reg, f.consult)

	got, err := f.svc.GetJourney(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.TokenNumber, got.TokenNumber)
	require.NotNil(t, got.Hospital)
	assert.Equal(t, "CGH", got.Hospital.Code)

	_, err = f.svc.GetJourney(context.Background(), uuid.NewString())
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
}

type recordingCache struct {
	views       map[string]*View
	invalidated []string
	ttl         time.Duration
}

func (c *recordingCache) Get(_ context.Context, id string) (*View, bool) {
	v, ok := c.views[id]
	return v, ok
}

func (c *recordingCache) Set(_ context.Context, v *View, ttl time.Duration) {
	c.views[v.ID] = v
	c.ttl = ttl
}

func (c *recordingCache) Invalidate(_ context.Context, id string) {
	delete(c.views, id)
	c.invalidated = append(c.invalidated, id)
}

func TestService_CacheIsDroppedOnMutation(t *testing.T) {
	f := newFixture(t)
	cache := &recordingCache{views: map[string]*View{}}
	f.svc = NewService(f.db, WithClock(f.clock.Now), WithCache(cache), WithPollInterval(10*time.Second))

	view := f.start(t, "patient-1", f.reg, f.consult)
	assert.Equal(t, 10*time.Second, cache.ttl)
	assert.Equal(t, 10, view.PollIntervalSeconds)

	cached, err := f.svc.GetJourney(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Same(t, cache.views[view.ID], cached)

	f.transition(t, view, 1, models.CheckpointCompleted)
	assert.Equal(t, []string{view.ID}, cache.invalidated)

	fresh, err := f.svc.GetJourney(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, fresh.ProgressPercent)
}

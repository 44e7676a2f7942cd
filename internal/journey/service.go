package journey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospital-journey-server/internal/apperrors"
	"hospital-journey-server/internal/models"
	"hospital-journey-server/internal/observability"
)

const (
	DefaultPollInterval = 30 * time.Second
	DefaultShareTTL     = 24 * time.Hour
	DefaultVisitType    = "general"
)

// Service runs journey creation, checkpoint transitions and the queue cascade.
// Every mutation is a single database transaction.
type Service struct {
	db           *gorm.DB
	cache        ViewCache
	metrics      *observability.Metrics
	now          func() time.Time
	pollInterval time.Duration
	shareTTL     time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCache sets the journey view cache.
func WithCache(cache ViewCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithMetrics records engine metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPollInterval sets the client poll interval, which also bounds view caching.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.pollInterval = d }
}

// WithShareTTL sets how long share codes stay valid.
func WithShareTTL(d time.Duration) Option {
	return func(s *Service) { s.shareTTL = d }
}

// NewService creates a journey service on db.
func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:           db,
		cache:        nopCache{},
		now:          time.Now,
		pollInterval: DefaultPollInterval,
		shareTTL:     DefaultShareTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PollInterval is the interval clients are told to poll journey views at.
func (s *Service) PollInterval() time.Duration {
	return s.pollInterval
}

// StartJourneyInput describes a new visit.
type StartJourneyInput struct {
	PatientID      string
	HospitalID     string
	VisitType      string
	ChiefComplaint string
	DepartmentIDs  []string
}

// StartJourney creates a journey with one checkpoint per department, in the
// order given, and queues the patient at the first one.
func (s *Service) StartJourney(ctx context.Context, in StartJourneyInput) (view *View, err error) {
	ctx, span := observability.Tracer().Start(ctx, "journey.StartJourney",
		trace.WithAttributes(attribute.String("hospital.id", in.HospitalID)))
	defer func() { endSpan(span, err) }()

	if in.PatientID == "" {
		return nil, apperrors.NewUnauthorizedError("patient is required")
	}
	if in.HospitalID == "" {
		return nil, apperrors.NewInvalidInputError("hospitalId is required")
	}
	if in.VisitType == "" {
		in.VisitType = DefaultVisitType
	}

	now := s.now()
	var journeyID, hospitalCode string
	queueLengths := map[string]int{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The lock serialises token sequence allocation per hospital.
		var hospital models.Hospital
		if err := forUpdate(tx).First(&hospital, "id = ?", in.HospitalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewInvalidInputError("hospital not found")
			}
			return apperrors.FromStore(err, "")
		}
		hospitalCode = hospital.Code

		departments, err := s.resolveDepartments(tx, hospital.ID, in.DepartmentIDs)
		if err != nil {
			return err
		}

		midnight := startOfDay(now, hospital.Location())
		var issuedToday int64
		err = tx.Model(&models.Journey{}).
			Where("hospital_id = ? AND created_at >= ?", hospital.ID, midnight.UTC()).
			Count(&issuedToday).Error
		if err != nil {
			return apperrors.FromStore(err, "")
		}

		journey := models.Journey{
			BaseModel:      models.BaseModel{ID: uuid.New().String(), CreatedAt: now.UTC()},
			PatientID:      in.PatientID,
			HospitalID:     hospital.ID,
			TokenNumber:    FormatToken(hospital.Code, now.In(hospital.Location()), int(issuedToday)+1),
			VisitType:      in.VisitType,
			ChiefComplaint: in.ChiefComplaint,
			Status:         models.JourneyActive,
			StartedAt:      timePtr(now),
		}

		checkpoints := make([]models.Checkpoint, len(departments))
		for i, dept := range departments {
			checkpoints[i] = models.Checkpoint{
				BaseModel:    models.BaseModel{ID: uuid.New().String()},
				JourneyID:    journey.ID,
				DepartmentID: dept.ID,
				Sequence:     i + 1,
				Status:       models.CheckpointPending,
			}
			journey.EstimatedTotalMinutes += dept.ServiceMinutes()
		}

		if len(checkpoints) > 0 {
			first := &checkpoints[0]
			queue, err := takeSlot(tx, first.DepartmentID)
			if err != nil {
				return err
			}
			first.Status = models.CheckpointInQueue
			first.ArrivedAt = timePtr(now)
			first.QueuePosition = intPtr(queue)
			first.EstimatedWaitMinutes = (queue - 1) * departments[0].ServiceMinutes()
			journey.CurrentCheckpointID = &first.ID
			queueLengths[first.DepartmentID] = queue
		}

		if err := tx.Omit(clause.Associations).Create(&journey).Error; err != nil {
			return apperrors.FromStore(err, "")
		}
		if len(checkpoints) > 0 {
			if err := tx.Omit(clause.Associations).Create(&checkpoints).Error; err != nil {
				return apperrors.FromStore(err, "")
			}
		}

		journeyID = journey.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.JourneysStarted.WithLabelValues(in.HospitalID).Inc()
	}
	s.recordQueues(queueLengths)
	observability.LoggerFromContext(ctx).Info().
		Str("journey_id", journeyID).
		Str("hospital", hospitalCode).
		Int("checkpoints", len(in.DepartmentIDs)).
		Msg("journey started")

	return s.buildView(ctx, journeyID)
}

// resolveDepartments loads the departments in the requested order. The same
// department may appear more than once.
func (s *Service) resolveDepartments(tx *gorm.DB, hospitalID string, ids []string) ([]models.Department, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.Department
	if err := tx.Where("id IN ? AND hospital_id = ?", ids, hospitalID).Find(&found).Error; err != nil {
		return nil, apperrors.FromStore(err, "")
	}
	byID := make(map[string]models.Department, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}

	departments := make([]models.Department, len(ids))
	for i, id := range ids {
		dept, ok := byID[id]
		if !ok {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("department %s not found in this hospital", id))
		}
		departments[i] = dept
	}
	return departments, nil
}

// GetJourney returns the journey view, served from the cache when fresh.
func (s *Service) GetJourney(ctx context.Context, id string) (*View, error) {
	if view, ok := s.cache.Get(ctx, id); ok {
		return view, nil
	}
	return s.buildView(ctx, id)
}

func (s *Service) buildView(ctx context.Context, id string) (*View, error) {
	journey, err := loadJourney(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	view := newView(journey, s.pollInterval)
	s.cache.Set(ctx, view, s.pollInterval)
	return view, nil
}

// ListJourneys returns a patient's journeys, newest first, optionally filtered
// by status.
func (s *Service) ListJourneys(ctx context.Context, patientID, status string) ([]models.Journey, error) {
	query := s.db.WithContext(ctx).Where("patient_id = ?", patientID)
	if status != "" {
		if !models.JourneyStatus(status).Valid() {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("invalid journey status %q", status))
		}
		query = query.Where("status = ?", status)
	}

	journeys := []models.Journey{}
	if err := query.Order("created_at DESC").Find(&journeys).Error; err != nil {
		return nil, apperrors.FromStore(err, "")
	}
	return journeys, nil
}

// TransitionInput is a staff request to move one checkpoint.
type TransitionInput struct {
	JourneyID            string
	CheckpointID         string
	Status               string
	Notes                *string
	ActualServiceMinutes *int
}

// TransitionResult carries the updated checkpoint and the journey after the cascade.
type TransitionResult struct {
	Checkpoint models.Checkpoint `json:"checkpoint"`
	Journey    *View             `json:"journey"`
}

// TransitionCheckpoint applies a status change and, when the checkpoint was
// resolved by it, releases its department slot, queues the next checkpoint and
// completes the journey once nothing is left.
func (s *Service) TransitionCheckpoint(ctx context.Context, in TransitionInput) (result *TransitionResult, err error) {
	ctx, span := observability.Tracer().Start(ctx, "journey.TransitionCheckpoint",
		trace.WithAttributes(
			attribute.String("journey.id", in.JourneyID),
			attribute.String("checkpoint.id", in.CheckpointID),
			attribute.String("checkpoint.status", in.Status),
		))
	defer func() { endSpan(span, err) }()

	to, err := ParseCheckpointStatus(in.Status)
	if err != nil {
		return nil, err
	}
	if in.ActualServiceMinutes != nil && *in.ActualServiceMinutes < 0 {
		return nil, apperrors.NewInvalidInputError("actualServiceMinutes must not be negative")
	}

	now := s.now()
	var (
		updated      models.Checkpoint
		changed      bool
		completed    bool
		hospitalID   string
		touched      = map[string]struct{}{}
		queueLengths = map[string]int{}
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		journey, err := lockJourney(tx, in.JourneyID)
		if err != nil {
			return err
		}
		hospitalID = journey.HospitalID

		checkpoints, err := loadCheckpoints(tx, journey.ID)
		if err != nil {
			return err
		}
		idx := -1
		for i := range checkpoints {
			if checkpoints[i].ID == in.CheckpointID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperrors.NewNotFoundError("checkpoint not found in this journey")
		}
		cp := &checkpoints[idx]
		from := cp.Status
		// Re-submitting the current status changes nothing, even after the
		// journey has finished.
		if from == to {
			updated = *cp
			return nil
		}
		if journey.Status != models.JourneyActive {
			return apperrors.NewConflictError(fmt.Sprintf("journey is %s", journey.Status))
		}

		changed, err = applyTransition(cp, to, now, in.ActualServiceMinutes)
		if err != nil {
			return err
		}
		if in.Notes != nil {
			cp.Notes = *in.Notes
		}
		if changed {
			touched[cp.DepartmentID] = struct{}{}
		}

		// A checkpoint entering the queue by hand takes its slot here.
		if !from.Active() && to.Active() {
			queue, err := takeSlot(tx, cp.DepartmentID)
			if err != nil {
				return err
			}
			if to == models.CheckpointInQueue {
				cp.QueuePosition = intPtr(queue)
				cp.EstimatedWaitMinutes = (queue - 1) * cp.Department.ServiceMinutes()
			}
		}
		if err := saveCheckpoint(tx, cp); err != nil {
			return err
		}
		updated = *cp

		if to.Resolved() {
			if err := s.cascade(tx, journey, checkpoints, idx, from, now, touched); err != nil {
				return err
			}
		}

		journey.ProgressPercent = ProgressPercent(checkpoints)
		journey.CurrentCheckpointID = nil
		if current := CurrentCheckpoint(checkpoints); current != nil {
			journey.CurrentCheckpointID = &current.ID
		}
		completed = journey.Status == models.JourneyCompleted
		if err := saveJourney(tx, journey); err != nil {
			return err
		}

		for deptID := range touched {
			queue, err := queueLength(tx, deptID)
			if err != nil {
				return err
			}
			queueLengths[deptID] = queue
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, in.JourneyID)
	if changed {
		s.recordTransition(updated, to, completed, hospitalID, queueLengths)
		observability.LoggerFromContext(ctx).Info().
			Str("journey_id", in.JourneyID).
			Str("checkpoint_id", updated.ID).
			Str("status", string(to)).
			Bool("journey_completed", completed).
			Msg("checkpoint transitioned")
	}

	view, err := s.buildView(ctx, in.JourneyID)
	if err != nil {
		return nil, err
	}
	for _, cp := range view.Checkpoints {
		if cp.ID == updated.ID {
			updated = cp
			break
		}
	}
	return &TransitionResult{Checkpoint: updated, Journey: view}, nil
}

// cascade runs after checkpoints[idx] became completed or skipped. It mutates
// checkpoints and journey in place; the caller persists the journey.
func (s *Service) cascade(tx *gorm.DB, journey *models.Journey, checkpoints []models.Checkpoint, idx int, from models.CheckpointStatus, now time.Time, touched map[string]struct{}) error {
	resolved := &checkpoints[idx]

	// Skipping straight from pending never took a slot.
	if from.Active() {
		if err := releaseSlot(tx, resolved.DepartmentID); err != nil {
			return err
		}
		touched[resolved.DepartmentID] = struct{}{}
	}

	if next := nextUnresolved(checkpoints, resolved.Sequence); next >= 0 && checkpoints[next].Status == models.CheckpointPending {
		cp := &checkpoints[next]
		queue, err := takeSlot(tx, cp.DepartmentID)
		if err != nil {
			return err
		}
		cp.Status = models.CheckpointInQueue
		cp.ArrivedAt = timePtr(now)
		cp.QueuePosition = intPtr(queue)
		cp.EstimatedWaitMinutes = (queue - 1) * cp.Department.ServiceMinutes()
		if err := saveCheckpoint(tx, cp); err != nil {
			return err
		}
		touched[cp.DepartmentID] = struct{}{}
	}

	if AllResolved(checkpoints) {
		journey.Status = models.JourneyCompleted
		journey.CompletedAt = timePtr(now)
		if journey.StartedAt != nil {
			journey.ActualTotalMinutes = intPtr(minutesBetween(*journey.StartedAt, now))
		}
	}
	return nil
}

func (s *Service) recordTransition(cp models.Checkpoint, to models.CheckpointStatus, completed bool, hospitalID string, queues map[string]int) {
	if s.metrics == nil {
		return
	}
	s.metrics.CheckpointTransitions.WithLabelValues(string(to)).Inc()
	if to == models.CheckpointInProgress && cp.ActualWaitMinutes != nil {
		s.metrics.ActualWaitMinutes.WithLabelValues(cp.DepartmentID).Observe(float64(*cp.ActualWaitMinutes))
	}
	if completed {
		s.metrics.JourneysCompleted.WithLabelValues(hospitalID).Inc()
	}
	s.recordQueues(queues)
}

// recordQueues mirrors committed department counters into the queue gauge.
func (s *Service) recordQueues(queues map[string]int) {
	if s.metrics == nil {
		return
	}
	for deptID, queue := range queues {
		s.metrics.DepartmentQueue.WithLabelValues(deptID).Set(float64(queue))
	}
}

// UpdateJourneyStatus changes the journey status. Active and paused may swap
// freely; completed requires every checkpoint resolved; cancelling releases
// the slots still held. Completed and cancelled journeys are final.
func (s *Service) UpdateJourneyStatus(ctx context.Context, id, status string) (view *View, err error) {
	ctx, span := observability.Tracer().Start(ctx, "journey.UpdateJourneyStatus",
		trace.WithAttributes(attribute.String("journey.id", id), attribute.String("journey.status", status)))
	defer func() { endSpan(span, err) }()

	to := models.JourneyStatus(status)
	if !to.Valid() {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("invalid journey status %q", status))
	}

	now := s.now()
	var changed bool
	queueLengths := map[string]int{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		journey, err := lockJourney(tx, id)
		if err != nil {
			return err
		}
		if journey.Status == to {
			return nil
		}
		if journey.Status.Terminal() {
			return apperrors.NewConflictError(fmt.Sprintf("journey is already %s", journey.Status))
		}

		checkpoints, err := loadCheckpoints(tx, journey.ID)
		if err != nil {
			return err
		}

		switch to {
		case models.JourneyCompleted:
			if !AllResolved(checkpoints) {
				return apperrors.NewConflictError("journey still has unresolved checkpoints")
			}
			journey.CompletedAt = timePtr(now)
			journey.ProgressPercent = 100
			if journey.StartedAt != nil {
				journey.ActualTotalMinutes = intPtr(minutesBetween(*journey.StartedAt, now))
			}
		case models.JourneyCancelled:
			for _, cp := range checkpoints {
				if cp.Status.Active() {
					if err := releaseSlot(tx, cp.DepartmentID); err != nil {
						return err
					}
					queueLengths[cp.DepartmentID] = 0
				}
			}
			for deptID := range queueLengths {
				queue, err := queueLength(tx, deptID)
				if err != nil {
					return err
				}
				queueLengths[deptID] = queue
			}
		}

		journey.Status = to
		changed = true
		return saveJourney(tx, journey)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	s.recordQueues(queueLengths)
	if changed {
		observability.LoggerFromContext(ctx).Info().
			Str("journey_id", id).
			Str("status", status).
			Msg("journey status updated")
	}
	return s.buildView(ctx, id)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

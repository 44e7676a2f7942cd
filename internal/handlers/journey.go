package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"hospital-journey-server/internal/journey"
	"hospital-journey-server/internal/middleware"
	"hospital-journey-server/internal/models"
	"hospital-journey-server/internal/utils"
)

// JourneyService is the journey engine as seen by the HTTP layer.
type JourneyService interface {
	StartJourney(ctx context.Context, in journey.StartJourneyInput) (*journey.View, error)
	GetJourney(ctx context.Context, id string) (*journey.View, error)
	ListJourneys(ctx context.Context, patientID, status string) ([]models.Journey, error)
	TransitionCheckpoint(ctx context.Context, in journey.TransitionInput) (*journey.TransitionResult, error)
	UpdateJourneyStatus(ctx context.Context, id, status string) (*journey.View, error)
	CreateShare(ctx context.Context, journeyID, createdBy string) (*journey.ShareCode, error)
	VerifyShare(ctx context.Context, journeyID, code string) error
	PollInterval() time.Duration
}

// JourneyHandler handles journey related requests.
type JourneyHandler struct {
	Service JourneyService
}

// NewJourneyHandler creates a new JourneyHandler.
func NewJourneyHandler(service JourneyService) *JourneyHandler {
	return &JourneyHandler{Service: service}
}

// StartJourneyRequest represents the request body for starting a journey.
type StartJourneyRequest struct {
	HospitalID     string   `json:"hospitalId" validate:"required"`
	PatientID      string   `json:"patientId"` // Only honoured for staff starting a journey on a patient's behalf
	VisitType      string   `json:"visitType" validate:"omitempty,max=50"`
	ChiefComplaint string   `json:"chiefComplaint"`
	DepartmentIDs  []string `json:"departmentIds" validate:"dive,required"`
}

// CheckpointTransitionRequest represents the request body for moving a checkpoint.
type CheckpointTransitionRequest struct {
	CheckpointID         string  `json:"checkpointId" validate:"required"`
	Status               string  `json:"status" validate:"required"`
	Notes                *string `json:"notes"`
	ActualServiceMinutes *int    `json:"actualServiceMinutes" validate:"omitempty,gte=0"`
}

// UpdateJourneyStatusRequest represents the request body for changing a journey's status.
type UpdateJourneyStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// StartJourney handles creating a new journey.
func (h *JourneyHandler) StartJourney(c *gin.Context) {
	var req StartJourneyRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	patientID := userID
	if req.PatientID != "" && req.PatientID != userID {
		if !role.IsStaff() {
			utils.Forbidden(c, "Patients can only start journeys for themselves.")
			return
		}
		patientID = req.PatientID
	}

	view, err := h.Service.StartJourney(c.Request.Context(), journey.StartJourneyInput{
		PatientID:      patientID,
		HospitalID:     req.HospitalID,
		VisitType:      req.VisitType,
		ChiefComplaint: req.ChiefComplaint,
		DepartmentIDs:  req.DepartmentIDs,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.setPollHeaders(c)
	utils.Created(c, "Journey started successfully", view)
}

// GetJourney returns a journey with its checkpoints and progress. Callers
// either authenticate as the owner or staff, or present a share code.
func (h *JourneyHandler) GetJourney(c *gin.Context) {
	view, err := h.Service.GetJourney(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if code, ok := c.GetQuery("share"); ok {
		if err := h.Service.VerifyShare(c.Request.Context(), view.ID, code); err != nil {
			utils.RespondError(c, err)
			return
		}
	} else if !h.authorize(c, view) {
		return
	}

	h.setPollHeaders(c)
	utils.Success(c, "Journey retrieved successfully", view)
}

// ListJourneys returns the caller's journeys. Staff may list another
// patient's journeys with ?patientId=.
func (h *JourneyHandler) ListJourneys(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	patientID := userID
	if requested := c.Query("patientId"); requested != "" && requested != userID {
		if !role.IsStaff() {
			utils.Forbidden(c, "You can only list your own journeys.")
			return
		}
		patientID = requested
	}

	journeys, err := h.Service.ListJourneys(c.Request.Context(), patientID, c.Query("status"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Journeys retrieved successfully", journeys)
}

// TransitionCheckpoint moves one checkpoint and runs the queue cascade.
func (h *JourneyHandler) TransitionCheckpoint(c *gin.Context) {
	var req CheckpointTransitionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	// Checkpoints move department counters, so patients cannot move their own.
	if role, _ := middleware.GetUserRoleFromContext(c); !role.IsStaff() {
		utils.Forbidden(c, "Only hospital staff can update checkpoints.")
		return
	}

	result, err := h.Service.TransitionCheckpoint(c.Request.Context(), journey.TransitionInput{
		JourneyID:            c.Param("id"),
		CheckpointID:         req.CheckpointID,
		Status:               req.Status,
		Notes:                req.Notes,
		ActualServiceMinutes: req.ActualServiceMinutes,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, fmt.Sprintf("Checkpoint moved to %s", result.Checkpoint.Status), result)
}

// UpdateJourneyStatus handles pausing, resuming, completing and cancelling a journey.
func (h *JourneyHandler) UpdateJourneyStatus(c *gin.Context) {
	var req UpdateJourneyStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if !h.authorizeByID(c) {
		return
	}

	view, err := h.Service.UpdateJourneyStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Journey status updated successfully", view)
}

// CreateShare issues a share code for read-only access to a journey.
func (h *JourneyHandler) CreateShare(c *gin.Context) {
	if !h.authorizeByID(c) {
		return
	}
	userID, _ := middleware.GetUserIDFromContext(c)

	share, err := h.Service.CreateShare(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Share code created successfully", share)
}

func (h *JourneyHandler) authorizeByID(c *gin.Context) bool {
	view, err := h.Service.GetJourney(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return false
	}
	return h.authorize(c, view)
}

// authorize admits the journey's patient and staff roles.
func (h *JourneyHandler) authorize(c *gin.Context, view *journey.View) bool {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return false
	}
	role, _ := middleware.GetUserRoleFromContext(c)
	if view.PatientID != userID && !role.IsStaff() {
		utils.Forbidden(c, "You do not have access to this journey.")
		return false
	}
	return true
}

// setPollHeaders tells clients and proxies how long the view stays fresh.
func (h *JourneyHandler) setPollHeaders(c *gin.Context) {
	seconds := int(h.Service.PollInterval() / time.Second)
	c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", seconds))
}

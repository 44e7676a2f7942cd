package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"hospital-journey-server/internal/journey"
	"hospital-journey-server/internal/models"
	"hospital-journey-server/internal/utils"
)

// HospitalRegistry manages hospitals and departments.
type HospitalRegistry interface {
	CreateHospital(ctx context.Context, in journey.HospitalInput) (*models.Hospital, error)
	CreateDepartment(ctx context.Context, hospitalID string, in journey.DepartmentInput) (*models.Department, error)
	ListDepartments(ctx context.Context, hospitalID string) ([]journey.DepartmentLoad, error)
}

// HospitalHandler handles hospital and department requests.
type HospitalHandler struct {
	Registry HospitalRegistry
}

// NewHospitalHandler creates a new HospitalHandler.
func NewHospitalHandler(registry HospitalRegistry) *HospitalHandler {
	return &HospitalHandler{Registry: registry}
}

// CreateHospitalRequest represents the request body for registering a hospital.
type CreateHospitalRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Code     string `json:"code" validate:"required,uppercase,alphanum,min=2,max=16"`
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

// CreateDepartmentRequest represents the request body for adding a department.
type CreateDepartmentRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Type           string `json:"type" validate:"required,oneof=registration consultation diagnostic pharmacy billing"`
	Floor          int    `json:"floor"`
	Wing           string `json:"wing" validate:"max=50"`
	AvgServiceTime int    `json:"avgServiceTime" validate:"required,gt=0"`
	MaxCapacity    int    `json:"maxCapacity" validate:"required,gt=0"`
}

// CreateHospital handles registering a hospital. Admin only.
func (h *HospitalHandler) CreateHospital(c *gin.Context) {
	var req CreateHospitalRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	hospital, err := h.Registry.CreateHospital(c.Request.Context(), journey.HospitalInput{
		Name:     req.Name,
		Code:     req.Code,
		Timezone: req.Timezone,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Hospital created successfully", hospital)
}

// CreateDepartment handles adding a department to a hospital. Admin only.
func (h *HospitalHandler) CreateDepartment(c *gin.Context) {
	var req CreateDepartmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	dept, err := h.Registry.CreateDepartment(c.Request.Context(), c.Param("id"), journey.DepartmentInput{
		Name:           req.Name,
		Type:           req.Type,
		Floor:          req.Floor,
		Wing:           req.Wing,
		AvgServiceTime: req.AvgServiceTime,
		MaxCapacity:    req.MaxCapacity,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Department created successfully", dept)
}

// ListDepartments returns a hospital's departments with their current load.
func (h *HospitalHandler) ListDepartments(c *gin.Context) {
	loads, err := h.Registry.ListDepartments(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Departments retrieved successfully", loads)
}

package journey

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"hospital-journey-server/internal/apperrors"
	"hospital-journey-server/internal/models"
)

var hospitalCodePattern = regexp.MustCompile(`^[A-Z0-9]{2,16}$`)

// Registry manages hospitals and their departments.
type Registry struct {
	db *gorm.DB
}

// NewRegistry creates a registry on db.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// HospitalInput describes a hospital to register.
type HospitalInput struct {
	Name     string
	Code     string
	Timezone string
}

// CreateHospital registers a hospital. Codes are unique.
func (r *Registry) CreateHospital(ctx context.Context, in HospitalInput) (*models.Hospital, error) {
	if in.Name == "" {
		return nil, apperrors.NewInvalidInputError("name is required")
	}
	if !hospitalCodePattern.MatchString(in.Code) {
		return nil, apperrors.NewInvalidInputError("code must be 2-16 uppercase letters or digits")
	}
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown timezone %q", in.Timezone))
		}
	}

	hospital := models.Hospital{Name: in.Name, Code: in.Code, Timezone: in.Timezone}
	if err := r.db.WithContext(ctx).Create(&hospital).Error; err != nil {
		return nil, apperrors.FromStore(err, "")
	}
	return &hospital, nil
}

// DepartmentInput describes a department to register.
type DepartmentInput struct {
	Name           string
	Type           string
	Floor          int
	Wing           string
	AvgServiceTime int
	MaxCapacity    int
}

// CreateDepartment adds a department to a hospital with an empty queue.
func (r *Registry) CreateDepartment(ctx context.Context, hospitalID string, in DepartmentInput) (*models.Department, error) {
	if in.Name == "" {
		return nil, apperrors.NewInvalidInputError("name is required")
	}
	if !models.DepartmentType(in.Type).Valid() {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("invalid department type %q", in.Type))
	}
	if in.AvgServiceTime <= 0 {
		return nil, apperrors.NewInvalidInputError("avgServiceTime must be positive")
	}
	if in.MaxCapacity <= 0 {
		return nil, apperrors.NewInvalidInputError("maxCapacity must be positive")
	}

	db := r.db.WithContext(ctx)
	var hospital models.Hospital
	if err := db.Select("id").First(&hospital, "id = ?", hospitalID).Error; err != nil {
		return nil, apperrors.FromStore(err, "hospital not found")
	}

	dept := models.Department{
		HospitalID:     hospitalID,
		Name:           in.Name,
		Type:           models.DepartmentType(in.Type),
		Floor:          in.Floor,
		Wing:           in.Wing,
		AvgServiceTime: in.AvgServiceTime,
		MaxCapacity:    in.MaxCapacity,
	}
	if err := db.Create(&dept).Error; err != nil {
		return nil, apperrors.FromStore(err, "")
	}
	return &dept, nil
}

// DepartmentLoad is a department with its queue load.
type DepartmentLoad struct {
	models.Department
	HospitalCode string  `json:"hospitalCode"`
	Utilization  float64 `json:"utilization"`
	AtCapacity   bool    `json:"atCapacity"`
}

// ListDepartments returns departments with their load, ordered by hospital,
// floor and name. An empty hospitalID lists every hospital.
func (r *Registry) ListDepartments(ctx context.Context, hospitalID string) ([]DepartmentLoad, error) {
	db := r.db.WithContext(ctx)

	hospitals := []models.Hospital{}
	query := db.Order("code ASC")
	if hospitalID != "" {
		query = query.Where("id = ?", hospitalID)
	}
	if err := query.Find(&hospitals).Error; err != nil {
		return nil, apperrors.FromStore(err, "")
	}
	if hospitalID != "" && len(hospitals) == 0 {
		return nil, apperrors.NewNotFoundError("hospital not found")
	}

	loads := []DepartmentLoad{}
	for _, h := range hospitals {
		var departments []models.Department
		err := db.Where("hospital_id = ?", h.ID).Order("floor ASC, name ASC").Find(&departments).Error
		if err != nil {
			return nil, apperrors.FromStore(err, "")
		}
		for _, d := range departments {
			load := DepartmentLoad{Department: d, HospitalCode: h.Code, AtCapacity: d.AtCapacity()}
			if d.MaxCapacity > 0 {
				load.Utilization = float64(d.CurrentQueue) / float64(d.MaxCapacity)
			}
			loads = append(loads, load)
		}
	}
	return loads, nil
}

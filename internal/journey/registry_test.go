package journey

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-journey-server/internal/apperrors"
)

func TestCreateHospital_Validation(t *testing.T) {
	registry := NewRegistry(newTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name  string
		input HospitalInput
	}{
		{"missing name", HospitalInput{Code: "CGH"}},
		{"lowercase code", HospitalInput{Name: "City", Code: "cgh"}},
		{"code too long", HospitalInput{Name: "City", Code: "ABCDEFGHIJKLMNOPQ"}},
		{"unknown timezone", HospitalInput{Name: "City", Code: "CGH", Timezone: "Mars/Olympus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.CreateHospital(ctx, tt.input)
			assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput), "got %v", err)
		})
	}

	_, err := registry.CreateHospital(ctx, HospitalInput{Name: "City", Code: "CGH", Timezone: "Asia/Kolkata"})
	require.NoError(t, err)
	_, err = registry.CreateHospital(ctx, HospitalInput{Name: "City Two", Code: "CGH"})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConflict), "got %v", err)
}

func TestCreateDepartment_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   DepartmentInput
		errType apperrors.ErrorType
	}{
		{"missing name", DepartmentInput{Type: "billing", AvgServiceTime: 5, MaxCapacity: 2}, apperrors.ErrorTypeInvalidInput},
		{"unknown type", DepartmentInput{Name: "X-Ray", Type: "radiology", AvgServiceTime: 5, MaxCapacity: 2}, apperrors.ErrorTypeInvalidInput},
		{"zero service time", DepartmentInput{Name: "X-Ray", Type: "diagnostic", MaxCapacity: 2}, apperrors.ErrorTypeInvalidInput},
		{"zero capacity", DepartmentInput{Name: "X-Ray", Type: "diagnostic", AvgServiceTime: 5}, apperrors.ErrorTypeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.registry.CreateDepartment(ctx, f.hospital.ID, tt.input)
			assert.True(t, apperrors.Is(err, tt.errType), "got %v", err)
		})
	}

	_, err := f.registry.CreateDepartment(ctx, uuid.NewString(), DepartmentInput{
		Name: "X-Ray", Type: "diagnostic", AvgServiceTime: 5, MaxCapacity: 2,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
}

func TestListDepartments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	small, err := f.registry.CreateDepartment(ctx, f.hospital.ID, DepartmentInput{
		Name: "Billing", Type: "billing", Floor: 0, AvgServiceTime: 5, MaxCapacity: 1,
	})
	require.NoError(t, err)

	f.start(t, "patient-1", small, f.reg)
	f.start(t, "patient-2", f.reg)

	loads, err := f.registry.ListDepartments(ctx, f.hospital.ID)
	require.NoError(t, err)
	require.Len(t, loads, 4)

	// Ground floor first, then by name.
	assert.Equal(t, "Billing", loads[0].Name)
	assert.Equal(t, 1, loads[0].CurrentQueue)
	assert.True(t, loads[0].AtCapacity)
	assert.Equal(t, 1.0, loads[0].Utilization)
	assert.Equal(t, "CGH", loads[0].HospitalCode)

	byName := map[string]DepartmentLoad{}
	for _, l := range loads {
		byName[l.Name] = l
	}
	assert.Equal(t, 1, byName["Registration"].CurrentQueue)
	assert.False(t, byName["Registration"].AtCapacity)
	assert.InDelta(t, 0.1, byName["Registration"].Utilization, 1e-9)

	all, err := f.registry.ListDepartments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = f.registry.ListDepartments(ctx, uuid.NewString())
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
}

package models

// Role enum, carried in access tokens issued by the identity service
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RoleStaff   Role = "staff"
	RolePatient Role = "patient"
)

// IsStaff reports whether the role works on hospital journeys on behalf of patients.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleDoctor || r == RoleStaff
}

package models

import "time"

// StaffRole enumerates the roles a staff account can hold.
type StaffRole string

const (
	RoleSuperAdmin      StaffRole = "super_admin"
	RoleStudentCouncil  StaffRole = "student_council"
	RoleGuidanceOffice  StaffRole = "guidance_office"
	RoleAcademicAffairs StaffRole = "academic_affairs"
)

// RetiredStaffRoles are role identifiers used by earlier deployments whose
// log entries are eligible for the deprecated-entry cleanup.
var RetiredStaffRoles = []string{"admin", "moderator", "viewer"}

// StaffRoles lists the roles currently accepted in the staff table.
func StaffRoles() []StaffRole {
	return []StaffRole{RoleSuperAdmin, RoleStudentCouncil, RoleGuidanceOffice, RoleAcademicAffairs}
}

// IsValid reports whether the role belongs to the current enumeration.
func (r StaffRole) IsValid() bool {
	for _, candidate := range StaffRoles() {
		if r == candidate {
			return true
		}
	}
	return false
}

// StaffIdentity is the configuration-resident identity bound to a shared secret.
type StaffIdentity struct {
	Role  StaffRole `json:"role"`
	Label string    `json:"label"`
	Color string    `json:"color"`
}

// PresenceRecord tracks a staff member currently active on the dashboard.
type PresenceRecord struct {
	Role       StaffRole `json:"role"`
	Label      string    `json:"label"`
	Color      string    `json:"color"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	LoginAt    time.Time `json:"loginAt"`
}

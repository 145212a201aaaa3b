package models

// Role is the enumerated authorization level carried in token claims.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleTeacher Role = "teacher"
	RoleUser    Role = "user"
)

// AllValidRoles is the whitelist of roles accepted on account creation and update.
var AllValidRoles = map[Role]bool{
	RoleAdmin:   true,
	RoleManager: true,
	RoleTeacher: true,
	RoleUser:    true,
}

// IsValidRole checks if a role exists in the whitelist.
func IsValidRole(role Role) bool {
	return AllValidRoles[role]
}

// CanManageAccounts reports whether a role may create, update, delete or
// unlock accounts. Admin only.
func (r Role) CanManageAccounts() bool {
	return r == RoleAdmin
}

// CanManageRoster reports whether a role may write students, teachers,
// courses and schedules.
func (r Role) CanManageRoster() bool {
	return r == RoleAdmin || r == RoleManager
}

// CanViewLockStatus reports whether a role may query another account's
// lock state.
func (r Role) CanViewLockStatus() bool {
	return r == RoleAdmin || r == RoleManager
}

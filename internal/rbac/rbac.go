package rbac

import "github.com/campus-assoc/backend/internal/models"

// Permission constants
const (
	PermManageMembers  = "manage_members"
	PermManageRoles    = "manage_roles"
	PermManageEvents   = "manage_events"
	PermManageSongs    = "manage_songs"
	PermTakeAttendance = "take_attendance"
	PermManageFinance  = "manage_finance"
	PermPublishReports = "publish_reports"
	PermReadAudit      = "read_audit"
	PermViewEvents     = "view_events"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	models.RoleAdmin: {
		PermManageMembers, PermManageRoles, PermManageEvents, PermManageSongs,
		PermTakeAttendance, PermManageFinance, PermPublishReports, PermReadAudit,
		PermViewEvents,
	},
	models.RoleBoard: {
		PermManageEvents, PermManageSongs, PermTakeAttendance, PermPublishReports,
		PermViewEvents,
	},
	models.RoleTreasurer: {
		PermManageFinance, PermViewEvents,
		// Treasurer cannot publish reports on their own
	},
	models.RoleMember: {
		PermViewEvents,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// AnyHasPermission checks the union of several roles.
func AnyHasPermission(roles []string, permission string) bool {
	for _, r := range roles {
		if HasPermission(r, permission) {
			return true
		}
	}
	return false
}

// IsFinancialOperation reports permissions whose changes are always critical.
func IsFinancialOperation(permission string) bool {
	return permission == PermManageFinance || permission == PermPublishReports
}

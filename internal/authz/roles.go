// Package authz holds the admin role hierarchy shared by every gated endpoint.
package authz

import "strings"

// Level is the rank of an admin role. Higher levels include lower ones.
type Level int

// Role names as stored on admins.role.
const (
	RoleSuperAdmin          = "super_admin"
	RoleContentManager      = "content_manager"
	RoleEditor              = "editor"
	RoleRegistrationManager = "registration_manager"
	RoleModerator           = "moderator"
	RoleOther               = "other"
)

const (
	LevelNone                Level = 0
	LevelModerator           Level = 1
	LevelRegistrationManager Level = 2
	LevelEditor              Level = 3
	LevelContentManager      Level = 4
	LevelSuperAdmin          Level = 5
)

var roleLevels = map[string]Level{
	RoleSuperAdmin:          LevelSuperAdmin,
	RoleContentManager:      LevelContentManager,
	RoleEditor:              LevelEditor,
	RoleRegistrationManager: LevelRegistrationManager,
	RoleModerator:           LevelModerator,
	RoleOther:               LevelNone,
}

// LevelOf returns the level for a role name. Unknown roles rank as LevelNone.
func LevelOf(role string) Level {
	return roleLevels[strings.ToLower(strings.TrimSpace(role))]
}

// Allows reports whether role meets the minimum level.
// A minimum of LevelNone admits any admin, including unknown roles.
func Allows(role string, minimum Level) bool {
	return LevelOf(role) >= minimum
}

// IsKnownRole reports whether role is in the table.
func IsKnownRole(role string) bool {
	_, ok := roleLevels[strings.ToLower(strings.TrimSpace(role))]
	return ok
}

func (l Level) String() string {
	for name, lvl := range roleLevels {
		if lvl == l && name != RoleOther {
			return name
		}
	}
	return "any admin"
}

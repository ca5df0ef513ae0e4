package entity

// Identity is the acting user (or automated agent) a command runs as.
type Identity struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

// HasPermission reports whether the identity carries the named permission.
func (i Identity) HasPermission(permission string) bool {
	for _, p := range i.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CanValidateLevel is the authorization predicate for approval levels.
// Level 1 requires general finance validation rights; level 2 is reserved
// for the highest administrative role.
func (i Identity) CanValidateLevel(level int) bool {
	switch level {
	case 1:
		return i.Role == RoleSuperadmin || i.HasPermission(PermissionFinanceValidate)
	case 2:
		return i.Role == RoleSuperadmin
	}
	return false
}

// System is the identity recorded on automatic transitions.
func System() Identity {
	return Identity{ID: SystemActorID, Name: "System", Role: RoleSuperadmin}
}

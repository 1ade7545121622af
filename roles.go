package auth

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role assigned on signup
	RoleUser UserRole = "user"
	// RoleGuide leads tours
	RoleGuide UserRole = "guide"
	// RoleLeadGuide manages tours and guides
	RoleLeadGuide UserRole = "lead-guide"
	// RoleAdmin administers the platform
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	default:
		return false
	}
}

var roleHierarchy = map[UserRole]int{
	RoleUser:      0,
	RoleGuide:     1,
	RoleLeadGuide: 2,
	RoleAdmin:     3,
}

// RoleIsAtLeast checks if a role meets the minimum required level
func RoleIsAtLeast(r, minRole UserRole) bool {
	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// RoleIn reports whether the role is a member of the permitted set.
func RoleIn(r UserRole, permitted ...UserRole) bool {
	for _, p := range permitted {
		if r == p {
			return true
		}
	}
	return false
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleGuide,
		RoleLeadGuide,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

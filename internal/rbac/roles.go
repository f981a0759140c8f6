package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOwner      = "owner"
	RoleAnalyst    = "analyst"
	RoleMember     = "member"
	RoleSuperAdmin = "super_admin"
	RoleSyncBot    = "sync_bot" // hidden role for scheduled sync triggers
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleSyncBot }

package acl

import "fmt"

// System privileges held implicitly.
const (
	Everyone      Privilege = "system:everyone"
	Authenticated Privilege = "system:authenticated"
)

// Role privileges persisted on user scopes.
const (
	RoleAdmin    Privilege = "role:admin"
	RoleManager  Privilege = "role:manager"
	RoleClient   Privilege = "role:client"
	RoleEmployee Privilege = "role:employee"
	RoleUser     Privilege = "role:user"
)

// RolePrivileges enumerates the role-level scopes that only administrators
// may grant or revoke.
var RolePrivileges = []Privilege{RoleAdmin, RoleManager, RoleClient, RoleEmployee, RoleUser}

// UserPrivilege returns the self-reference privilege for a user id.
func UserPrivilege(id fmt.Stringer) Privilege {
	return Privilege("user:" + id.String())
}

// IsRolePrivilege reports whether a privilege is one of the role scopes.
func IsRolePrivilege(p Privilege) bool {
	for _, role := range RolePrivileges {
		if p == role {
			return true
		}
	}
	return false
}

// Permissions checked by route gates and resource ACLs.
const (
	All Permission = "*"

	AccessList   Permission = "list:all"
	AccessCreate Permission = "create:all"

	AccessRead        Permission = "read:all"
	AccessReadSelf    Permission = "read:self"
	AccessReadRelated Permission = "read:related"

	AccessUpdate        Permission = "update:all"
	AccessUpdateSelf    Permission = "update:self"
	AccessUpdateRelated Permission = "update:related"

	AccessDelete        Permission = "delete:all"
	AccessDeleteSelf    Permission = "delete:self"
	AccessDeleteRelated Permission = "delete:related"
)

// Dedupe returns the privilege list with duplicates removed, first
// occurrence order preserved.
func Dedupe(privileges []Privilege) []Privilege {
	seen := make(map[Privilege]struct{}, len(privileges))
	out := make([]Privilege, 0, len(privileges))
	for _, p := range privileges {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Holds reports whether the privilege set contains the given privilege.
func Holds(privileges []Privilege, p Privilege) bool {
	for _, held := range privileges {
		if held == p {
			return true
		}
	}
	return false
}

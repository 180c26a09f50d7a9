// Package acl implements ordered access control lists with allow/deny
// precedence. A resource declares an ordered list of (action, privilege,
// permission) entries; resolution scans the list in declared order and the
// first entry whose permission matches the request and whose privilege is
// held by the caller decides the outcome. Resources without an ACL deny
// everything.
package acl

// Action states whether a matching entry grants or refuses a permission.
type Action string

const (
	Allow Action = "allow"
	Deny  Action = "deny"
)

// Privilege is an identity or role token held by a caller, namespaced by
// kind: "system:*", "role:*" or "user:<id>".
type Privilege string

// Permission names a capability being checked, grouped by CRUD verb with an
// all|self|related modifier, e.g. "read:self".
type Permission string

// Entry is one ordered ACL rule.
type Entry struct {
	Action     Action
	Privilege  Privilege
	Permission Permission
}

// Provider is implemented by any resource that declares an ACL.
type Provider interface {
	ACL() []Entry
}

// RawACL adapts a literal list of entries to the Provider interface.
type RawACL []Entry

func (r RawACL) ACL() []Entry { return r }

// DenyAll is the implicit ACL of resources that declare none.
var DenyAll = []Entry{{Action: Deny, Privilege: Everyone, Permission: All}}

// AllowAll grants every permission to everyone. Used only by resources that
// are intentionally public.
var AllowAll = []Entry{{Action: Allow, Privilege: Everyone, Permission: All}}

// NormalizeACL returns the effective ACL of a resource. A nil provider, or a
// provider returning a nil list, denies everything.
func NormalizeACL(resource Provider) []Entry {
	if resource == nil {
		return DenyAll
	}
	entries := resource.ACL()
	if entries == nil {
		return DenyAll
	}
	return entries
}

// HasPermission reports whether a caller holding the given privileges is
// granted the requested permission on the resource. The ACL is scanned in
// declared order and the first matching entry wins; no match denies.
func HasPermission(privileges []Privilege, requested Permission, resource Provider) bool {
	held := make(map[Privilege]struct{}, len(privileges))
	for _, p := range privileges {
		held[p] = struct{}{}
	}
	for _, entry := range NormalizeACL(resource) {
		if !permissionMatches(entry.Permission, requested) {
			continue
		}
		if _, ok := held[entry.Privilege]; !ok {
			continue
		}
		return entry.Action == Allow
	}
	return false
}

// ListPermissions evaluates every permission mentioned in the resource's ACL
// independently. Each key is resolved with a full HasPermission pass so the
// per-permission tie-break is identical to a direct check; ACLs are small
// enough that the repeated scan does not matter.
func ListPermissions(privileges []Privilege, resource Provider) map[Permission]bool {
	result := make(map[Permission]bool)
	for _, entry := range NormalizeACL(resource) {
		if _, ok := result[entry.Permission]; ok {
			continue
		}
		result[entry.Permission] = HasPermission(privileges, entry.Permission, resource)
	}
	return result
}

// permissionMatches reports whether an ACL entry's permission covers the
// requested one. The wildcard matches everything, which is what makes the
// deny-all default total.
func permissionMatches(entry, requested Permission) bool {
	return entry == All || entry == requested
}

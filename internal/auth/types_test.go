package auth

import (
	"testing"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
)

func TestUserPrivileges(t *testing.T) {
	user := &User{
		ID:     uuid.New(),
		Scopes: []acl.Privilege{acl.RoleClient, acl.RoleClient, "feature:beta"},
	}
	got := user.Privileges()
	if got[0] != acl.UserPrivilege(user.ID) {
		t.Fatalf("self privilege must come first, got %v", got)
	}
	if len(got) != 3 {
		t.Fatalf("duplicate scopes must collapse, got %v", got)
	}
}

func TestCurrentUserPrivileges(t *testing.T) {
	user := &User{ID: uuid.New(), Scopes: []acl.Privilege{acl.RoleManager}}
	got := CurrentUserPrivileges(user)

	for _, want := range []acl.Privilege{acl.Everyone, acl.Authenticated, acl.UserPrivilege(user.ID), acl.RoleManager} {
		if !acl.Holds(got, want) {
			t.Fatalf("missing %s in %v", want, got)
		}
	}
	if len(got) != 4 {
		t.Fatalf("unexpected privilege set: %v", got)
	}
}

func TestUserACLSelfAccess(t *testing.T) {
	user := &User{ID: uuid.New()}
	privileges := CurrentUserPrivileges(user)

	if !acl.HasPermission(privileges, acl.AccessReadSelf, user) {
		t.Fatalf("user must read their own record")
	}
	if !acl.HasPermission(privileges, acl.AccessUpdateSelf, user) {
		t.Fatalf("user must update their own record")
	}
	if acl.HasPermission(privileges, acl.AccessRead, user) {
		t.Fatalf("plain user must not hold read:all")
	}

	stranger := &User{ID: uuid.New()}
	if acl.HasPermission(CurrentUserPrivileges(stranger), acl.AccessReadSelf, user) {
		t.Fatalf("another user must not read this record")
	}
}

func TestOrganizationACLRoles(t *testing.T) {
	org := &Organization{ID: uuid.New()}

	manager := CurrentUserPrivileges(&User{ID: uuid.New(), Scopes: []acl.Privilege{acl.RoleManager}})
	if !acl.HasPermission(manager, acl.AccessUpdate, org) {
		t.Fatalf("manager must update organizations")
	}
	if acl.HasPermission(manager, acl.AccessDelete, org) {
		t.Fatalf("only admin may delete organizations")
	}

	client := CurrentUserPrivileges(&User{ID: uuid.New(), Scopes: []acl.Privilege{acl.RoleClient}})
	if !acl.HasPermission(client, acl.AccessReadSelf, org) {
		t.Fatalf("client must read own organizations")
	}
	if acl.HasPermission(client, acl.AccessRead, org) {
		t.Fatalf("client must not hold read:all on organizations")
	}
}

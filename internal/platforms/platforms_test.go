package platforms

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trailmark.org/internal/acl"
)

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind(KindGA4))
	assert.True(t, ValidKind(KindGSC))
	assert.True(t, ValidKind(KindGAds))
	assert.False(t, ValidKind(Kind("facebook")))
	assert.False(t, ValidKind(Kind("")))
}

func TestPlatformACLReadSplit(t *testing.T) {
	p := &Platform{}
	manager := []acl.Privilege{acl.RoleManager}
	user := []acl.Privilege{acl.RoleUser}

	assert.True(t, acl.HasPermission(manager, acl.AccessRead, p))
	assert.False(t, acl.HasPermission(user, acl.AccessRead, p))
	assert.True(t, acl.HasPermission(user, acl.AccessReadRelated, p))
	assert.True(t, acl.HasPermission(user, acl.AccessList, p))
}

func TestPlatformACLDeleteIsManagerOnly(t *testing.T) {
	p := &Platform{}

	assert.True(t, acl.HasPermission([]acl.Privilege{acl.RoleAdmin}, acl.AccessDelete, p))
	assert.True(t, acl.HasPermission([]acl.Privilege{acl.RoleManager}, acl.AccessDelete, p))
	assert.False(t, acl.HasPermission([]acl.Privilege{acl.RoleUser}, acl.AccessDelete, p))
}

func TestPropertyACL(t *testing.T) {
	prop := &Property{}
	user := []acl.Privilege{acl.RoleUser}

	assert.True(t, acl.HasPermission(user, acl.AccessList, prop))
	assert.True(t, acl.HasPermission(user, acl.AccessReadRelated, prop))
	assert.False(t, acl.HasPermission(user, acl.AccessCreate, prop))
	assert.False(t, acl.HasPermission(user, acl.AccessUpdate, prop))
}

package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"trailmark.org/internal/auth"
)

type relationshipVerifier struct {
	db *sql.DB
}

// resourceOrgsSubquery yields the organization ids a resource of the given
// kind belongs to. The placeholder %d is the positional argument index of
// the resource id. Adding a resource kind means adding one row here.
var resourceOrgsSubquery = map[string]string{
	"user":         `select organization_id from user_organizations where user_id = $%d`,
	"organization": ``, // direct comparison, no subquery
	"platform":     `select organization_id from organization_platforms where platform_id = $%d`,
	"website":      `select organization_id from organization_websites where website_id = $%d`,
}

// VerifyRelationship counts membership rows proving the current user shares
// an organization with the requested resource. Every supplied id adds its
// own condition; conditions AND together on the same base query. The caller
// treats any positive count as reachable.
func (v *relationshipVerifier) VerifyRelationship(ctx context.Context, currentUserID uuid.UUID, q auth.RelationshipQuery) (int, error) {
	if q.IsZero() {
		return 0, nil
	}

	args := []any{currentUserID}
	conds := []string{
		`uo.organization_id in (select organization_id from user_organizations where user_id = $1)`,
	}

	addPath := func(kind string, id *uuid.UUID) {
		if id == nil {
			return
		}
		args = append(args, *id)
		sub := resourceOrgsSubquery[kind]
		if sub == "" {
			conds = append(conds, fmt.Sprintf(`uo.organization_id = $%d`, len(args)))
			return
		}
		conds = append(conds, fmt.Sprintf(`uo.organization_id in (`+sub+`)`, len(args)))
	}
	addPath("user", q.UserID)
	addPath("organization", q.OrganizationID)
	addPath("platform", q.PlatformID)
	addPath("website", q.WebsiteID)

	query := `
		select count(*)
		from users u
		join user_organizations uo on uo.user_id = u.id
		where ` + strings.Join(conds, "\n		and ")

	var count int
	if err := v.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

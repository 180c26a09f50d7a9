package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"trailmark.org/internal/auth"
	"trailmark.org/internal/pagination"
)

type organizationStore struct {
	db *sql.DB
}

const organizationColumns = `id, name, slug, description, is_active, created_at, updated_at`

func scanOrganization(row interface{ Scan(...any) error }) (*auth.Organization, error) {
	var (
		o    auth.Organization
		desc sql.NullString
	)
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &desc, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		o.Description = desc.String
	}
	return &o, nil
}

func (s *organizationStore) Create(ctx context.Context, o *auth.Organization) error {
	_, err := s.db.ExecContext(ctx, `
		insert into organizations (id, name, slug, description, is_active)
		values ($1, $2, $3, $4, $5)
	`, o.ID, o.Name, o.Slug, nullIfEmpty(o.Description), o.IsActive)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

func (s *organizationStore) Find(ctx context.Context, id uuid.UUID) (*auth.Organization, error) {
	row := s.db.QueryRowContext(ctx, `select `+organizationColumns+` from organizations where id = $1`, id)
	return scanOrganization(row)
}

func (s *organizationStore) FindBySlug(ctx context.Context, slug string) (*auth.Organization, error) {
	row := s.db.QueryRowContext(ctx, `select `+organizationColumns+` from organizations where slug = $1`, slug)
	return scanOrganization(row)
}

func (s *organizationStore) List(ctx context.Context, params pagination.PageParams) ([]*auth.Organization, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from organizations`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+organizationColumns+` from organizations
		order by name, id
		limit $1 offset $2
	`, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orgs []*auth.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, 0, err
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orgs, total, nil
}

func (s *organizationStore) Update(ctx context.Context, id uuid.UUID, upd auth.OrganizationUpdate) (*auth.Organization, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Slug != nil {
		sets = append(sets, fmt.Sprintf("slug = $%d", idx))
		args = append(args, *upd.Slug)
		idx++
	}
	if upd.Description != nil {
		if *upd.Description == "" {
			sets = append(sets, "description = NULL")
		} else {
			sets = append(sets, fmt.Sprintf("description = $%d", idx))
			args = append(args, *upd.Description)
			idx++
		}
	}
	if upd.IsActive != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *upd.IsActive)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update organizations set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
				return nil, auth.ErrConflict
			}
			return nil, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, auth.ErrNotFound
		}
	}
	return s.Find(ctx, id)
}

func (s *organizationStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from organizations where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

type membershipStore struct {
	db *sql.DB
}

func (s *membershipStore) Add(ctx context.Context, userID, organizationID uuid.UUID) (auth.Membership, error) {
	var m auth.Membership
	err := s.db.QueryRowContext(ctx, `
		insert into user_organizations (user_id, organization_id)
		values ($1, $2)
		returning user_id, organization_id, created_at
	`, userID, organizationID).Scan(&m.UserID, &m.OrganizationID, &m.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return auth.Membership{}, auth.ErrConflict
			case pgErrForeignKeyViolation:
				return auth.Membership{}, auth.ErrNotFound
			}
		}
		return auth.Membership{}, err
	}
	return m, nil
}

func (s *membershipStore) Remove(ctx context.Context, userID, organizationID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		delete from user_organizations
		where user_id = $1 and organization_id = $2
	`, userID, organizationID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *membershipStore) OrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		select organization_id from user_organizations
		where user_id = $1
		order by organization_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

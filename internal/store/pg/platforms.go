package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"trailmark.org/internal/pagination"
	"trailmark.org/internal/platforms"
)

// PlatformStore implements platforms.Store on PostgreSQL.
type PlatformStore struct {
	db *sql.DB
}

var _ platforms.Store = (*PlatformStore)(nil)

const platformColumns = `id, kind, display_name, is_active, created_at, updated_at`

func scanPlatform(row interface{ Scan(...any) error }) (*platforms.Platform, error) {
	var p platforms.Platform
	err := row.Scan(&p.ID, &p.Kind, &p.DisplayName, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, platforms.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PlatformStore) Create(ctx context.Context, p *platforms.Platform) error {
	if !platforms.ValidKind(p.Kind) {
		return platforms.ErrUnknownKind
	}
	_, err := s.db.ExecContext(ctx, `
		insert into platforms (id, kind, display_name, is_active)
		values ($1, $2, $3, $4)
	`, p.ID, p.Kind, p.DisplayName, p.IsActive)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return platforms.ErrExists
		}
		return err
	}
	return nil
}

func (s *PlatformStore) Find(ctx context.Context, id uuid.UUID) (*platforms.Platform, error) {
	row := s.db.QueryRowContext(ctx, `select `+platformColumns+` from platforms where id = $1`, id)
	return scanPlatform(row)
}

func (s *PlatformStore) List(ctx context.Context, kind *platforms.Kind, params pagination.PageParams) ([]*platforms.Platform, int, error) {
	where := ""
	countArgs := []any{}
	if kind != nil {
		where = " where kind = $1"
		countArgs = append(countArgs, *kind)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from platforms`+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append([]any{}, countArgs...)
	query := fmt.Sprintf(`select %s from platforms%s order by display_name, id limit $%d offset $%d`,
		platformColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit(), params.Offset())
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*platforms.Platform
	for rows.Next() {
		p, err := scanPlatform(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (s *PlatformStore) Update(ctx context.Context, id uuid.UUID, upd platforms.PlatformUpdate) (*platforms.Platform, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.DisplayName != nil {
		sets = append(sets, fmt.Sprintf("display_name = $%d", idx))
		args = append(args, *upd.DisplayName)
		idx++
	}
	if upd.IsActive != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *upd.IsActive)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update platforms set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, platforms.ErrNotFound
		}
	}
	return s.Find(ctx, id)
}

func (s *PlatformStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from platforms where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return platforms.ErrNotFound
	}
	return nil
}

func (s *PlatformStore) CreateProperty(ctx context.Context, p *platforms.Property) error {
	_, err := s.db.ExecContext(ctx, `
		insert into platform_properties (id, platform_id, property_id, website_id, is_active)
		values ($1, $2, $3, $4, $5)
	`, p.ID, p.PlatformID, p.PropertyID, p.WebsiteID, p.IsActive)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return platforms.ErrExists
			case pgErrForeignKeyViolation:
				return platforms.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *PlatformStore) ListProperties(ctx context.Context, platformID uuid.UUID) ([]*platforms.Property, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, platform_id, property_id, website_id, is_active, created_at, updated_at
		from platform_properties
		where platform_id = $1
		order by property_id
	`, platformID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var props []*platforms.Property
	for rows.Next() {
		var (
			p    platforms.Property
			wsID uuid.NullUUID
		)
		if err := rows.Scan(&p.ID, &p.PlatformID, &p.PropertyID, &wsID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if wsID.Valid {
			p.WebsiteID = &wsID.UUID
		}
		props = append(props, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return props, nil
}

func (s *PlatformStore) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from platform_properties where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return platforms.ErrNotFound
	}
	return nil
}

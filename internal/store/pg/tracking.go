package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"trailmark.org/internal/pagination"
	"trailmark.org/internal/tracking"
)

// TrackingLinkStore implements tracking.Store on PostgreSQL.
type TrackingLinkStore struct {
	db *sql.DB
}

var _ tracking.Store = (*TrackingLinkStore)(nil)

const trackingColumns = `id, url_hash, url, scheme, domain, destination, url_path,
	utm_campaign, utm_medium, utm_source, utm_content, utm_term,
	is_active, organization_id, created_at, updated_at`

func scanTrackingLink(row interface{ Scan(...any) error }) (*tracking.TrackingLink, error) {
	var (
		l     tracking.TrackingLink
		orgID uuid.NullUUID
	)
	err := row.Scan(&l.ID, &l.URLHash, &l.URL, &l.Scheme, &l.Domain, &l.Destination, &l.URLPath,
		&l.UTMCampaign, &l.UTMMedium, &l.UTMSource, &l.UTMContent, &l.UTMTerm,
		&l.IsActive, &orgID, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tracking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if orgID.Valid {
		l.OrganizationID = &orgID.UUID
	}
	return &l, nil
}

func (s *TrackingLinkStore) Create(ctx context.Context, link *tracking.TrackingLink) error {
	_, err := s.db.ExecContext(ctx, `
		insert into tracking_links
			(id, url_hash, url, scheme, domain, destination, url_path,
			 utm_campaign, utm_medium, utm_source, utm_content, utm_term,
			 is_active, organization_id)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, link.ID, link.URLHash, link.URL, link.Scheme, link.Domain, link.Destination, link.URLPath,
		link.UTMCampaign, link.UTMMedium, link.UTMSource, link.UTMContent, link.UTMTerm,
		link.IsActive, link.OrganizationID)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return tracking.ErrExists
			case pgErrForeignKeyViolation:
				return tracking.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *TrackingLinkStore) Find(ctx context.Context, id uuid.UUID) (*tracking.TrackingLink, error) {
	row := s.db.QueryRowContext(ctx, `select `+trackingColumns+` from tracking_links where id = $1`, id)
	return scanTrackingLink(row)
}

func (s *TrackingLinkStore) FindByHash(ctx context.Context, urlHash string) (*tracking.TrackingLink, error) {
	row := s.db.QueryRowContext(ctx, `select `+trackingColumns+` from tracking_links where url_hash = $1`, urlHash)
	return scanTrackingLink(row)
}

// filterClauses builds the where conditions of a listing. The user filter
// restricts links to organizations the user is a member of.
func filterClauses(filter tracking.ListFilter) ([]string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.OrganizationID != nil {
		add(`organization_id = $%d`, *filter.OrganizationID)
	}
	if filter.UserID != nil {
		add(`organization_id in (select organization_id from user_organizations where user_id = $%d)`, *filter.UserID)
	}
	if filter.Scheme != nil {
		add(`scheme = $%d`, *filter.Scheme)
	}
	if filter.Domain != nil {
		add(`domain = $%d`, *filter.Domain)
	}
	if filter.IsActive != nil {
		add(`is_active = $%d`, *filter.IsActive)
	}
	return conds, args
}

func (s *TrackingLinkStore) List(ctx context.Context, filter tracking.ListFilter, params pagination.PageParams) ([]*tracking.TrackingLink, int, error) {
	conds, args := filterClauses(filter)
	where := ""
	if len(conds) > 0 {
		where = " where " + strings.Join(conds, " and ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from tracking_links`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`select %s from tracking_links%s order by created_at, id limit $%d offset $%d`,
		trackingColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit(), params.Offset())
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var links []*tracking.TrackingLink
	for rows.Next() {
		l, err := scanTrackingLink(rows)
		if err != nil {
			return nil, 0, err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

func (s *TrackingLinkStore) Update(ctx context.Context, link *tracking.TrackingLink) error {
	res, err := s.db.ExecContext(ctx, `
		update tracking_links set
			url_hash = $1, url = $2, scheme = $3, domain = $4, destination = $5, url_path = $6,
			utm_campaign = $7, utm_medium = $8, utm_source = $9, utm_content = $10, utm_term = $11,
			is_active = $12, organization_id = $13, updated_at = now()
		where id = $14
	`, link.URLHash, link.URL, link.Scheme, link.Domain, link.Destination, link.URLPath,
		link.UTMCampaign, link.UTMMedium, link.UTMSource, link.UTMContent, link.UTMTerm,
		link.IsActive, link.OrganizationID, link.ID)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return tracking.ErrExists
		}
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return tracking.ErrNotFound
	}
	return nil
}

func (s *TrackingLinkStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from tracking_links where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return tracking.ErrNotFound
	}
	return nil
}

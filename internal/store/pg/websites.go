package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"trailmark.org/internal/pagination"
	"trailmark.org/internal/websites"
)

// WebsiteStore implements websites.Store on PostgreSQL.
type WebsiteStore struct {
	db *sql.DB
}

var _ websites.Store = (*WebsiteStore)(nil)

const websiteColumns = `id, domain, is_secure, is_active, created_at, updated_at`

func scanWebsite(row interface{ Scan(...any) error }) (*websites.Website, error) {
	var w websites.Website
	err := row.Scan(&w.ID, &w.Domain, &w.IsSecure, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, websites.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *WebsiteStore) Create(ctx context.Context, w *websites.Website) error {
	_, err := s.db.ExecContext(ctx, `
		insert into websites (id, domain, is_secure, is_active)
		values ($1, $2, $3, $4)
	`, w.ID, w.Domain, w.IsSecure, w.IsActive)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return websites.ErrExists
		}
		return err
	}
	return nil
}

func (s *WebsiteStore) Find(ctx context.Context, id uuid.UUID) (*websites.Website, error) {
	row := s.db.QueryRowContext(ctx, `select `+websiteColumns+` from websites where id = $1`, id)
	return scanWebsite(row)
}

func (s *WebsiteStore) FindByDomain(ctx context.Context, domain string) (*websites.Website, error) {
	row := s.db.QueryRowContext(ctx, `select `+websiteColumns+` from websites where domain = $1`, domain)
	return scanWebsite(row)
}

func (s *WebsiteStore) List(ctx context.Context, params pagination.PageParams) ([]*websites.Website, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from websites`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+websiteColumns+` from websites
		order by domain
		limit $1 offset $2
	`, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sites []*websites.Website
	for rows.Next() {
		w, err := scanWebsite(rows)
		if err != nil {
			return nil, 0, err
		}
		sites = append(sites, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return sites, total, nil
}

func (s *WebsiteStore) Update(ctx context.Context, id uuid.UUID, upd websites.WebsiteUpdate) (*websites.Website, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Domain != nil {
		sets = append(sets, fmt.Sprintf("domain = $%d", idx))
		args = append(args, *upd.Domain)
		idx++
	}
	if upd.IsSecure != nil {
		sets = append(sets, fmt.Sprintf("is_secure = $%d", idx))
		args = append(args, *upd.IsSecure)
		idx++
	}
	if upd.IsActive != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *upd.IsActive)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update websites set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
				return nil, websites.ErrExists
			}
			return nil, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, websites.ErrNotFound
		}
	}
	return s.Find(ctx, id)
}

func (s *WebsiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from websites where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return websites.ErrNotFound
	}
	return nil
}

const pageColumns = `id, website_id, url, status, priority, last_modified, change_frequency, is_active, created_at, updated_at`

func scanPage(row interface{ Scan(...any) error }) (*websites.WebsitePage, error) {
	var p websites.WebsitePage
	err := row.Scan(&p.ID, &p.WebsiteID, &p.URL, &p.Status, &p.Priority,
		&p.LastModified, &p.ChangeFrequency, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, websites.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *WebsiteStore) CreatePage(ctx context.Context, p *websites.WebsitePage) error {
	_, err := s.db.ExecContext(ctx, `
		insert into website_pages (id, website_id, url, status, priority, last_modified, change_frequency, is_active)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.WebsiteID, p.URL, p.Status, p.Priority, p.LastModified, p.ChangeFrequency, p.IsActive)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return websites.ErrExists
			case pgErrForeignKeyViolation:
				return websites.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *WebsiteStore) FindPage(ctx context.Context, id uuid.UUID) (*websites.WebsitePage, error) {
	row := s.db.QueryRowContext(ctx, `select `+pageColumns+` from website_pages where id = $1`, id)
	return scanPage(row)
}

func (s *WebsiteStore) ListPages(ctx context.Context, websiteID uuid.UUID, params pagination.PageParams) ([]*websites.WebsitePage, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from website_pages where website_id = $1`, websiteID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+pageColumns+` from website_pages
		where website_id = $1
		order by url
		limit $2 offset $3
	`, websiteID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var pages []*websites.WebsitePage
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, 0, err
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return pages, total, nil
}

func (s *WebsiteStore) UpdatePage(ctx context.Context, id uuid.UUID, upd websites.PageUpdate) (*websites.WebsitePage, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	set := func(col string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, value)
		idx++
	}
	if upd.URL != nil {
		set("url", *upd.URL)
	}
	if upd.Status != nil {
		set("status", *upd.Status)
	}
	if upd.Priority != nil {
		set("priority", *upd.Priority)
	}
	if upd.LastModified != nil {
		set("last_modified", *upd.LastModified)
	}
	if upd.ChangeFrequency != nil {
		set("change_frequency", *upd.ChangeFrequency)
	}
	if upd.IsActive != nil {
		set("is_active", *upd.IsActive)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update website_pages set %s where id = $%d`, strings.Join(sets, ", "), idx)
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
			return nil, websites.ErrNotFound
		}
	}
	return s.FindPage(ctx, id)
}

func (s *WebsiteStore) DeletePage(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from website_pages where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return websites.ErrNotFound
	}
	return nil
}

func (s *WebsiteStore) CreateSitemap(ctx context.Context, m *websites.WebsiteSitemap) error {
	_, err := s.db.ExecContext(ctx, `
		insert into website_sitemaps (id, website_id, url, is_active)
		values ($1, $2, $3, $4)
	`, m.ID, m.WebsiteID, m.URL, m.IsActive)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return websites.ErrExists
			case pgErrForeignKeyViolation:
				return websites.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *WebsiteStore) ListSitemaps(ctx context.Context, websiteID uuid.UUID) ([]*websites.WebsiteSitemap, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, website_id, url, is_active, created_at, updated_at
		from website_sitemaps
		where website_id = $1
		order by url
	`, websiteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var maps []*websites.WebsiteSitemap
	for rows.Next() {
		var m websites.WebsiteSitemap
		if err := rows.Scan(&m.ID, &m.WebsiteID, &m.URL, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		maps = append(maps, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return maps, nil
}

func (s *WebsiteStore) DeleteSitemap(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from website_sitemaps where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return websites.ErrNotFound
	}
	return nil
}

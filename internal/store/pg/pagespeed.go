package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"trailmark.org/internal/pagespeed"
	"trailmark.org/internal/pagination"
)

// PageSpeedStore implements pagespeed.Store on PostgreSQL.
type PageSpeedStore struct {
	db *sql.DB
}

var _ pagespeed.Store = (*PageSpeedStore)(nil)

const runColumns = `id, website_id, page_id, strategy, score, grade_data, created_at`

func scanRun(row interface{ Scan(...any) error }) (*pagespeed.Run, error) {
	var r pagespeed.Run
	err := row.Scan(&r.ID, &r.WebsiteID, &r.PageID, &r.Strategy, &r.Score, &r.GradeData, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pagespeed.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PageSpeedStore) Create(ctx context.Context, run *pagespeed.Run) error {
	_, err := s.db.ExecContext(ctx, `
		insert into pagespeed_runs (id, website_id, page_id, strategy, score, grade_data)
		values ($1, $2, $3, $4, $5, $6)
	`, run.ID, run.WebsiteID, run.PageID, run.Strategy, run.Score, []byte(run.GradeData))
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return pagespeed.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *PageSpeedStore) Find(ctx context.Context, id uuid.UUID) (*pagespeed.Run, error) {
	row := s.db.QueryRowContext(ctx, `select `+runColumns+` from pagespeed_runs where id = $1`, id)
	return scanRun(row)
}

func (s *PageSpeedStore) ListForPage(ctx context.Context, pageID uuid.UUID, params pagination.PageParams) ([]*pagespeed.Run, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from pagespeed_runs where page_id = $1`, pageID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+runColumns+` from pagespeed_runs
		where page_id = $1
		order by created_at desc
		limit $2 offset $3
	`, pageID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []*pagespeed.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (s *PageSpeedStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from pagespeed_runs where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return pagespeed.ErrNotFound
	}
	return nil
}

package pagespeed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/pagination"
)

// Run is one stored PSI analysis of a website page.
type Run struct {
	ID        uuid.UUID       `json:"id"`
	WebsiteID uuid.UUID       `json:"website_id"`
	PageID    uuid.UUID       `json:"page_id"`
	Strategy  Strategy        `json:"strategy"`
	Score     float64         `json:"score"`
	GradeData json.RawMessage `json:"grade_data"`
	CreatedAt time.Time       `json:"created_at"`
}

func (r *Run) ACL() []acl.Entry {
	return []acl.Entry{
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessDelete},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessDelete},
	}
}

// Store persists PSI runs.
type Store interface {
	Create(ctx context.Context, run *Run) error
	Find(ctx context.Context, id uuid.UUID) (*Run, error)
	ListForPage(ctx context.Context, pageID uuid.UUID, params pagination.PageParams) ([]*Run, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Fetcher abstracts the PSI client for tests.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string, strategy Strategy) (*Report, error)
}

// Service runs analyses and stores the results.
type Service struct {
	store   Store
	fetcher Fetcher
	now     func() time.Time
}

// NewService constructs Service over the run store and a PSI fetcher.
func NewService(store Store, fetcher Fetcher) *Service {
	return &Service{store: store, fetcher: fetcher, now: time.Now}
}

// Analyze fetches a fresh PSI report for the page URL and persists it as a
// run linked to the page.
func (s *Service) Analyze(ctx context.Context, websiteID, pageID uuid.UUID, pageURL string, strategy Strategy) (*Run, error) {
	report, err := s.fetcher.Fetch(ctx, pageURL, strategy)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	run := &Run{
		ID:        uuid.New(),
		WebsiteID: websiteID,
		PageID:    pageID,
		Strategy:  strategy,
		Score:     report.Score,
		GradeData: data,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

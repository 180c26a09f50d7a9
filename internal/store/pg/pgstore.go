// Package pg implements the persistence layer on PostgreSQL through
// database/sql with the pgx driver.
package pg

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"trailmark.org/internal/auth"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

type Store struct {
	db *sql.DB
}

var _ auth.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection (used by tests with sqlmock).
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users() auth.UserStore { return &userStore{db: s.db} }

func (s *Store) Organizations() auth.OrganizationStore { return &organizationStore{db: s.db} }

func (s *Store) Memberships() auth.MembershipStore { return &membershipStore{db: s.db} }

func (s *Store) Relationships() auth.RelationshipVerifier { return &relationshipVerifier{db: s.db} }

// TrackingLinks returns the tracking link repository.
func (s *Store) TrackingLinks() *TrackingLinkStore { return &TrackingLinkStore{db: s.db} }

// Websites returns the website repository.
func (s *Store) Websites() *WebsiteStore { return &WebsiteStore{db: s.db} }

// Platforms returns the platform repository.
func (s *Store) Platforms() *PlatformStore { return &PlatformStore{db: s.db} }

// PageSpeedRuns returns the pagespeed run repository.
func (s *Store) PageSpeedRuns() *PageSpeedStore { return &PageSpeedStore{db: s.db} }

// --- helpers ---

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Package store persists what the site learns about its visitors and its
// contact form, without keeping anything that identifies a person: IP and
// email addresses are salted and hashed, message bodies are never written.
package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Outcome classifies a contact form submission.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomeInvalid Outcome = "invalid"
)

var (
	ErrInvalidOutcome = errors.New("invalid submission outcome")
	ErrInvalidLimit   = errors.New("limit must be positive")
)

type Visitor struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type Submission struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	HashedEmail string    `json:"hashed_email"`
	Outcome     Outcome   `json:"outcome"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Stats struct {
	TotalVisitors     int64             `json:"total_visitors"`
	UniqueVisitors    int64             `json:"unique_visitors"`
	VisitorsToday     int64             `json:"visitors_today"`
	VisitorsThisWeek  int64             `json:"visitors_this_week"`
	TotalSubmissions  int64             `json:"total_submissions"`
	Submissions       map[Outcome]int64 `json:"submissions"`
	RecentVisitors    []Visitor         `json:"recent_visitors"`
	RecentSubmissions []Submission      `json:"recent_submissions"`
}

// Store wraps a SQLite database.
type Store struct {
	db   *sql.DB
	now  func() time.Time
	salt string
}

type Option func(*Store)

// WithSalt fixes the hashing salt. Without it a random salt is generated
// per process, so hashes are only comparable within one run.
func WithSalt(salt string) Option {
	return func(s *Store) {
		if salt != "" {
			s.salt = salt
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (or creates) the SQLite database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases from splitting per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s, err := New(ctx, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already open database and applies the schema.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.salt == "" {
		salt, err := randomSalt()
		if err != nil {
			return nil, err
		}
		s.salt = salt
	}

	if err := CreateSchema(ctx, db); err != nil {
		return nil, err
	}
	return s, nil
}

func randomSalt() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// HashIP returns a salted, truncated SHA-256 of an IP address. The same IP
// always hashes to the same value for a given salt.
func (s *Store) HashIP(ip string) string {
	return s.hash(ip)
}

// HashEmail hashes a normalized (trimmed, lower-cased) email address.
func (s *Store) HashEmail(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return ""
	}
	return s.hash(addr)
}

func (s *Store) hash(v string) string {
	sum := sha256.Sum256([]byte(v + s.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// RecordVisit stores one page view.
func (s *Store) RecordVisit(ctx context.Context, ip, userAgent, path string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, visited_at)
		VALUES (?, ?, ?, ?)
	`, s.HashIP(ip), userAgent, path, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record visit: %w", err)
	}
	return nil
}

// RecordSubmission stores the outcome of a contact form submission. ID and
// CreatedAt are filled in when empty.
func (s *Store) RecordSubmission(ctx context.Context, sub Submission) (Submission, error) {
	switch sub.Outcome {
	case OutcomeSuccess, OutcomeError, OutcomeInvalid:
	default:
		return Submission{}, fmt.Errorf("%w: %q", ErrInvalidOutcome, sub.Outcome)
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	sub.CreatedAt = sub.CreatedAt.UTC().Truncate(time.Millisecond)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, subject, hashed_email, outcome, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.Subject, sub.HashedEmail, string(sub.Outcome), sub.Detail, sub.CreatedAt.UnixMilli())
	if err != nil {
		return Submission{}, fmt.Errorf("failed to record submission: %w", err)
	}
	return sub, nil
}

// RecentVisitors returns the newest visits first.
func (s *Store) RecentVisitors(ctx context.Context, limit int) ([]Visitor, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, user_agent, path, visited_at
		FROM visitors
		ORDER BY visited_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query visitors: %w", err)
	}
	defer rows.Close()

	var visitors []Visitor
	for rows.Next() {
		var (
			v  Visitor
			ms int64
		)
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan visitor: %w", err)
		}
		v.Timestamp = time.UnixMilli(ms).UTC()
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

// RecentSubmissions returns the newest submissions first.
func (s *Store) RecentSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject, hashed_email, outcome, detail, created_at
		FROM submissions
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var (
			sub     Submission
			outcome string
			ms      int64
		)
		if err := rows.Scan(&sub.ID, &sub.Subject, &sub.HashedEmail, &outcome, &sub.Detail, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		sub.Outcome = Outcome(outcome)
		sub.CreatedAt = time.UnixMilli(ms).UTC()
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Stats gathers the numbers shown on the admin dashboard.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := &Stats{Submissions: make(map[Outcome]int64)}

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE visited_at >= ?`, []any{startOfDay.UnixMilli()}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE visited_at >= ?`, []any{weekAgo.UnixMilli()}},
		{&stats.TotalSubmissions, `SELECT COUNT(*) FROM submissions`, nil},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("failed to load stats: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM submissions GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			outcome string
			n       int64
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to load stats: %w", err)
		}
		stats.Submissions[Outcome(outcome)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	rows.Close()

	if stats.RecentVisitors, err = s.RecentVisitors(ctx, 50); err != nil {
		return nil, err
	}
	if stats.RecentSubmissions, err = s.RecentSubmissions(ctx, 20); err != nil {
		return nil, err
	}
	return stats, nil
}

// Cleanup deletes visits older than the retention window and returns how
// many rows were removed.
func (s *Store) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention).UnixMilli()
	result, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE visited_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up visitors: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to clean up visitors: %w", err)
	}
	return n, nil
}

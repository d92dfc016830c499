package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"cps-console/internal/expiry"
	"cps-console/internal/store"
)

//go:embed schema.sql
var schema string

var _ store.Backend = (*Backend)(nil)

// Tables lists every table Schema creates, parents first.
var Tables = []string{
	"project_categories",
	"projects",
	"sub_projects",
	"content_types",
	"uploaded_images",
	"contents",
	"text_commands",
	"audit_events",
}

// Backend serves every store backend interface from the database. Derived
// values such as expiry status and project counters are computed on read.
type Backend struct {
	db   *DB
	now  func() time.Time
	calc expiry.Calculator
}

type Option func(*Backend)

func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithThresholds sets the day counts expiry statuses are derived with.
func WithThresholds(t expiry.Thresholds) Option {
	return func(b *Backend) { b.calc = expiry.NewCalculator(t) }
}

// NewBackend creates a new backend over db.
func NewBackend(db *DB, opts ...Option) *Backend {
	b := &Backend{db: db, now: time.Now, calc: expiry.Default}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Schema returns the DDL that creates every table the backend uses. It is
// idempotent.
func Schema() string {
	return schema
}

// Migrate applies the schema.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// TableExists reports whether name exists in the public schema.
func (db *DB) TableExists(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	)`
	var exists bool
	if err := db.Pool.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return exists, nil
}

func nullableDate(date string) any {
	if date == "" {
		return nil
	}
	return date
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

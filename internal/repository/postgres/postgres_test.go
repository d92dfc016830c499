package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cps-console/internal/domain/content"
	"cps-console/internal/domain/docentry"
	"cps-console/internal/domain/image"
	"cps-console/internal/domain/project"
	"cps-console/internal/domain/subproject"
	"cps-console/internal/expiry"
	apperrors "cps-console/pkg/errors"
)

const envTestDatabaseURL = "CPS_TEST_DATABASE_URL"

func TestProjectFilter(t *testing.T) {
	cat := int64(3)

	tests := []struct {
		name      string
		filter    project.ListProjectsFilter
		wantWhere string
		wantArgs  []any
	}{
		{"active only", project.ListProjectsFilter{}, "WHERE p.is_active", nil},
		{
			"keyword",
			project.ListProjectsFilter{Keyword: "  618_大促 "},
			"WHERE p.is_active AND (p.name ILIKE $1 OR p.description ILIKE $1)",
			[]any{`%618\_大促%`},
		},
		{
			"keyword and category",
			project.ListProjectsFilter{Keyword: "a", CategoryID: &cat},
			"WHERE p.is_active AND (p.name ILIKE $1 OR p.description ILIKE $1) AND p.category_id = $2",
			[]any{"%a%", int64(3)},
		},
		{"category", project.ListProjectsFilter{CategoryID: &cat}, "WHERE p.is_active AND p.category_id = $1", []any{int64(3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := projectFilter(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestProjectPage(t *testing.T) {
	tests := []struct {
		name       string
		filter     project.ListProjectsFilter
		total      int
		wantLimit  int
		wantOffset int
		wantOK     bool
	}{
		{"unpaged", project.ListProjectsFilter{}, 50, 0, 0, false},
		{"default limit", project.ListProjectsFilter{Page: 2}, 50, 20, 20, true},
		{"clamped page", project.ListProjectsFilter{Page: 9, Limit: 10}, 25, 10, 20, true},
		{"clamped limit", project.ListProjectsFilter{Limit: 500}, 10, 100, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset, ok := projectPage(tt.filter, tt.total)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestEscapeLikePattern(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLikePattern("100%"))
	assert.Equal(t, `a\_b`, escapeLikePattern("a_b"))
	assert.Equal(t, `c:\\d`, escapeLikePattern(`c:\d`))
}

func TestErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation})
	foreign := &pgconn.PgError{Code: pgForeignKeyViolation}

	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isUniqueViolation(foreign))
	assert.True(t, isForeignKeyViolation(foreign))

	assert.True(t, apperrors.IsCanceled(wrap(context.Canceled, errFailedListProjects)))
	assert.ErrorContains(t, wrap(assert.AnError, errFailedListProjects), "failed to list projects")
}

func TestContentExpiryDate(t *testing.T) {
	now := time.Date(2025, time.June, 10, 23, 0, 0, 0, time.UTC)
	days := 3

	assert.Equal(t, "", contentExpiryDate(content.SaveContentInput{}, now))
	assert.Equal(t, expiry.DateAfter(3, now), contentExpiryDate(content.SaveContentInput{ExpiryDays: &days}, now))
	assert.Nil(t, nullableDate(""))
	assert.Equal(t, "2025-06-13", nullableDate("2025-06-13"))
}

func TestSchemaCoversTables(t *testing.T) {
	for _, table := range Tables {
		assert.Contains(t, Schema(), "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}

// newTestBackend connects to the database named by CPS_TEST_DATABASE_URL and
// resets the schema. Tests using it are skipped when the variable is unset.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	dsn := os.Getenv(envTestDatabaseURL)
	if dsn == "" {
		t.Skipf("%s not set", envTestDatabaseURL)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS audit_events, text_commands, contents, uploaded_images, content_types, sub_projects, projects, project_categories CASCADE`)
	require.NoError(t, err)

	db := &DB{Pool: pool}
	require.NoError(t, db.Migrate(ctx))
	for _, table := range Tables {
		exists, err := db.TableExists(ctx, table)
		require.NoError(t, err)
		require.True(t, exists, table)
	}

	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	return NewBackend(db, WithClock(func() time.Time { return now }))
}

func TestBackendLifecycle(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	types, err := b.ListContentTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 6)
	assert.ErrorIs(t, b.DeleteContentType(ctx, 1), apperrors.ErrSystemTypeProtect)

	cat, err := b.CreateCategory(ctx, project.CreateCategoryInput{Name: "电商平台", SortOrder: 1})
	require.NoError(t, err)
	assert.True(t, cat.IsActive)

	p, err := b.CreateProject(ctx, project.CreateProjectInput{Name: " 618 ", CategoryID: &cat.ID})
	require.NoError(t, err)
	assert.Equal(t, "618", p.Name)
	require.NotNil(t, p.Category)
	assert.Equal(t, "电商平台", p.Category.Name)

	missing := int64(404)
	_, err = b.CreateProject(ctx, project.CreateProjectInput{Name: "x", CategoryID: &missing})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	first, err := b.CreateSubProject(ctx, subproject.CreateSubProjectInput{ProjectID: p.ID, Name: "数码", DocumentationEnabled: true})
	require.NoError(t, err)
	second, err := b.CreateSubProject(ctx, subproject.CreateSubProjectInput{ProjectID: p.ID, Name: "居家"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.SortOrder)
	assert.Equal(t, 2, second.SortOrder)

	ordered, err := b.ReorderSubProjects(ctx, subproject.OrderFromIDs([]int64{second.ID, first.ID}))
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, second.ID, ordered[0].ID)

	_, err = b.ReorderSubProjects(ctx, []subproject.SortOrderItem{{ID: 999, SortOrder: 1}})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	days := 2
	c, err := b.CreateContent(ctx, content.SaveContentInput{SubProjectID: first.ID, ContentTypeID: 3, ContentValue: "口令", ExpiryDays: &days})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-12", c.ExpiryDate)
	assert.Equal(t, expiry.StatusDanger, c.ExpiryStatus)
	assert.True(t, c.ShowInDocumentation)

	cmd, err := b.CreateTextCommand(ctx, content.SaveTextCommandInput{SubProjectID: first.ID, CommandText: " 复制口令 ", ExpiryDays: 30})
	require.NoError(t, err)
	assert.Equal(t, "复制口令", cmd.CommandText)
	assert.Equal(t, "2025-07-10", cmd.ExpiryDate)

	projects, total, err := b.ListProjects(ctx, project.ListProjectsFilter{Keyword: "618"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, projects, 1)
	assert.Equal(t, 2, projects[0].SubProjectCount)
	assert.Equal(t, 1, projects[0].DocumentationCount)

	require.NoError(t, b.GenerateDocumentation(ctx, docentry.GenerateInput{SubProjectIDs: []int64{first.ID}}))
	assert.ErrorIs(t, b.GenerateDocumentation(ctx, docentry.GenerateInput{SubProjectIDs: []int64{second.ID}}), apperrors.ErrBadRequest)

	listing, err := b.ListDocumentation(ctx, docentry.Filters{ProjectID: &p.ID})
	require.NoError(t, err)
	require.Len(t, listing.Entries, 1)
	assert.Equal(t, "口令", listing.Entries[0].Snapshot["团口令"])
	assert.Equal(t, "复制口令", listing.Entries[0].Snapshot["文字口令"])
	require.NotNil(t, listing.LastSyncedAt)

	img, err := b.SaveUploadedImage(ctx, image.SaveInput{Key: "k1", MD5: "abc", Links: image.Links{URL: "https://img/k1.png"}})
	require.NoError(t, err)
	dup, err := b.SaveUploadedImage(ctx, image.SaveInput{Key: "k2", MD5: "abc"})
	require.NoError(t, err)
	assert.Equal(t, img.ID, dup.ID)
	assert.Equal(t, "https://img/k1.png", dup.Links.URL)
	byKey, err := b.SaveUploadedImage(ctx, image.SaveInput{Key: "k1"})
	require.NoError(t, err)
	assert.Equal(t, img.ID, byKey.ID)
	replaced, err := b.SaveUploadedImage(ctx, image.SaveInput{Key: "k1", MD5: "def", Links: image.Links{URL: "https://img/k1-v2.png"}})
	require.NoError(t, err)
	assert.Equal(t, img.ID, replaced.ID)
	assert.Equal(t, "def", replaced.MD5)
	images, err := b.ListUploadedImages(ctx)
	require.NoError(t, err)
	assert.Len(t, images, 1)

	require.NoError(t, b.BulkDeleteTextCommands(ctx, content.BulkDeleteTextCommandsInput{IDs: []int64{cmd.ID, 999}}))
	require.NoError(t, b.DeleteProject(ctx, p.ID))
	_, err = b.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

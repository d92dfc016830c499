package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cps-console/internal/backend/memory"
	"cps-console/internal/domain/content"
	"cps-console/internal/domain/docentry"
	"cps-console/internal/domain/project"
	"cps-console/internal/domain/subproject"
	"cps-console/internal/expiry"
	"cps-console/internal/store"
	apperrors "cps-console/pkg/errors"
)

var (
	fixedNow = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	clock    = func() time.Time { return fixedNow }

	_ store.Backend = (*memory.Backend)(nil)
	_ store.Backend = (*scriptedBackend)(nil)
)

// scriptedBackend wraps the demo backend, counting calls and letting a test
// force a failure or an echoless success per method.
type scriptedBackend struct {
	*memory.Backend

	mu       sync.Mutex
	calls    map[string]int
	fail     map[string]error
	echoless map[string]bool
}

func newScripted() *scriptedBackend {
	return &scriptedBackend{
		Backend:  memory.NewDemo(memory.WithClock(clock)),
		calls:    map[string]int{},
		fail:     map[string]error{},
		echoless: map[string]bool{},
	}
}

func (b *scriptedBackend) enter(name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[name]++
	return b.echoless[name], b.fail[name]
}

func (b *scriptedBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *scriptedBackend) ListProjects(ctx context.Context, f project.ListProjectsFilter) ([]project.Project, int, error) {
	if _, err := b.enter("ListProjects"); err != nil {
		return nil, 0, err
	}
	return b.Backend.ListProjects(ctx, f)
}

func (b *scriptedBackend) CreateProject(ctx context.Context, in project.CreateProjectInput) (*project.Project, error) {
	echoless, err := b.enter("CreateProject")
	if err != nil {
		return nil, err
	}
	p, err := b.Backend.CreateProject(ctx, in)
	if echoless {
		return nil, err
	}
	return p, err
}

func (b *scriptedBackend) UpdateProject(ctx context.Context, id int64, in project.UpdateProjectInput) (*project.Project, error) {
	echoless, err := b.enter("UpdateProject")
	if err != nil {
		return nil, err
	}
	p, err := b.Backend.UpdateProject(ctx, id, in)
	if echoless {
		return nil, err
	}
	return p, err
}

func (b *scriptedBackend) DeleteContentType(ctx context.Context, id int64) error {
	if _, err := b.enter("DeleteContentType"); err != nil {
		return err
	}
	return b.Backend.DeleteContentType(ctx, id)
}

func (b *scriptedBackend) CreateContent(ctx context.Context, in content.SaveContentInput) (*content.Content, error) {
	if _, err := b.enter("CreateContent"); err != nil {
		return nil, err
	}
	return b.Backend.CreateContent(ctx, in)
}

func (b *scriptedBackend) ReorderSubProjects(ctx context.Context, items []subproject.SortOrderItem) ([]subproject.SubProject, error) {
	echoless, err := b.enter("ReorderSubProjects")
	if err != nil {
		return nil, err
	}
	subs, err := b.Backend.ReorderSubProjects(ctx, items)
	if echoless {
		return nil, err
	}
	return subs, err
}

func (b *scriptedBackend) ListDocumentation(ctx context.Context, f docentry.Filters) (docentry.Listing, error) {
	if _, err := b.enter("ListDocumentation"); err != nil {
		return docentry.Listing{}, err
	}
	return b.Backend.ListDocumentation(ctx, f)
}

func bootstrapped(t *testing.T, backend store.Backend) *store.Stores {
	t.Helper()
	s := store.New(backend, store.WithClock(clock))
	require.NoError(t, s.Bootstrap(context.Background()))
	return s
}

func TestBootstrap(t *testing.T) {
	s := bootstrapped(t, newScripted())

	assert.Len(t, s.Projects.Projects(), 2)
	assert.Len(t, s.Categories.Categories(), 2)
	assert.Len(t, s.Contents.ContentTypes(), 6)
	assert.False(t, s.Projects.Loading())
}

func TestBootstrapReportsFailure(t *testing.T) {
	b := newScripted()
	b.fail["ListProjects"] = apperrors.Transport("网络连接失败，请检查网络", 0, nil)

	err := store.New(b).Bootstrap(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTransport))
}

func TestSoftDeletedProjectsAreHidden(t *testing.T) {
	s := bootstrapped(t, newScripted())
	ctx := context.Background()

	require.NoError(t, s.Projects.Delete(ctx, 1))

	for _, p := range s.Projects.FilteredProjects() {
		assert.NotEqual(t, int64(1), p.ID)
	}
	assert.Nil(t, s.Projects.GetByID(1))
	assert.Len(t, s.Projects.Projects(), 2, "soft-deleted record is retained")
	assert.Equal(t, 1, s.Projects.Summary().Total)
}

// tombstoneBackend answers project reads with the record soft-deleted, the
// way a server that still serves deleted rows does.
type tombstoneBackend struct {
	*scriptedBackend
}

func (b tombstoneBackend) GetProject(ctx context.Context, id int64) (*project.Project, error) {
	p, err := b.Backend.GetProject(ctx, id)
	if p != nil {
		p.IsActive = false
	}
	return p, err
}

func TestFetchByIDRejectsInactiveProject(t *testing.T) {
	s := bootstrapped(t, tombstoneBackend{newScripted()})

	p, err := s.Projects.FetchByID(context.Background(), 1)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, s.Projects.Current())
	assert.Nil(t, s.Projects.GetByID(1))
	assert.Len(t, s.Projects.Projects(), 2)
	assert.Equal(t, 1, s.Projects.Summary().Total)
}

func TestSoftDeletedSubProjectsAreHidden(t *testing.T) {
	s := bootstrapped(t, newScripted())
	ctx := context.Background()

	_, err := s.SubProjects.FetchByProject(ctx, 1)
	require.NoError(t, err)
	require.Len(t, s.SubProjects.ByProject(1), 2)

	require.NoError(t, s.SubProjects.Delete(ctx, 2))

	subs := s.SubProjects.ByProject(1)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(1), subs[0].ID)
	assert.Nil(t, s.SubProjects.GetByID(2))
	assert.Equal(t, 1, s.Projects.GetByID(1).SubProjectCount, "parent re-fetched after child mutation")
}

func TestFilteredProjects(t *testing.T) {
	s := bootstrapped(t, newScripted())

	s.Projects.SetSearchQuery("抖音")
	got := s.Projects.FilteredProjects()
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)

	s.Projects.SetSearchQuery("")
	cat := int64(1)
	s.Projects.SetCategoryFilter(&cat)
	got = s.Projects.FilteredProjects()
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	s.Projects.SetCategoryFilter(nil)
	assert.Len(t, s.Projects.FilteredProjects(), 2)
}

func TestReorderAssignsContiguousOrder(t *testing.T) {
	tests := []struct {
		name     string
		echoless bool
	}{
		{"server returns ordered list", false},
		{"local reassignment", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &scriptedBackend{
				Backend:  memory.New(memory.WithClock(clock)),
				calls:    map[string]int{},
				fail:     map[string]error{},
				echoless: map[string]bool{"ReorderSubProjects": tt.echoless},
			}
			s := store.New(b, store.WithClock(clock))
			ctx := context.Background()

			p, err := s.Projects.Create(ctx, project.CreateProjectInput{Name: "双十一"})
			require.NoError(t, err)
			for _, name := range []string{"一", "二", "三"} {
				_, err := s.SubProjects.Create(ctx, subproject.CreateSubProjectInput{ProjectID: p.ID, Name: name})
				require.NoError(t, err)
			}

			got, err := s.SubProjects.Reorder(ctx, p.ID, []int64{3, 1, 2})
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, []int64{3, 1, 2}, []int64{got[0].ID, got[1].ID, got[2].ID})
			assert.Equal(t, []int{1, 2, 3}, []int{got[0].SortOrder, got[1].SortOrder, got[2].SortOrder})
		})
	}
}

func TestSystemContentTypeGuard(t *testing.T) {
	b := newScripted()
	s := bootstrapped(t, b)
	before := s.Contents.ContentTypes()

	err := s.Contents.DeleteContentType(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSystemTypeProtect))
	assert.Equal(t, "system type not deletable", err.Error())
	assert.Equal(t, 0, b.count("DeleteContentType"), "guard runs before any network call")
	assert.Equal(t, before, s.Contents.ContentTypes())
}

func TestDeleteCustomContentType(t *testing.T) {
	s := bootstrapped(t, newScripted())
	ctx := context.Background()

	created, err := s.Contents.CreateContentType(ctx, content.CreateTypeInput{Name: "优惠券", FieldType: content.FieldText})
	require.NoError(t, err)
	require.Len(t, s.Contents.ContentTypes(), 7)

	require.NoError(t, s.Contents.DeleteContentType(ctx, created.ID))
	assert.Len(t, s.Contents.ContentTypes(), 6)
	assert.Nil(t, s.Contents.GetContentType(created.ID))
}

func TestFailedUpdateLeavesStateUnchanged(t *testing.T) {
	b := newScripted()
	s := bootstrapped(t, b)
	before := s.Projects.Projects()

	b.fail["UpdateProject"] = apperrors.Business("项目名称已存在", 400)
	name := "新名称"
	_, err := s.Projects.Update(context.Background(), 1, project.UpdateProjectInput{Name: &name})

	require.Error(t, err)
	assert.Equal(t, "项目名称已存在", apperrors.Message(err))
	assert.Equal(t, before, s.Projects.Projects())
}

func TestUpdateWithoutEchoPatchesLocally(t *testing.T) {
	b := newScripted()
	s := bootstrapped(t, b)
	b.echoless["UpdateProject"] = true

	name := "618 主会场"
	got, err := s.Projects.Update(context.Background(), 1, project.UpdateProjectInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, name, s.Projects.GetByID(1).Name)

	_, err = s.Projects.Update(context.Background(), 99, project.UpdateProjectInput{Name: &name})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCreateWithoutEchoFails(t *testing.T) {
	b := newScripted()
	s := bootstrapped(t, b)
	b.echoless["CreateProject"] = true

	_, err := s.Projects.Create(context.Background(), project.CreateProjectInput{Name: "双十一"})
	require.Error(t, err)
	assert.Equal(t, "创建项目失败", apperrors.Message(err))
	assert.Len(t, s.Projects.Projects(), 2)
}

func TestCreatePrependsProject(t *testing.T) {
	s := bootstrapped(t, newScripted())

	p, err := s.Projects.Create(context.Background(), project.CreateProjectInput{Name: "  双十一  "})
	require.NoError(t, err)
	assert.Equal(t, "双十一", p.Name)
	assert.Equal(t, p.ID, s.Projects.Projects()[0].ID)
}

func TestValidationRunsBeforeNetwork(t *testing.T) {
	b := newScripted()
	s := bootstrapped(t, b)

	_, err := s.Projects.Create(context.Background(), project.CreateProjectInput{Name: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Equal(t, 0, b.count("CreateProject"))

	_, err = s.Contents.AddContent(context.Background(), content.SaveContentInput{
		SubProjectID: 1, ContentTypeID: 1, ContentValue: "not a url",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Equal(t, 0, b.count("CreateContent"))
}

func TestCancellationIsDropped(t *testing.T) {
	b := newScripted()
	s := bootstrapped(t, b)
	b.fail["ListProjects"] = apperrors.Canceled()

	got, total, err := s.Projects.Fetch(context.Background(), project.ListProjectsFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, total)
}

func TestThresholdsDriveExpiryStatus(t *testing.T) {
	tests := []struct {
		name        string
		opts        []store.Option
		contentSt   expiry.Status
		commandSt   expiry.Status
		expiringSum int
	}{
		{"default", nil, expiry.StatusWarning, expiry.StatusWarning, 1},
		{"tight", []store.Option{store.WithThresholds(expiry.Thresholds{DangerDays: 1, WarningDays: 4})}, expiry.StatusSafe, expiry.StatusSafe, 0},
		{"wide", []store.Option{store.WithThresholds(expiry.Thresholds{DangerDays: 6, WarningDays: 14})}, expiry.StatusWarning, expiry.StatusDanger, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.New(newScripted(), append([]store.Option{store.WithClock(clock)}, tt.opts...)...)
			_, err := s.SubProjects.FetchByProject(context.Background(), 1)
			require.NoError(t, err)

			sub := s.SubProjects.GetByID(1)
			require.NotNil(t, sub)
			require.Len(t, sub.Contents, 2)
			require.Len(t, sub.TextCommands, 1)
			assert.Equal(t, tt.contentSt, sub.Contents[1].ExpiryStatus)
			assert.Equal(t, tt.commandSt, sub.TextCommands[0].ExpiryStatus)
			assert.Equal(t, tt.expiringSum, s.Contents.ContentSummary(1).ExpiringSoon)
		})
	}
}

func TestContentAndCommandLifecycle(t *testing.T) {
	s := bootstrapped(t, newScripted())
	ctx := context.Background()
	_, err := s.SubProjects.FetchByProject(ctx, 2)
	require.NoError(t, err)

	days := 2
	c, err := s.Contents.AddContent(ctx, content.SaveContentInput{
		SubProjectID: 3, ContentTypeID: 1, ContentValue: "https://s.example.com/x", ExpiryDays: &days,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-12", c.ExpiryDate)

	sub := s.SubProjects.GetByID(3)
	require.NotNil(t, sub)
	require.Len(t, sub.Contents, 1)
	assert.Equal(t, content.Summary{Total: 1, ExpiringSoon: 1}, s.Contents.ContentSummary(3))

	cmd, err := s.Contents.SaveTextCommand(ctx, content.SaveTextCommandInput{SubProjectID: 3, CommandText: "直播口令", ExpiryDays: 10})
	require.NoError(t, err)

	cmd, err = s.Contents.SaveTextCommand(ctx, content.SaveTextCommandInput{ID: cmd.ID, SubProjectID: 3, CommandText: "直播口令2", ExpiryDays: 10})
	require.NoError(t, err)
	assert.Equal(t, "直播口令2", cmd.CommandText)
	assert.Len(t, s.SubProjects.GetByID(3).TextCommands, 1)

	require.NoError(t, s.Contents.BulkRemoveTextCommands(ctx, []int64{cmd.ID}))
	assert.Empty(t, s.SubProjects.GetByID(3).TextCommands)

	require.NoError(t, s.Contents.RemoveContent(ctx, c.ID))
	assert.Empty(t, s.SubProjects.GetByID(3).Contents)

	assert.Equal(t, subproject.Stats{Total: 1}, s.SubProjects.Stats())
}

func TestEvents(t *testing.T) {
	s := bootstrapped(t, newScripted())

	var got []store.Event
	unsubscribe := s.Categories.Subscribe(func(e store.Event) { got = append(got, e) })

	c, err := s.Categories.Create(context.Background(), project.CreateCategoryInput{Name: "社交"})
	require.NoError(t, err)
	require.NoError(t, s.Categories.Delete(context.Background(), c.ID))

	deleted := s.Categories.GetByID(c.ID)
	require.NotNil(t, deleted)
	assert.False(t, deleted.IsActive)

	unsubscribe()
	unsubscribe()
	_, err = s.Categories.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []store.Event{
		{Store: store.NameCategories, Kind: store.KindCreated, ID: c.ID},
		{Store: store.NameCategories, Kind: store.KindDeleted, ID: c.ID},
	}, got)
	assert.Len(t, s.Categories.Active(), 2)
}

func TestDocumentationStore(t *testing.T) {
	b := newScripted()
	s := bootstrapped(t, b)
	ctx := context.Background()

	cat := int64(1)
	entries, err := s.Documentation.Fetch(ctx, docentry.Filters{CategoryID: &cat, Keyword: "  "})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "", s.Documentation.Filters().Keyword)

	groups := s.Documentation.Grouped()
	require.Len(t, groups, 1)
	assert.Equal(t, "电商平台", groups[0].CategoryName)

	entries, err = s.Documentation.Regenerate(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1, "re-fetch keeps the remembered filters")
	require.NotNil(t, s.Documentation.LastSyncedAt())

	b.fail["ListDocumentation"] = apperrors.Transport("服务器错误，请稍后重试", 500, nil)
	_, err = s.Documentation.Fetch(ctx, docentry.Filters{})
	require.Error(t, err)
	assert.Equal(t, "服务器错误，请稍后重试", s.Documentation.Err())
	assert.Len(t, s.Documentation.Entries(), 1)
}

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cps-console/internal/apiclient"
	"cps-console/internal/domain/content"
	"cps-console/internal/domain/docentry"
	"cps-console/internal/domain/image"
	"cps-console/internal/domain/project"
	"cps-console/internal/domain/subproject"
	"cps-console/internal/expiry"
	"cps-console/internal/store"
	apperrors "cps-console/pkg/errors"
)

var (
	fixedNow = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	_ store.Backend = (*Backend)(nil)
)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]any
}

type fakeAPI struct {
	mu     sync.Mutex
	routes map[string]string
	calls  []recorded
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.calls = append(f.calls, recorded{r.Method, r.URL.Path, r.URL.RawQuery, body})
	resp, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"请求的资源不存在"}`))
		return
	}
	_, _ = w.Write([]byte(resp))
}

func (f *fakeAPI) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newBackend(t *testing.T, routes map[string]string) (*Backend, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{routes: routes}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second},
		apiclient.WithNotifier(apiclient.NotifierFunc(func(error) {})))
	require.NoError(t, err)
	return New(client, WithClock(func() time.Time { return fixedNow })), api
}

func TestListProjectsShapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantTotal int
	}{
		{"bare array", `{"success":true,"data":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`, 2},
		{"items wrapper", `{"success":true,"data":{"items":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}}`, 2},
		{"paginated", `{"success":true,"data":{"data":[{"id":1,"name":"A"},{"id":2,"name":"B"}],"pagination":{"page":1,"limit":2,"total":9}}}`, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api := newBackend(t, map[string]string{"GET /api/projects": tt.body})
			cat := int64(3)

			got, total, err := b.ListProjects(context.Background(), project.ListProjectsFilter{Keyword: "促", CategoryID: &cat, Page: 1, Limit: 2})
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "B", got[1].Name)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, "categoryId=3&keyword=%E4%BF%83&limit=2&page=1", api.last().query)
		})
	}
}

func TestGetProjectNormalizesSnakeCase(t *testing.T) {
	b, _ := newBackend(t, map[string]string{
		"GET /api/projects/7": `{"success":true,"data":{"id":"7","name":"X","category_id":2,"sub_project_count":4,"is_active":false,"updated_at":"2025-06-01T00:00:00Z"}}`,
	})

	p, err := b.GetProject(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(7), p.ID)
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, int64(2), *p.CategoryID)
	assert.Equal(t, 4, p.SubProjectCount)
	assert.False(t, p.IsActive)
	assert.Equal(t, fixedNow, p.CreatedAt)
}

func TestMutationsWithoutEcho(t *testing.T) {
	b, api := newBackend(t, map[string]string{
		"PUT /api/projects/1":    `{"success":true}`,
		"DELETE /api/projects/1": `{"success":true}`,
	})
	name := "新"

	p, err := b.UpdateProject(context.Background(), 1, project.UpdateProjectInput{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, map[string]any{"name": "新"}, api.last().body)

	require.NoError(t, b.DeleteProject(context.Background(), 1))
	assert.Equal(t, http.MethodDelete, api.last().method)
}

func TestBusinessRejection(t *testing.T) {
	b, _ := newBackend(t, map[string]string{
		"POST /api/projects": `{"success":false,"message":"项目名称已存在"}`,
	})

	_, err := b.CreateProject(context.Background(), project.CreateProjectInput{Name: "A"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrBusiness))
	assert.Equal(t, "项目名称已存在", apperrors.Message(err))
}

func TestSubProjectEndpoints(t *testing.T) {
	b, api := newBackend(t, map[string]string{
		"GET /api/sub-projects": `{"success":true,"data":[{"id":4,"project_id":1,"name":"S","sort_order":2,
			"enable_documentation":true,
			"contents":[{"id":9,"content_type":{"id":1,"name":"短链接","field_type":"url"},"content_value":"https://a","expiry_date":"2025-06-12"}],
			"text_commands":[{"id":3,"command_text":"口令","expiry_days":5}]}]}`,
		"POST /api/sub-projects/reorder": `{"success":true,"data":null}`,
	})

	subs, err := b.ListSubProjects(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "projectId=1", api.last().query)
	require.Len(t, subs, 1)
	s := subs[0]
	assert.True(t, s.DocumentationEnabled)
	assert.Equal(t, 2, s.SortOrder)
	require.Len(t, s.Contents, 1)
	assert.Equal(t, int64(4), s.Contents[0].SubProjectID)
	assert.Equal(t, content.FieldURL, s.Contents[0].ContentType.FieldType)
	assert.Equal(t, expiry.StatusDanger, s.Contents[0].ExpiryStatus)
	require.Len(t, s.TextCommands, 1)
	assert.Equal(t, "2025-06-10", s.TextCommands[0].ExpiryDate, "a command without a date is due today")

	ordered, err := b.ReorderSubProjects(context.Background(), subproject.OrderFromIDs([]int64{3, 1, 2}))
	require.NoError(t, err)
	assert.Empty(t, ordered)
	assert.Equal(t, map[string]any{"items": []any{
		map[string]any{"id": float64(3), "sortOrder": float64(1)},
		map[string]any{"id": float64(1), "sortOrder": float64(2)},
		map[string]any{"id": float64(2), "sortOrder": float64(3)},
	}}, api.last().body)
}

func TestContentAndCommandEndpoints(t *testing.T) {
	b, api := newBackend(t, map[string]string{
		"POST /api/contents":                `{"success":true,"data":{"id":5,"subProjectId":1,"contentTypeId":3,"contentValue":"v"}}`,
		"PUT /api/text-commands/2":          `{"success":true,"data":{"id":2,"subProjectId":1,"commandText":"c","expiryDate":"2025-06-30"}}`,
		"POST /api/text-commands/bulk-delete": `{"success":true}`,
	})
	ctx := context.Background()

	c, err := b.CreateContent(ctx, content.SaveContentInput{SubProjectID: 1, ContentTypeID: 3, ContentValue: "v"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ContentType.ID)
	assert.True(t, c.ShowInDocumentation)

	cmd, err := b.UpdateTextCommand(ctx, 2, content.SaveTextCommandInput{ID: 2, SubProjectID: 1, CommandText: "c", ExpiryDays: 20})
	require.NoError(t, err)
	assert.Equal(t, expiry.StatusSafe, cmd.ExpiryStatus)
	_, hasID := api.last().body["id"]
	assert.False(t, hasID)

	require.NoError(t, b.BulkDeleteTextCommands(ctx, content.BulkDeleteTextCommandsInput{IDs: []int64{1, 2}}))
	assert.Equal(t, map[string]any{"ids": []any{float64(1), float64(2)}}, api.last().body)
}

func TestDocumentationEndpoints(t *testing.T) {
	b, api := newBackend(t, map[string]string{
		"GET /api/documentation": `{"success":true,"data":{"entries":{"items":[
			{"id":1,"sub_project_id":9,"name":"A","project_name":"P","generated_at":"2025-06-01T00:00:00Z","snapshot":"{\"短链接\":\"https://a\"}"},
			{"id":2,"subProjectId":8,"subProjectName":"B","generatedAt":"2025-06-05T00:00:00Z","snapshot":"plain"}
		]},"lastGeneratedAt":"2025-06-06T00:00:00Z"}}`,
		"POST /api/documentation/generate": `{"success":true}`,
	})
	ctx := context.Background()
	cat := int64(2)

	listing, err := b.ListDocumentation(ctx, docentry.Filters{CategoryID: &cat, Keyword: " 口令 "})
	require.NoError(t, err)
	assert.Equal(t, "categoryId=2&keyword=%E5%8F%A3%E4%BB%A4", api.last().query)
	require.Len(t, listing.Entries, 2)
	assert.Equal(t, int64(8), listing.Entries[0].SubProjectID)
	assert.Equal(t, map[string]any{"content": "plain"}, listing.Entries[0].Snapshot)
	assert.Equal(t, "A", listing.Entries[1].SubProjectName)
	assert.Equal(t, "https://a", listing.Entries[1].Snapshot["短链接"])
	require.NotNil(t, listing.LastSyncedAt)
	assert.Equal(t, time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC), listing.LastSyncedAt.UTC())

	require.NoError(t, b.GenerateDocumentation(ctx, docentry.GenerateInput{}))
	assert.Empty(t, api.last().body)
}

func TestUploadedImages(t *testing.T) {
	b, api := newBackend(t, map[string]string{
		"POST /api/uploaded-images": `{"success":true,"data":{"id":12,"key":"old","origin_name":"a.png","links":{"url":"https://img/a.png","thumbnail_url":"https://img/t.png"}}}`,
		"GET /api/uploaded-images":  `{"success":true,"data":{"items":[{"id":12,"key":"old"}]}}`,
	})
	ctx := context.Background()

	img, err := b.SaveUploadedImage(ctx, image.SaveInput{Key: "new", OriginName: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, "old", img.Key)
	assert.Equal(t, "https://img/t.png", img.Links.ThumbnailURL)
	assert.Equal(t, "new", api.last().body["key"])

	images, err := b.ListUploadedImages(ctx)
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

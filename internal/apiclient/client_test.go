package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "cps-console/pkg/errors"
)

type recordingNotifier struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingNotifier) Notify(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordingNotifier) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n := &recordingNotifier{}
	c, err := New(Config{BaseURL: srv.URL + "/api", Token: "secret-token", Timeout: 2 * time.Second}, WithNotifier(n))
	require.NoError(t, err)
	return c, n
}

func TestUnwrapEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     any
		wantErr  error
		wantMsg  string
		notified bool
	}{
		{"success envelope", 200, `{"success":true,"data":{"id":1},"timestamp":"t"}`, map[string]any{"id": float64(1)}, nil, "", false},
		{"bare body", 200, `[{"id":1}]`, []any{map[string]any{"id": float64(1)}}, nil, "", false},
		{"empty body", 204, ``, nil, nil, "", false},
		{"business rejection", 200, `{"success":false,"message":"项目名称已存在"}`, nil, apperrors.ErrBusiness, "项目名称已存在", false},
		{"rejection without message", 200, `{"success":false}`, nil, apperrors.ErrBusiness, "接口请求失败", false},
		{"rejection with error field", 200, `{"success":false,"error":"bad"}`, nil, apperrors.ErrBusiness, "bad", false},
		{"4xx", 404, `{"success":false,"message":"项目不存在"}`, nil, apperrors.ErrBusiness, "项目不存在", false},
		{"4xx without body", 401, ``, nil, apperrors.ErrBusiness, "登录已过期，请重新登录", false},
		{"5xx", 502, `<html>bad gateway</html>`, nil, apperrors.ErrTransport, "服务器错误，请稍后重试", true},
		{"5xx with message", 500, `{"success":false,"message":"db down"}`, nil, apperrors.ErrTransport, "db down", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, n := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := c.Get(context.Background(), "/projects")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Equal(t, tt.wantMsg, apperrors.Message(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.notified, n.count() == 1)
		})
	}
}

func TestRequestShape(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotType, gotBody string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		_, _ = w.Write([]byte(`{"success":true,"data":null}`))
	})

	_, err := c.Post(context.Background(), "/sub-projects/reorder",
		map[string]any{"items": []map[string]int{{"id": 3, "sortOrder": 1}}},
		WithQuery(url.Values{"projectId": {"1"}}))
	require.NoError(t, err)

	assert.Equal(t, "/api/sub-projects/reorder", gotPath)
	assert.Equal(t, "projectId=1", gotQuery)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"items":[{"id":3,"sortOrder":1}]}`, gotBody)

	c.SetToken("")
	_, err = c.Get(context.Background(), "projects")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestNetworkFailureIsNotified(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	n := &recordingNotifier{}
	c, err := New(Config{BaseURL: base}, WithNotifier(n))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/projects")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTransport))
	assert.Equal(t, 1, n.count())
}

func TestTimeoutIsTransport(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	n := &recordingNotifier{}
	c, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, WithNotifier(n))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/slow")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTransport))
	assert.Equal(t, "请求超时，请稍后重试", apperrors.Message(err))
}

func TestDedupeKeyCancelsSupersededRequest(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	c, n := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		started <- struct{}{}
		if first {
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":"second"}`))
	})
	defer close(release)

	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Get(context.Background(), "/documentation", WithDedupeKey("docs"))
		firstErr <- err
	}()
	<-started

	got, err := c.Get(context.Background(), "/documentation", WithDedupeKey("docs"))
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	err = <-firstErr
	require.Error(t, err)
	assert.True(t, apperrors.IsCanceled(err))
	assert.Equal(t, 0, n.count())
}

func TestCallerCancellation(t *testing.T) {
	c, n := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, "/projects")
	assert.True(t, apperrors.IsCanceled(err))
	assert.Equal(t, 0, n.count())
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestRequestBuildErrors(t *testing.T) {
	c, n := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		sentinel error
		contains string
	}{
		{"bad path", http.MethodGet, "/projects/%zz", nil, apperrors.ErrBadRequest, `invalid request path "/projects/%zz": parse`},
		{"unencodable body", http.MethodPost, "/projects", map[string]any{"ch": make(chan int)}, apperrors.ErrBadRequest, "failed to encode request body: json: unsupported type"},
		{"bad method", "BAD METHOD", "/projects", nil, nil, "failed to build request: net/http: invalid method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Do(context.Background(), tt.method, tt.path, tt.body)
			require.Error(t, err)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			msg := apperrors.Message(err)
			assert.Contains(t, msg, tt.contains)
			assert.NotContains(t, msg, "%!")
		})
	}
	assert.Equal(t, 0, n.count())
}

func TestStormGuard(t *testing.T) {
	n := &recordingNotifier{}
	g := NewStormGuard(n, zap.NewNop())

	for i := 0; i < 25; i++ {
		g.Notify(errors.New("boom"))
	}
	assert.Equal(t, 10, n.count())
	assert.Equal(t, 15, g.Suppressed())
}

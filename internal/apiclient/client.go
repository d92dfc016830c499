package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "cps-console/pkg/errors"
	"cps-console/pkg/logger"
)

const (
	DefaultTimeout = 15 * time.Second

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerRequestID     = "X-Request-ID"
	mimeJSON            = "application/json"
	bearerPrefix        = "Bearer "

	maxResponseBytes = 8 << 20

	msgRequestFailed  = "接口请求失败"
	msgTimeout        = "请求超时，请稍后重试"
	msgNetwork        = "网络连接失败，请检查网络"
	msgServerError    = "服务器错误，请稍后重试"
	msgNotFound       = "请求的资源不存在"
	msgUnauthorized   = "登录已过期，请重新登录"
	msgBadResponse    = "服务器响应格式错误"
	errEncodeBodyFmt  = "failed to encode request body: %v"
	errBuildURLFmt    = "invalid request path %q: %v"
	errBuildReqFmt    = "failed to build request: %v"
	errReadBodyFmt    = "failed to read response body: %w"
	errInvalidBaseFmt = "invalid base URL %q: %w"
)

// Config holds the API endpoint, credentials and timeout.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Token      string
	HTTPClient *http.Client
}

// Client is the JSON transport to the console backend. It never retries.
// Transport failures are reported to the Notifier; business rejections are
// only returned.
type Client struct {
	base     *url.URL
	http     *http.Client
	log      *zap.Logger
	notifier Notifier

	tokenMu sync.RWMutex
	token   string

	inflightMu sync.Mutex
	inflight   map[string]*inflight
}

type inflight struct {
	cancel context.CancelFunc
}

type Option func(*Client)

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// New creates a new API client for cfg.BaseURL.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil || base.Scheme == "" || base.Host == "" {
		if err == nil {
			err = errors.New("missing scheme or host")
		}
		return nil, fmt.Errorf(errInvalidBaseFmt, cfg.BaseURL, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		base:     base,
		http:     httpClient,
		log:      zap.NewNop(),
		token:    cfg.Token,
		inflight: make(map[string]*inflight),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = NewStormGuard(LogNotifier(c.log), c.log)
	}
	return c, nil
}

// SetToken replaces the bearer token sent with later requests.
func (c *Client) SetToken(token string) {
	c.tokenMu.Lock()
	c.token = token
	c.tokenMu.Unlock()
}

func (c *Client) bearer() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token
}

type requestOptions struct {
	query     url.Values
	dedupeKey string
}

type RequestOption func(*requestOptions)

// WithQuery adds query parameters to one request.
func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) { o.query = q }
}

// WithDedupeKey cancels any in-flight request started with the same key.
// The superseded call fails with a cancellation error.
func WithDedupeKey(key string) RequestOption {
	return func(o *requestOptions) { o.dedupeKey = key }
}

func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (any, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (any, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (any, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (any, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

// Do sends one JSON request and returns the unwrapped envelope data,
// decoded into plain maps, slices and float64 numbers.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (any, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	if ro.dedupeKey != "" {
		var release func()
		ctx, release = c.track(ctx, ro.dedupeKey)
		defer release()
	}

	req, err := c.newRequest(ctx, method, path, body, ro.query)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportFailure(ctx, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.transportFailure(ctx, method, path, fmt.Errorf(errReadBodyFmt, err))
	}

	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", resp.Header.Get(headerRequestID)),
	)

	return c.unwrap(resp.StatusCode, raw)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, query url.Values) (*http.Request, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, apperrors.BadRequest(fmt.Sprintf(errBuildURLFmt, path, err))
	}
	target := c.base.ResolveReference(ref)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.BadRequest(fmt.Sprintf(errEncodeBodyFmt, err))
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, apperrors.InternalServer(fmt.Sprintf(errBuildReqFmt, err), err)
	}
	req.Header.Set(headerAccept, mimeJSON)
	if body != nil {
		req.Header.Set(headerContentType, mimeJSON)
	}
	if token := c.bearer(); token != "" {
		req.Header.Set(headerAuthorization, bearerPrefix+token)
	}
	return req, nil
}

// track registers ctx under key, canceling whatever held the key before.
func (c *Client) track(ctx context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	entry := &inflight{cancel: cancel}

	c.inflightMu.Lock()
	if prev, ok := c.inflight[key]; ok {
		prev.cancel()
	}
	c.inflight[key] = entry
	c.inflightMu.Unlock()

	return ctx, func() {
		c.inflightMu.Lock()
		if c.inflight[key] == entry {
			delete(c.inflight, key)
		}
		c.inflightMu.Unlock()
		cancel()
	}
}

func (c *Client) transportFailure(ctx context.Context, method, path string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		c.log.Debug("api request canceled", zap.String("method", method), zap.String("path", path))
		return apperrors.Canceled()
	}

	msg := msgNetwork
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		msg = msgTimeout
	}
	appErr := apperrors.Transport(msg, 0, err)
	c.log.Warn("api transport failure",
		zap.String("method", method),
		zap.String("path", path),
		logger.Safe("cause", err.Error()),
	)
	c.notifier.Notify(appErr)
	return appErr
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// unwrap decodes a response body. A body carrying a boolean "success" key
// is an envelope; any other JSON body is taken as the data itself.
func (c *Client) unwrap(status int, raw []byte) (any, error) {
	var decoded any
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			if status >= http.StatusInternalServerError {
				return nil, c.serverFailure(status, "")
			}
			if status >= http.StatusBadRequest {
				return nil, apperrors.Business(statusMessage(status, ""), status)
			}
			return nil, apperrors.Transport(msgBadResponse, status, err)
		}
	}

	env, isEnvelope := parseEnvelope(decoded)

	switch {
	case status >= http.StatusInternalServerError:
		return nil, c.serverFailure(status, env.message())
	case status >= http.StatusBadRequest:
		return nil, apperrors.Business(statusMessage(status, env.message()), status)
	}

	if !isEnvelope {
		return decoded, nil
	}
	if !env.Success {
		msg := env.message()
		if msg == "" {
			msg = msgRequestFailed
		}
		return nil, apperrors.Business(msg, status)
	}
	return env.Data, nil
}

func (c *Client) serverFailure(status int, msg string) error {
	if msg == "" {
		msg = msgServerError
	}
	appErr := apperrors.Transport(msg, status, nil)
	c.log.Warn("api server error", zap.Int("status", status), zap.String("message", msg))
	c.notifier.Notify(appErr)
	return appErr
}

func statusMessage(status int, msg string) string {
	if msg != "" {
		return msg
	}
	switch status {
	case http.StatusUnauthorized:
		return msgUnauthorized
	case http.StatusNotFound:
		return msgNotFound
	default:
		return msgRequestFailed
	}
}

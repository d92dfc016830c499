package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cps-console/internal/audit"
	"cps-console/internal/backend/memory"
	"cps-console/internal/config"
	"cps-console/internal/domain/project"
	"cps-console/internal/expiry"
	"cps-console/internal/imagehost/picui"
	"cps-console/internal/store"
	"cps-console/internal/view"
)

func TestOpenBackend(t *testing.T) {
	cfg := config.Default()

	storage, err := OpenBackend(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer storage.Close()

	projects, total, err := storage.Backend.ListProjects(context.Background(), project.ListProjectsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, projects, 2)
	assert.IsType(t, &audit.MemoryRecorder{}, storage.Audit)

	cfg.Backend.Driver = "sqlite"
	_, err = OpenBackend(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, `unknown backend driver "sqlite"`)
}

func TestNewImageHost(t *testing.T) {
	cfg := config.Default()

	host, err := NewImageHost(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, host)

	up, err := NewImageUploader(cfg, memory.New(), zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, up)

	cfg.ImageHost.Provider = config.ProviderPicUI
	cfg.ImageHost.PicUI.Token = "token"
	host, err = NewImageHost(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &picui.Uploader{}, host)

	up, err = NewImageUploader(cfg, memory.New(), zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, up)

	cfg.ImageHost.Provider = config.ProviderS3
	cfg.ImageHost.S3.Bucket = ""
	_, err = NewImageHost(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg.ImageHost.Provider = "imgur"
	_, err = NewImageHost(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown image provider")
}

func TestInitializeServiceServesHealth(t *testing.T) {
	svc, err := InitializeService(context.Background(), config.Default(), nil)
	require.NoError(t, err)
	assert.NotNil(t, svc.Handler())
	require.NoError(t, svc.Shutdown(context.Background()))
}

func TestExpiringItems(t *testing.T) {
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	stores := store.New(memory.NewDemo(memory.WithClock(clock)), store.WithClock(clock))

	items, err := ExpiringItems(context.Background(), stores, now)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, view.KindCommand, items[0].Kind)
	assert.Equal(t, "京东超值券", items[0].Value)
	assert.Equal(t, expiry.StatusDanger, items[0].Status)
	assert.Equal(t, "团购超级优惠", items[2].Value)
	assert.Equal(t, expiry.StatusWarning, items[2].Status)
}

func TestNewRemoteBackend(t *testing.T) {
	cfg := config.Default()
	backend, client, err := NewRemoteBackend(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, backend)
	assert.NotNil(t, client)

	cfg.API.BaseURL = "://bad"
	_, _, err = NewRemoteBackend(cfg, zap.NewNop())
	assert.Error(t, err)
}

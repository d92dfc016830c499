package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cps-console/internal/apiclient"
	"cps-console/internal/audit"
	"cps-console/internal/auth"
	"cps-console/internal/backend/memory"
	"cps-console/internal/config"
	"cps-console/internal/http"
	"cps-console/internal/imagehost"
	"cps-console/internal/imagehost/picui"
	"cps-console/internal/imagehost/s3"
	"cps-console/internal/imageupload"
	"cps-console/internal/remote"
	"cps-console/internal/repository/postgres"
	"cps-console/internal/store"
)

const (
	errFailedConnectDatabaseFmt = "failed to connect to database: %w"
	errFailedMigrateDatabaseFmt = "failed to migrate database: %w"
	errFailedCreateImageHostFmt = "failed to create image host: %w"
	errFailedCreateJWTFmt       = "failed to create JWT service: %w"
	errFailedCreateAPIClientFmt = "failed to create API client: %w"
	errUnknownDriverFmt         = "unknown backend driver %q"
	errUnknownProviderFmt       = "unknown image provider %q"

	memoryAuditCapacity = 500
)

// InitializeService wires the reference server: storage backend, image
// uploader, optional operator auth and the HTTP server.
func InitializeService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}

	storage, err := OpenBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	backend, closeBackend := storage.Backend, storage.Close

	deps := &http.ServerDependencies{
		Config:  cfg,
		Backend: backend,
		Audit:   storage.Audit,
		Logger:  log,
	}

	uploader, err := NewImageUploader(cfg, backend, log)
	if err != nil {
		closeBackend()
		return nil, err
	}
	// A typed nil would read as a configured uploader.
	if uploader != nil {
		deps.Uploader = uploader
	}

	if cfg.AuthEnabled() {
		jwtService, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			closeBackend()
			return nil, fmt.Errorf(errFailedCreateJWTFmt, err)
		}
		deps.JWTService = jwtService
		if len(cfg.Auth.Operators) > 0 {
			deps.Authenticator = auth.NewAuthenticator(jwtService, cfg.Auth.Operators)
		}
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	return &Service{
		config:       cfg,
		log:          log,
		backend:      backend,
		closeBackend: closeBackend,
		server:       http.NewServer(deps),
		watchCtx:     watchCtx,
		stopWatch:    stopWatch,
	}, nil
}

// Storage is an opened backend with the audit trail kept next to it.
type Storage struct {
	Backend store.Backend
	Audit   audit.Recorder
	Close   func()
}

// OpenBackend returns the storage selected by cfg.Backend.Driver. The
// postgres schema is migrated on open.
func OpenBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Storage, error) {
	switch cfg.Backend.Driver {
	case config.DriverMemory, "":
		log.Info("using in-memory backend with demo data")
		return &Storage{
			Backend: memory.NewDemo(memory.WithThresholds(cfg.Expiry)),
			Audit:   audit.NewMemoryRecorder(memoryAuditCapacity),
			Close:   func() {},
		}, nil
	case config.DriverPostgres:
		db, err := postgres.New(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf(errFailedConnectDatabaseFmt, err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf(errFailedMigrateDatabaseFmt, err)
		}
		log.Info("database connection established",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database))
		return &Storage{
			Backend: postgres.NewBackend(db, postgres.WithThresholds(cfg.Expiry)),
			Audit:   audit.NewPostgresRecorder(db.Pool),
			Close:   db.Close,
		}, nil
	default:
		return nil, fmt.Errorf(errUnknownDriverFmt, cfg.Backend.Driver)
	}
}

// NewImageHost builds the uploader for cfg.ImageHost.Provider. It returns
// nil when no provider is configured.
func NewImageHost(cfg *config.Config, log *zap.Logger) (imagehost.Uploader, error) {
	ih := cfg.ImageHost
	switch ih.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderPicUI:
		return picui.New(picui.Config{
			URL:        ih.PicUI.URL,
			Token:      ih.PicUI.Token,
			AlbumID:    ih.PicUI.AlbumID,
			Permission: ih.PicUI.Permission,
		}, log), nil
	case config.ProviderS3:
		up, err := s3.NewUploader(s3.Config{
			Bucket:          ih.S3.Bucket,
			Region:          ih.S3.Region,
			AccessKeyID:     ih.S3.AccessKeyID,
			SecretAccessKey: ih.S3.SecretAccessKey,
			Endpoint:        ih.S3.Endpoint,
			PublicBaseURL:   ih.S3.PublicBaseURL,
			KeyPrefix:       ih.S3.KeyPrefix,
		}, log)
		if err != nil {
			return nil, fmt.Errorf(errFailedCreateImageHostFmt, err)
		}
		return up, nil
	default:
		return nil, fmt.Errorf(errUnknownProviderFmt, ih.Provider)
	}
}

// NewImageUploader pairs the configured image host with saver. It returns
// nil when uploads are disabled.
func NewImageUploader(cfg *config.Config, saver imageupload.Saver, log *zap.Logger) (*imageupload.Service, error) {
	host, err := NewImageHost(cfg, log)
	if err != nil || host == nil {
		return nil, err
	}

	upCfg := imageupload.Config{
		MaxBytes:    cfg.ImageHost.MaxBytes,
		Concurrency: cfg.ImageHost.Concurrency,
	}
	if cfg.ImageHost.Provider == config.ProviderPicUI {
		album := cfg.ImageHost.PicUI.AlbumID
		permission := cfg.ImageHost.PicUI.Permission
		upCfg.AlbumID = &album
		upCfg.Permission = &permission
	}
	return imageupload.New(host, saver, upCfg, log), nil
}

// NewRemoteBackend talks to the REST API at cfg.API. Repeated transport
// failures are logged once per storm.
func NewRemoteBackend(cfg *config.Config, log *zap.Logger) (*remote.Backend, *apiclient.Client, error) {
	client, err := apiclient.New(
		apiclient.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout, Token: cfg.API.Token},
		apiclient.WithLogger(log),
		apiclient.WithNotifier(apiclient.NewStormGuard(apiclient.LogNotifier(log), log)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf(errFailedCreateAPIClientFmt, err)
	}
	return remote.New(client, remote.WithLogger(log), remote.WithThresholds(cfg.Expiry)), client, nil
}

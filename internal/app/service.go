package app

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"go.uber.org/zap"

	"cps-console/internal/config"
	"cps-console/internal/http"
	"cps-console/internal/store"
	"cps-console/internal/view"
)

const (
	serverAddrPrefix    = ":"
	expiryWatchInterval = time.Hour
)

// Service is the running reference server.
type Service struct {
	config       *config.Config
	log          *zap.Logger
	backend      store.Backend
	closeBackend func()
	server       *http.Server

	watchCtx  context.Context
	stopWatch context.CancelFunc
}

// Start runs the expiry watch in the background and serves HTTP until
// Shutdown is called.
func (s *Service) Start() error {
	go s.watchExpiry(s.watchCtx, expiryWatchInterval)

	s.log.Info("starting HTTP server", zap.String("port", s.config.Server.Port))
	err := s.server.Start(serverAddrPrefix + s.config.Server.Port)
	if errors.Is(err, stdhttp.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server, then releases the backend.
func (s *Service) Shutdown(ctx context.Context) error {
	s.stopWatch()
	err := s.server.Shutdown(ctx)
	s.closeBackend()
	return err
}

func (s *Service) Handler() stdhttp.Handler {
	return s.server.Handler()
}

// watchExpiry logs the content items and text commands that are expired or
// about to expire, once at start and then every interval.
func (s *Service) watchExpiry(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.reportExpiring(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) reportExpiring(ctx context.Context) {
	items, err := ExpiringItems(ctx, store.New(s.backend, store.WithLogger(s.log), store.WithThresholds(s.config.Expiry)), time.Now())
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("expiry scan failed", zap.Error(err))
		}
		return
	}
	if len(items) == 0 {
		return
	}
	for _, item := range items {
		s.log.Info("item expiring",
			zap.String("kind", string(item.Kind)),
			zap.Int64("id", item.ID),
			zap.String("sub_project", item.SubProjectName),
			zap.String("label", item.Label),
			zap.String("expiry_date", item.ExpiryDate),
			zap.String("status", string(item.Status)))
	}
	s.log.Info("expiry scan complete", zap.Int("expiring", len(items)))
}

// ExpiringItems bootstraps stores, loads the sub-projects of every active
// project and returns their non-safe items, most urgent first.
func ExpiringItems(ctx context.Context, stores *store.Stores, now time.Time) ([]view.ExpiringItem, error) {
	if err := stores.Bootstrap(ctx); err != nil {
		return nil, err
	}
	for _, p := range stores.Projects.Projects() {
		if !p.IsActive {
			continue
		}
		if _, err := stores.SubProjects.FetchByProject(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return view.ExpiringItems(stores.Calculator(), stores.SubProjects.All(), now), nil
}

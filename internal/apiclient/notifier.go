package apiclient

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "cps-console/pkg/errors"
)

const (
	stormBurst  = 10
	stormWindow = time.Minute
)

// Notifier receives the errors that should be shown globally.
type Notifier interface {
	Notify(err error)
}

type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

// LogNotifier reports errors as warnings on log.
func LogNotifier(log *zap.Logger) Notifier {
	return NotifierFunc(func(err error) {
		log.Warn(apperrors.Message(err), zap.Error(err))
	})
}

// StormGuard forwards at most ten notifications per minute and drops the
// rest, so a dead backend does not flood the operator.
type StormGuard struct {
	next    Notifier
	log     *zap.Logger
	limiter *rate.Limiter

	mu         sync.Mutex
	suppressed int
}

// NewStormGuard creates a new guard that forwards to next.
func NewStormGuard(next Notifier, log *zap.Logger) *StormGuard {
	return &StormGuard{
		next:    next,
		log:     log,
		limiter: rate.NewLimiter(rate.Every(stormWindow/stormBurst), stormBurst),
	}
}

func (g *StormGuard) Notify(err error) {
	if !g.limiter.Allow() {
		g.mu.Lock()
		g.suppressed++
		n := g.suppressed
		g.mu.Unlock()
		g.log.Debug("error notification suppressed", zap.Int("suppressed", n))
		return
	}
	g.next.Notify(err)
}

// Suppressed returns how many notifications were dropped so far.
func (g *StormGuard) Suppressed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.suppressed
}

// Package metrics keeps in-process request counters and exposes them, with
// runtime memory stats and optional pprof handlers, on the reference server.
package metrics

import (
	"fmt"
	"net/http"
	"net/http/pprof"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

const bytesPerMB = 1024 * 1024

// Metrics holds the request counters of one server.
// Thread-safe via atomics and mutex.
type Metrics struct {
	totalRequests  int64
	activeRequests int64
	totalErrors    int64
	totalLatencyMs int64
	maxLatencyMs   int64

	mu                sync.Mutex
	startTime         time.Time
	endpointCounts    map[string]int64
	endpointLatencies map[string]int64 // total ms per endpoint
	statusCodes       map[int]int64
	now               func() time.Time
}

// New creates an empty counter set.
func New() *Metrics {
	m := &Metrics{now: time.Now}
	m.Reset()
	return m
}

// Middleware tracks request count, latency, active requests and error rates.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddInt64(&m.activeRequests, 1)
			start := m.now()

			err := next(c)
			if err != nil && !c.Response().Committed {
				c.Error(err)
			}

			latencyMs := m.now().Sub(start).Milliseconds()
			atomic.AddInt64(&m.activeRequests, -1)
			atomic.AddInt64(&m.totalRequests, 1)
			atomic.AddInt64(&m.totalLatencyMs, latencyMs)

			// Lock-free max update
			for {
				current := atomic.LoadInt64(&m.maxLatencyMs)
				if latencyMs <= current || atomic.CompareAndSwapInt64(&m.maxLatencyMs, current, latencyMs) {
					break
				}
			}

			statusCode := c.Response().Status
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			endpoint := fmt.Sprintf("%s %s", c.Request().Method, path)

			m.mu.Lock()
			m.endpointCounts[endpoint]++
			m.endpointLatencies[endpoint] += latencyMs
			m.statusCodes[statusCode]++
			m.mu.Unlock()
			if statusCode >= http.StatusBadRequest {
				atomic.AddInt64(&m.totalErrors, 1)
			}

			return err
		}
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	TotalRequests  int64            `json:"totalRequests"`
	ActiveRequests int64            `json:"activeRequests"`
	TotalErrors    int64            `json:"totalErrors"`
	ErrorRate      float64          `json:"errorRatePct"`
	AvgLatencyMs   float64          `json:"avgLatencyMs"`
	MaxLatencyMs   int64            `json:"maxLatencyMs"`
	RequestsPerSec float64          `json:"requestsPerSec"`
	UptimeSeconds  float64          `json:"uptimeSeconds"`
	EndpointCounts map[string]int64 `json:"endpointCounts"`
	EndpointAvgMs  map[string]int64 `json:"endpointAvgLatencyMs"`
	StatusCodes    map[int]int64    `json:"statusCodes"`
}

func (m *Metrics) Snapshot() Snapshot {
	total := atomic.LoadInt64(&m.totalRequests)
	errs := atomic.LoadInt64(&m.totalErrors)
	totalLatency := atomic.LoadInt64(&m.totalLatencyMs)

	m.mu.Lock()
	uptime := m.now().Sub(m.startTime).Seconds()
	endpointCounts := make(map[string]int64, len(m.endpointCounts))
	endpointAvg := make(map[string]int64, len(m.endpointLatencies))
	for k, v := range m.endpointCounts {
		endpointCounts[k] = v
		if v > 0 {
			endpointAvg[k] = m.endpointLatencies[k] / v
		}
	}
	statusCodes := make(map[int]int64, len(m.statusCodes))
	for k, v := range m.statusCodes {
		statusCodes[k] = v
	}
	m.mu.Unlock()

	s := Snapshot{
		TotalRequests:  total,
		ActiveRequests: atomic.LoadInt64(&m.activeRequests),
		TotalErrors:    errs,
		MaxLatencyMs:   atomic.LoadInt64(&m.maxLatencyMs),
		UptimeSeconds:  uptime,
		EndpointCounts: endpointCounts,
		EndpointAvgMs:  endpointAvg,
		StatusCodes:    statusCodes,
	}
	if total > 0 {
		s.AvgLatencyMs = float64(totalLatency) / float64(total)
		s.ErrorRate = float64(errs) / float64(total) * 100
	}
	if uptime > 0 {
		s.RequestsPerSec = float64(total) / uptime
	}
	return s
}

// Reset zeroes the counters and restarts the uptime clock. Requests in
// flight stay counted as active.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.totalRequests, 0)
	atomic.StoreInt64(&m.totalErrors, 0)
	atomic.StoreInt64(&m.totalLatencyMs, 0)
	atomic.StoreInt64(&m.maxLatencyMs, 0)

	m.mu.Lock()
	m.endpointCounts = make(map[string]int64)
	m.endpointLatencies = make(map[string]int64)
	m.statusCodes = make(map[int]int64)
	m.startTime = m.now()
	m.mu.Unlock()
}

type MemoryStats struct {
	AllocMB      float64 `json:"allocMb"`
	TotalAllocMB float64 `json:"totalAllocMb"`
	SysMB        float64 `json:"sysMb"`
	NumGC        uint32  `json:"numGc"`
	Goroutines   int     `json:"goroutines"`
	HeapObjects  uint64  `json:"heapObjects"`
	HeapInUseMB  float64 `json:"heapInUseMb"`
	StackInUseMB float64 `json:"stackInUseMb"`
}

// ReadMemoryStats samples the Go runtime.
func ReadMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		AllocMB:      float64(m.Alloc) / bytesPerMB,
		TotalAllocMB: float64(m.TotalAlloc) / bytesPerMB,
		SysMB:        float64(m.Sys) / bytesPerMB,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		HeapObjects:  m.HeapObjects,
		HeapInUseMB:  float64(m.HeapInuse) / bytesPerMB,
		StackInUseMB: float64(m.StackInuse) / bytesPerMB,
	}
}

// Register mounts /metrics/requests, /metrics/reset and /metrics/memory.
func (m *Metrics) Register(e *echo.Echo) {
	g := e.Group("/metrics")
	g.GET("/requests", func(c echo.Context) error {
		return c.JSON(http.StatusOK, m.Snapshot())
	})
	g.POST("/reset", func(c echo.Context) error {
		m.Reset()
		return c.NoContent(http.StatusNoContent)
	})
	g.GET("/memory", func(c echo.Context) error {
		return c.JSON(http.StatusOK, ReadMemoryStats())
	})
}

// RegisterPprof adds the Go pprof endpoints under /debug/pprof/.
func RegisterPprof(e *echo.Echo) {
	g := e.Group("/debug/pprof")
	g.GET("/", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	g.GET("/cmdline", echo.WrapHandler(http.HandlerFunc(pprof.Cmdline)))
	g.GET("/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
	g.GET("/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
	g.GET("/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		g.GET("/"+name, echo.WrapHandler(pprof.Handler(name)))
	}
}

// Package shutdown provides idle monitoring for scale-to-zero deployments.
package shutdown

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// BackgroundWorkChecker reports whether background work is in progress.
// It prevents idle shutdown while the import worker is mid-job.
type BackgroundWorkChecker func() bool

// IdleMonitor watches request activity and signals when the server has
// been idle long enough to stop. Platforms like Fly.io restart the
// machine on the next incoming request.
type IdleMonitor struct {
	timeout        time.Duration
	logger         *slog.Logger
	activeRequests atomic.Int64
	lastActivity   atomic.Int64 // unix nanos
	shutdownChan   chan struct{}
	stopChan       chan struct{}
	excludePaths   []string
	backgroundBusy BackgroundWorkChecker
}

// IdleMonitorConfig holds configuration for the idle monitor.
type IdleMonitorConfig struct {
	Timeout             time.Duration // how long to wait before considering idle
	Logger              *slog.Logger
	ExcludePaths        []string              // paths that don't count as activity (health probes)
	BackgroundWorkCheck BackgroundWorkChecker // optional, e.g. the job worker's Busy
}

// NewIdleMonitor creates a new idle monitor. A zero timeout disables it.
func NewIdleMonitor(cfg IdleMonitorConfig) *IdleMonitor {
	m := &IdleMonitor{
		timeout:        cfg.Timeout,
		logger:         cfg.Logger,
		shutdownChan:   make(chan struct{}),
		stopChan:       make(chan struct{}),
		excludePaths:   cfg.ExcludePaths,
		backgroundBusy: cfg.BackgroundWorkCheck,
	}
	m.touch()
	return m
}

// Start begins watching for idle periods.
func (m *IdleMonitor) Start() {
	if m.timeout <= 0 {
		return
	}
	m.logger.Info("idle monitoring started", "timeout", m.timeout, "exclude_paths", m.excludePaths)
	go m.run()
}

// Stop stops the idle monitor.
func (m *IdleMonitor) Stop() {
	if m.timeout <= 0 {
		return
	}
	close(m.stopChan)
}

// ShutdownChan returns a channel closed when the idle timeout is reached.
func (m *IdleMonitor) ShutdownChan() <-chan struct{} {
	return m.shutdownChan
}

// Middleware tracks request activity. Excluded paths (health probes)
// don't reset the idle clock, otherwise the platform's own checks would
// keep the machine alive forever.
func (m *IdleMonitor) Middleware(next http.Handler) http.Handler {
	if m.timeout <= 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		excluded := false
		for _, prefix := range m.excludePaths {
			if strings.HasPrefix(r.URL.Path, prefix) {
				excluded = true
				break
			}
		}

		if !excluded {
			m.activeRequests.Add(1)
			m.touch()
			defer func() {
				m.activeRequests.Add(-1)
				m.touch()
			}()
		}

		next.ServeHTTP(w, r)
	})
}

func (m *IdleMonitor) touch() {
	m.lastActivity.Store(time.Now().UnixNano())
}

func (m *IdleMonitor) idleFor() time.Duration {
	return time.Since(time.Unix(0, m.lastActivity.Load()))
}

func (m *IdleMonitor) run() {
	// Poll well below the timeout so shutdown isn't late, but never
	// busier than every 5s.
	interval := m.timeout / 6
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}
	if interval > 30*time.Second {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			active := m.activeRequests.Load()
			busy := m.backgroundBusy != nil && m.backgroundBusy()

			// In-flight requests or a running import reset the clock,
			// giving a full grace period after the work completes.
			if active > 0 || busy {
				m.touch()
				continue
			}

			if idle := m.idleFor(); idle >= m.timeout {
				m.logger.Info("idle timeout reached, signaling graceful shutdown",
					"idle_time", idle,
					"timeout", m.timeout,
				)
				close(m.shutdownChan)
				return
			}
		}
	}
}

// Package browser manages a pool of headless browsers and captures
// full-page screenshots of product listings.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/oklog/ulid/v2"
)

var (
	// ErrPoolClosed is returned when trying to use a closed pool.
	ErrPoolClosed = errors.New("browser pool is closed")
)

// Options configures the pool.
type Options struct {
	PoolSize    int           // max concurrent browsers
	MaxAge      time.Duration // recycle browsers older than this
	MaxRequests int           // recycle browsers after this many captures
	IdleTimeout time.Duration // reap browsers idle longer than this
	ChromePath  string        // optional custom Chrome binary
}

// ManagedBrowser wraps a rod.Browser with management metadata.
type ManagedBrowser struct {
	ID           string
	Browser      *rod.Browser
	InUse        bool
	CreatedAt    time.Time
	LastUsedAt   time.Time
	RequestCount int
}

// Pool manages a bounded set of browser instances. Capture requests
// beyond the pool size queue until a browser is released.
type Pool struct {
	mu       sync.RWMutex
	browsers map[string]*ManagedBrowser
	waiting  []chan *ManagedBrowser
	opts     Options
	logger   *slog.Logger
	closed   bool
}

// NewPool creates a new browser pool.
func NewPool(opts Options, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = 1
	}
	return &Pool{
		browsers: make(map[string]*ManagedBrowser),
		opts:     opts,
		logger:   logger,
	}
}

// Warmup ensures Chromium is available and optionally pre-creates
// browsers so the first capture does not pay the download and launch
// cost.
func (p *Pool) Warmup(ctx context.Context, preCreate int) error {
	if p.opts.ChromePath == "" {
		browserPath, err := launcher.NewBrowser().Get()
		if err != nil {
			return err
		}
		p.logger.Info("chromium ready", "path", browserPath)
	}

	if preCreate > p.opts.PoolSize {
		preCreate = p.opts.PoolSize
	}
	for i := 0; i < preCreate; i++ {
		browser, err := p.createBrowser()
		if err != nil {
			return err
		}
		browser.InUse = false
		p.mu.Lock()
		p.browsers[browser.ID] = browser
		p.mu.Unlock()
	}
	if preCreate > 0 {
		p.logger.Info("browser pool warmed up", "browsers", preCreate)
	}
	return nil
}

// Acquire gets a browser from the pool, creating one if there is
// capacity. Blocks until one is released when the pool is full.
func (p *Pool) Acquire(ctx context.Context) (*ManagedBrowser, error) {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	for _, b := range p.browsers {
		if !b.InUse && p.isHealthy(b) {
			b.InUse = true
			b.LastUsedAt = time.Now()
			p.mu.Unlock()
			return b, nil
		}
	}

	// Reap aged-out idle browsers so a stale pool opens capacity
	// instead of queueing the caller behind browsers that will never
	// come back healthy.
	p.reapUnhealthyLocked()

	if len(p.browsers) < p.opts.PoolSize {
		browser, err := p.createBrowser()
		if err != nil {
			p.mu.Unlock()
			return nil, err
		}
		p.browsers[browser.ID] = browser
		p.mu.Unlock()
		return browser, nil
	}

	waitChan := make(chan *ManagedBrowser, 1)
	p.waiting = append(p.waiting, waitChan)
	p.mu.Unlock()

	select {
	case browser, ok := <-waitChan:
		if !ok {
			return nil, ErrPoolClosed
		}
		return browser, nil
	case <-ctx.Done():
		p.mu.Lock()
		for i, ch := range p.waiting {
			if ch == waitChan {
				p.waiting = append(p.waiting[:i], p.waiting[i+1:]...)
				break
			}
		}
		p.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Release returns a browser to the pool, recycling it when it has aged
// out or served its request quota.
func (p *Pool) Release(browser *ManagedBrowser) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.closeBrowser(browser)
		return
	}

	browser.InUse = false
	browser.RequestCount++
	browser.LastUsedAt = time.Now()

	if p.needsRecycle(browser) {
		p.logger.Info("recycling browser",
			"id", browser.ID,
			"age", time.Since(browser.CreatedAt),
			"requests", browser.RequestCount,
		)
		p.closeBrowser(browser)
		delete(p.browsers, browser.ID)
	}

	if len(p.waiting) == 0 {
		return
	}

	// Hand an available browser to the next waiter.
	for _, b := range p.browsers {
		if !b.InUse && p.isHealthy(b) {
			waitChan := p.waiting[0]
			p.waiting = p.waiting[1:]
			b.InUse = true
			b.LastUsedAt = time.Now()
			waitChan <- b
			return
		}
	}
}

// StartCleanup periodically reaps idle and aged-out browsers until the
// context is canceled. Run it in its own goroutine.
func (p *Pool) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cleanupIdle()
		}
	}
}

// cleanupIdle closes browsers idle past IdleTimeout or unhealthy,
// then creates fresh ones for any waiters the freed capacity can
// serve.
func (p *Pool) cleanupIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	for id, b := range p.browsers {
		if b.InUse {
			continue
		}
		idle := time.Since(b.LastUsedAt)
		if p.opts.IdleTimeout > 0 && idle > p.opts.IdleTimeout {
			p.logger.Info("reaping idle browser", "id", id, "idle", idle)
			p.closeBrowser(b)
			delete(p.browsers, id)
		}
	}
	p.reapUnhealthyLocked()

	for len(p.waiting) > 0 && len(p.browsers) < p.opts.PoolSize {
		browser, err := p.createBrowser()
		if err != nil {
			p.logger.Warn("failed to create browser for waiter", "error", err)
			return
		}
		p.browsers[browser.ID] = browser
		waitChan := p.waiting[0]
		p.waiting = p.waiting[1:]
		waitChan <- browser
	}
}

// reapUnhealthyLocked drops idle browsers that failed a health check.
// Callers must hold p.mu.
func (p *Pool) reapUnhealthyLocked() {
	for id, b := range p.browsers {
		if !b.InUse && !p.isHealthy(b) {
			p.logger.Info("reaping unhealthy browser",
				"id", id,
				"age", time.Since(b.CreatedAt),
				"requests", b.RequestCount,
			)
			p.closeBrowser(b)
			delete(p.browsers, id)
		}
	}
}

// Close shuts down all browsers and rejects future acquires.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for _, browser := range p.browsers {
		p.closeBrowser(browser)
	}
	p.browsers = make(map[string]*ManagedBrowser)

	for _, ch := range p.waiting {
		close(ch)
	}
	p.waiting = nil
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := PoolStats{
		Total:   len(p.browsers),
		MaxSize: p.opts.PoolSize,
		Waiting: len(p.waiting),
	}
	for _, b := range p.browsers {
		if b.InUse {
			stats.InUse++
		} else {
			stats.Available++
		}
	}
	return stats
}

// PoolStats contains pool statistics.
type PoolStats struct {
	Total     int `json:"total"`
	InUse     int `json:"in_use"`
	Available int `json:"available"`
	MaxSize   int `json:"max_size"`
	Waiting   int `json:"waiting"`
}

func (p *Pool) createBrowser() (*ManagedBrowser, error) {
	l := launcher.New()
	if p.opts.ChromePath != "" {
		l = l.Bin(p.opts.ChromePath)
	}
	l = l.
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("window-size", "1366,2000").
		Set("lang", "en-US,en")

	u, err := l.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, err
	}

	id := ulid.Make().String()
	p.logger.Info("browser created", "id", id)

	return &ManagedBrowser{
		ID:         id,
		Browser:    browser,
		InUse:      true,
		CreatedAt:  time.Now(),
		LastUsedAt: time.Now(),
	}, nil
}

func (p *Pool) isHealthy(b *ManagedBrowser) bool {
	if p.opts.MaxAge > 0 && time.Since(b.CreatedAt) > p.opts.MaxAge {
		return false
	}
	if p.opts.MaxRequests > 0 && b.RequestCount >= p.opts.MaxRequests {
		return false
	}

	defer func() { recover() }()
	_, err := b.Browser.Pages()
	return err == nil
}

func (p *Pool) needsRecycle(b *ManagedBrowser) bool {
	if p.opts.MaxAge > 0 && time.Since(b.CreatedAt) > p.opts.MaxAge {
		return true
	}
	if p.opts.MaxRequests > 0 && b.RequestCount >= p.opts.MaxRequests {
		return true
	}
	return false
}

func (p *Pool) closeBrowser(b *ManagedBrowser) {
	if b.Browser == nil {
		return
	}
	if err := b.Browser.Close(); err != nil {
		p.logger.Warn("failed to close browser", "id", b.ID, "error", err)
	}
}

package browser

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const (
	viewportWidth  = 1366
	viewportHeight = 2000

	navTimeout     = 30 * time.Second
	scrollStep     = 300
	scrollInterval = 100 * time.Millisecond
	maxScrollSteps = 60

	screenshotQuality = 80
)

// session is the per-capture surface the capturer drives. The rod
// implementation is the only one used in production; tests substitute
// a fake to exercise the release paths.
type session interface {
	Navigate(ctx context.Context, url string) error
	ScrollToBottom(ctx context.Context) error
	Screenshot(ctx context.Context) ([]byte, error)
}

// Capturer renders pages in a pooled browser and returns full-page
// screenshots as base64 JPEG.
type Capturer struct {
	pool   *Pool
	logger *slog.Logger

	// newSession acquires a browser, opens a page and returns the
	// session plus a cleanup that closes the page and releases the
	// browser back to the pool.
	newSession func(ctx context.Context) (session, func(), error)
}

// NewCapturer creates a capturer backed by the given pool.
func NewCapturer(pool *Pool, logger *slog.Logger) *Capturer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Capturer{pool: pool, logger: logger}
	c.newSession = c.newRodSession
	return c
}

// Capture navigates to pageURL and returns a base64-encoded JPEG of
// the full page. The underlying browser is released back to the pool
// on every path, including navigation and screenshot failures. A
// navigation timeout is tolerated: heavy storefronts often never fire
// the load event even though the product content has rendered.
func (c *Capturer) Capture(ctx context.Context, pageURL string) (string, error) {
	sess, cleanup, err := c.newSession(ctx)
	if err != nil {
		return "", fmt.Errorf("opening browser session: %w", err)
	}
	defer cleanup()

	if err := sess.Navigate(ctx, pageURL); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("navigating to %s: %w", pageURL, err)
		}
		c.logger.Warn("navigation timed out, capturing anyway", "url", pageURL)
	}

	// Lazy-loaded images need the scroll; a failure here is not fatal.
	if err := sess.ScrollToBottom(ctx); err != nil {
		c.logger.Debug("autoscroll failed", "url", pageURL, "error", err)
	}

	data, err := sess.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

func (c *Capturer) newRodSession(ctx context.Context) (session, func(), error) {
	managed, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}

	page, err := stealth.Page(managed.Browser)
	if err != nil {
		c.pool.Release(managed)
		return nil, nil, fmt.Errorf("creating page: %w", err)
	}

	cleanup := func() {
		if err := page.Close(); err != nil {
			c.logger.Debug("failed to close page", "error", err)
		}
		c.pool.Release(managed)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("setting viewport: %w", err)
	}

	blockHeavyResources(page)

	return &rodSession{page: page}, cleanup, nil
}

// blockHeavyResources hijacks the page's network to drop video and
// font requests. Screenshots only need layout and images.
func blockHeavyResources(page *rod.Page) {
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		switch h.Request.Type() {
		case proto.NetworkResourceTypeMedia, proto.NetworkResourceTypeFont:
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		default:
			h.ContinueRequest(&proto.FetchContinueRequest{})
		}
	})
	go router.Run()
}

type rodSession struct {
	page *rod.Page
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx).Timeout(navTimeout)
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (s *rodSession) ScrollToBottom(ctx context.Context) error {
	page := s.page.Context(ctx)
	for i := 0; i < maxScrollSteps; i++ {
		res, err := page.Eval(`(step) => {
			window.scrollBy(0, step);
			return window.scrollY + window.innerHeight >= document.body.scrollHeight;
		}`, scrollStep)
		if err != nil {
			return err
		}
		if res.Value.Bool() {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(scrollInterval):
		}
	}
	// Back to the top so the hero image is in the capture.
	_, err := page.Eval(`() => window.scrollTo(0, 0)`)
	return err
}

func (s *rodSession) Screenshot(ctx context.Context) ([]byte, error) {
	quality := screenshotQuality
	return s.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &quality,
	})
}

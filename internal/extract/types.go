// Package extract fetches product listing pages and turns them into
// markdown plus candidate images. Fetching is organised as an ordered
// chain of strategies; callers get the first successful result.
package extract

import (
	"context"
	"errors"
)

// Strategy names as accepted in API requests and stored on jobs.
const (
	StrategyPrimary = "primary"
	StrategyDirect  = "direct"
	StrategyLegacy  = "legacy"
)

var (
	// ErrEmptyContent means the page was fetched but produced no usable
	// markdown. Treated as a strategy failure so the chain moves on.
	ErrEmptyContent = errors.New("extracted content is empty")

	// ErrPageProtected means the page was served but is behind bot
	// protection or renders its content client-side. Treated as a
	// strategy failure so the chain can fall back to vision capture.
	ErrPageProtected = errors.New("page is protected or JavaScript-rendered")

	// ErrAllStrategiesFailed means every strategy in the chain failed.
	ErrAllStrategiesFailed = errors.New("all extraction strategies failed")
)

// PageContent is the normalized output of a fetch strategy.
type PageContent struct {
	URL      string   // final URL after redirects
	Title    string   // page title if the strategy could determine one
	Markdown string   // page content as markdown
	Images   []string // absolute candidate image URLs in page order
}

// Fetcher fetches a listing page and converts it to PageContent.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, pageURL string) (*PageContent, error)
}

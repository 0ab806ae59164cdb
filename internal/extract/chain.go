package extract

import (
	"context"
	"fmt"
	"log/slog"
)

// Chain runs fetch strategies in order until one succeeds. The order is
// fixed at construction time; there is no global toggle that reroutes
// extraction behind the caller's back.
type Chain struct {
	strategies []Fetcher
	logger     *slog.Logger
}

// NewChain creates a chain that tries strategies in the given order.
func NewChain(logger *slog.Logger, strategies ...Fetcher) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{strategies: strategies, logger: logger}
}

// Strategies returns the names of the configured strategies in order.
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Subchain returns a chain containing only the named strategy, letting
// callers pin extraction to a single provider. Returns an error for
// unknown names.
func (c *Chain) Subchain(name string) (*Chain, error) {
	for _, s := range c.strategies {
		if s.Name() == name {
			return &Chain{strategies: []Fetcher{s}, logger: c.logger}, nil
		}
	}
	return nil, fmt.Errorf("unknown extraction strategy %q", name)
}

// Fetch tries each strategy in order and returns the first successful
// result plus the name of the strategy that produced it. Every strategy
// shares the caller's context, so one deadline bounds the whole chain.
func (c *Chain) Fetch(ctx context.Context, pageURL string) (*PageContent, string, error) {
	if len(c.strategies) == 0 {
		return nil, "", ErrAllStrategiesFailed
	}

	var lastErr error
	for i, strategy := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		content, err := strategy.Fetch(ctx, pageURL)
		if err == nil && (content == nil || content.Markdown == "") {
			err = ErrEmptyContent
		}
		if err == nil {
			if i > 0 {
				c.logger.Info("extraction succeeded after fallback",
					"strategy", strategy.Name(),
					"attempts", i+1,
					"url", pageURL,
				)
			}
			return content, strategy.Name(), nil
		}

		lastErr = err
		c.logger.Warn("extraction strategy failed",
			"strategy", strategy.Name(),
			"url", pageURL,
			"error", err,
			"remaining", len(c.strategies)-i-1,
		)
	}

	return nil, "", fmt.Errorf("%w: %v", ErrAllStrategiesFailed, lastErr)
}

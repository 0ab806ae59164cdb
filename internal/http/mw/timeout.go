package mw

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
)

// TimeoutConfig picks a request timeout by path pattern.
type TimeoutConfig struct {
	// Default applies to most endpoints.
	Default time.Duration

	// Extended applies to paths matching ExtendedPatterns, e.g.
	// "/extract" and "/generate" which wait on LLM inference.
	Extended         time.Duration
	ExtendedPatterns []string

	// SkipPatterns get no timeout at all. Webhook delivery endpoints
	// manage their own deadlines.
	SkipPatterns []string
}

// timeoutFor resolves the deadline for a request path. Zero means no
// timeout.
func (cfg TimeoutConfig) timeoutFor(path string) time.Duration {
	if matchesAny(path, cfg.SkipPatterns) {
		return 0
	}
	if matchesAny(path, cfg.ExtendedPatterns) {
		return cfg.Extended
	}
	return cfg.Default
}

func matchesAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// panicWithStack carries a handler panic across the goroutine boundary
// with the stack from where it happened.
type panicWithStack struct {
	value any
	stack []byte
}

// Timeout enforces per-request deadlines. The handler runs in its own
// goroutine; if the deadline fires first the client gets a 504 and the
// handler's context is canceled.
func Timeout(cfg TimeoutConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timeout := cfg.timeoutFor(r.URL.Path)
			if timeout <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})
			panicked := make(chan *panicWithStack, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- &panicWithStack{value: p, stack: debug.Stack()}
					}
				}()
				next.ServeHTTP(w, r.WithContext(ctx))
				close(done)
			}()

			select {
			case <-done:
			case p := <-panicked:
				// Re-panic on the request goroutine so Recoverer sees it,
				// keeping the original stack in the message.
				panic(fmt.Sprintf("%v\n\nOriginal stack trace:\n%s", p.value, p.stack))
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					w.WriteHeader(http.StatusGatewayTimeout)
				}
			}
		})
	}
}

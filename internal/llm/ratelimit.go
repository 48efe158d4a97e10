package llm

import (
	"context"
	"time"

	llmclient "topicgrid/internal/llm/client"
)

// rpsLimiter is a lightweight token-bucket limiter that throttles to at most
// R requests per second with an optional burst capacity.
type rpsLimiter struct {
	tokens chan struct{}
	stopCh chan struct{}
}

// newRPSLimiter returns nil when rps <= 0; Acquire on nil is a no-op.
func newRPSLimiter(rps float64, burst int) *rpsLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	l := &rpsLimiter{
		tokens: make(chan struct{}, burst),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		l.tokens <- struct{}{}
	}

	period := time.Duration(float64(time.Second) / rps)
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case l.tokens <- struct{}{}:
				default:
					// bucket full
				}
			case <-l.stopCh:
				return
			}
		}
	}()

	return l
}

// Acquire blocks until a token is available or the context is canceled.
func (l *rpsLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return context.Canceled
	case <-l.tokens:
		return nil
	}
}

func (l *rpsLimiter) Stop() {
	if l == nil {
		return
	}
	close(l.stopCh)
}

// RateLimit throttles Complete calls. rps <= 0 disables it. The refill
// goroutine stops when the wrapped provider is closed.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.Provider) llmclient.Provider {
		rl := newRPSLimiter(rps, burst)
		if rl == nil {
			return next
		}
		return &decorated{
			next: next,
			complete: func(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
				if err := rl.Acquire(ctx); err != nil {
					return llmclient.Response{}, err
				}
				return next.Complete(ctx, req)
			},
			close: func() error { rl.Stop(); return nil },
		}
	}
}

package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	llmclient "topicgrid/internal/llm/client"
)

// RetryPolicy is capped exponential backoff with additive jitter.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration
	Jitter      time.Duration
	// Sleep waits between attempts; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy is the proxy path budget: 3 attempts, 150ms doubling to
// a 1s cap, plus up to 100ms of jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Base:        150 * time.Millisecond,
		Max:         time.Second,
		Jitter:      100 * time.Millisecond,
	}
}

// Delay returns the wait before attempt i+1 (i is zero-based), without jitter.
func (p RetryPolicy) Delay(i int) time.Duration {
	d := p.Base << i
	if d <= 0 || (p.Max > 0 && d > p.Max) {
		d = p.Max
	}
	return d
}

// Retryable reports whether err is worth another attempt: an upstream
// status >= 500 that is not marked permanent.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var pe *llmclient.PermanentError
	if errors.As(err, &pe) {
		return false
	}
	return llmclient.StatusOf(err) >= http.StatusInternalServerError
}

// Retry retries Complete on 5xx answers only. Everything else, including
// 4xx, gate rejections and transport failures, is returned at once.
func Retry(p RetryPolicy) Middleware {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Sleep == nil {
		p.Sleep = sleepCtx
	}
	return func(next llmclient.Provider) llmclient.Provider {
		return &decorated{
			next: next,
			complete: func(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
				var last error
				for i := 0; i < p.MaxAttempts; i++ {
					resp, err := next.Complete(ctx, req)
					if err == nil {
						return resp, nil
					}
					last = err
					if !Retryable(err) || i == p.MaxAttempts-1 {
						break
					}
					wait := p.Delay(i)
					if p.Jitter > 0 {
						wait += time.Duration(rand.Int64N(int64(p.Jitter)))
					}
					if err := p.Sleep(ctx, wait); err != nil {
						return llmclient.Response{}, err
					}
				}
				return llmclient.Response{}, last
			},
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	llmclient "topicgrid/internal/llm/client"
)

// ErrCircuitOpen is returned while a provider's breaker rejects calls.
var ErrCircuitOpen = errors.New("llm: provider circuit open")

type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker. Zero means 5.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open. Zero means 30s.
	Timeout time.Duration
	Logger  *zap.Logger
}

// CircuitBreaker stops calling a provider after repeated 5xx or transport
// failures. Client-side errors (4xx, missing keys, cancellations) never
// count against it.
func CircuitBreaker(cfg BreakerConfig) Middleware {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(next llmclient.Provider) llmclient.Provider {
		cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        string(next.Name()),
			MaxRequests: 1,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= cfg.ConsecutiveFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				cfg.Logger.Warn("llm circuit breaker state change",
					zap.String("provider", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
			IsSuccessful: countsAsHealthy,
		})
		return &decorated{
			next: next,
			complete: func(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
				out, err := cb.Execute(func() (interface{}, error) {
					return next.Complete(ctx, req)
				})
				if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
					return llmclient.Response{}, fmt.Errorf("%w: %s", ErrCircuitOpen, next.Name())
				}
				if err != nil {
					return llmclient.Response{}, err
				}
				return out.(llmclient.Response), nil
			},
		}
	}
}

func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ce *llmclient.ConfigurationError
	var ae *llmclient.AuthorizationError
	if errors.As(err, &ce) || errors.As(err, &ae) {
		return true
	}
	var ue *llmclient.UpstreamError
	if errors.As(err, &ue) {
		return ue.Status < 500
	}
	return errors.Is(err, llmclient.ErrEmptyCompletion)
}

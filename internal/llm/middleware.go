// Package llm layers cross-cutting behavior over llmclient providers and
// picks the provider for each call from explicit settings.
package llm

import (
	"context"

	llmclient "topicgrid/internal/llm/client"
)

// Middleware decorates a Provider to inject cross-cutting concerns
// (rate limiting, retries, logging, metrics, circuit breaking).
type Middleware func(llmclient.Provider) llmclient.Provider

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.Provider, mws ...Middleware) llmclient.Provider {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}

// decorated forwards Name/Close so each middleware only implements Complete.
type decorated struct {
	next     llmclient.Provider
	complete func(ctx context.Context, req llmclient.Request) (llmclient.Response, error)
	close    func() error
}

func (d *decorated) Name() llmclient.Name { return d.next.Name() }

func (d *decorated) Close() error {
	if d.close != nil {
		_ = d.close()
	}
	return d.next.Close()
}

func (d *decorated) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	return d.complete(ctx, req)
}

package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/settings"
)

// Completer selects a provider per call from the caller's Settings.
type Completer struct {
	registry *llmclient.Registry
	logger   *zap.Logger
}

func NewCompleter(registry *llmclient.Registry, logger *zap.Logger) *Completer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{registry: registry, logger: logger}
}

// Complete sends req to the provider named by s. When DeepSeek rejects its
// credentials, the same messages go to OpenAI exactly once; every other
// failure is returned as is.
func (c *Completer) Complete(ctx context.Context, s settings.Settings, req llmclient.Request) (llmclient.Response, error) {
	name := s.Provider
	if name == "" {
		name = settings.Default().Provider
	}
	p, err := c.registry.Get(name)
	if err != nil {
		return llmclient.Response{}, err
	}
	resp, err := p.Complete(ctx, req)
	if err == nil || name != llmclient.DeepSeek || !llmclient.IsAuthFailure(err) {
		return resp, err
	}

	fallback, ferr := c.registry.Get(llmclient.OpenAI)
	if ferr != nil {
		return llmclient.Response{}, err
	}
	c.logger.Warn("deepseek rejected credentials, falling back to openai",
		zap.String("task", req.Task), zap.Error(err))
	// The DeepSeek model name means nothing to OpenAI.
	req.Model = ""
	resp, ferr = fallback.Complete(ctx, req)
	if ferr != nil {
		return llmclient.Response{}, fmt.Errorf("openai fallback after deepseek auth failure: %w", ferr)
	}
	return resp, nil
}

// Providers lists the registered provider names.
func (c *Completer) Providers() []llmclient.Name {
	return c.registry.Names()
}

package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"topicgrid/internal/gateway/config"
	"topicgrid/internal/gateway/handler"
	"topicgrid/internal/llm"
	llmclient "topicgrid/internal/llm/client"
)

// BuildRegistry registers one provider per configured backend, each wrapped
// in the standard middleware chain. In direct mode providers call the vendor
// APIs with local keys; in proxy mode OpenAI and DeepSeek go through the
// gateway's /api/<provider> routes. Gemini is always direct and only present
// with a key.
func BuildRegistry(ctx context.Context, cfg config.LLMConfig, metrics *llm.Metrics, logger *zap.Logger) (*llmclient.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := &http.Client{Timeout: cfg.Timeout}

	var base []llmclient.Provider
	switch cfg.Mode {
	case config.ModeProxy:
		for _, name := range []llmclient.Name{llmclient.OpenAI, llmclient.DeepSeek} {
			model := cfg.OpenAIModel
			if name == llmclient.DeepSeek {
				model = cfg.DeepSeekModel
			}
			p, err := llmclient.NewProxyProvider(llmclient.ProxyConfig{
				BaseURL:    cfg.ProxyURL,
				Provider:   name,
				Model:      model,
				HTTPClient: hc,
			})
			if err != nil {
				return nil, fmt.Errorf("proxy provider %s: %w", name, err)
			}
			base = append(base, llm.Wrap(p, llm.Retry(llm.DefaultRetryPolicy())))
		}
	case config.ModeDirect:
		base = append(base,
			llmclient.NewOpenAIProvider(llmclient.OpenAIConfig{
				APIKey:     cfg.OpenAIKey,
				Model:      cfg.OpenAIModel,
				BaseURL:    cfg.OpenAIBaseURL,
				HTTPClient: hc,
			}),
			llmclient.NewDeepSeekProvider(llmclient.DeepSeekConfig{
				APIKey:     cfg.DeepSeekKey,
				Model:      cfg.DeepSeekModel,
				BaseURL:    cfg.DeepSeekBaseURL,
				HTTPClient: hc,
			}),
		)
	default:
		return nil, fmt.Errorf("unknown LLM_MODE %q", cfg.Mode)
	}
	if cfg.GeminiKey != "" {
		g, err := llmclient.NewGeminiProvider(ctx, llmclient.GeminiConfig{APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL})
		if err != nil {
			return nil, fmt.Errorf("gemini provider: %w", err)
		}
		base = append(base, g)
	}

	reg := llmclient.NewRegistry()
	for _, p := range base {
		mws := []llm.Middleware{llm.WithLogging(logger)}
		if metrics != nil {
			mws = append(mws, llm.WithMetrics(metrics))
		}
		mws = append(mws,
			llm.CircuitBreaker(llm.BreakerConfig{Logger: logger}),
			llm.RateLimit(cfg.RPS, cfg.Burst),
		)
		reg.Register(llm.Wrap(p, mws...))
	}
	logger.Info("llm providers ready", zap.String("mode", cfg.Mode), zap.Any("providers", reg.Names()))
	return reg, nil
}

// proxyTargets are the vendors the gateway's own /api/<provider> routes
// forward to.
func proxyTargets(cfg config.LLMConfig) []handler.ProxyTarget {
	return []handler.ProxyTarget{
		{
			Provider: llmclient.OpenAI,
			BaseURL:  firstNonEmpty(cfg.OpenAIBaseURL, handler.DefaultOpenAIBaseURL),
			APIKey:   cfg.OpenAIKey,
			KeyEnv:   "OPENAI_API_KEY",
			Model:    cfg.OpenAIModel,
		},
		{
			Provider: llmclient.DeepSeek,
			BaseURL:  firstNonEmpty(cfg.DeepSeekBaseURL, llmclient.DefaultDeepSeekBaseURL),
			APIKey:   cfg.DeepSeekKey,
			KeyEnv:   "DEEPSEEK_API_KEY",
			Model:    cfg.DeepSeekModel,
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package llmclient

import (
	"context"
	"net/http"
	"strings"
)

const DefaultDeepSeekBaseURL = "https://api.deepseek.com/v1"

type DeepSeekConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// DeepSeekProvider calls the DeepSeek Chat Completions API directly.
// See: https://api-docs.deepseek.com/api/create-chat-completion
type DeepSeekProvider struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
}

func NewDeepSeekProvider(cfg DeepSeekConfig) *DeepSeekProvider {
	base := strings.TrimRight(firstNonEmpty(cfg.BaseURL, DefaultDeepSeekBaseURL), "/")
	return &DeepSeekProvider{
		http:    defaultHTTPClient(cfg.HTTPClient),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   cfg.Model,
		baseURL: base,
	}
}

func (d *DeepSeekProvider) Name() Name   { return DeepSeek }
func (d *DeepSeekProvider) Close() error { return nil }

func (d *DeepSeekProvider) Complete(ctx context.Context, req Request) (Response, error) {
	if d.apiKey == "" {
		return Response{}, &ConfigurationError{Provider: DeepSeek, Key: "DEEPSEEK_API_KEY"}
	}
	return postChat(ctx, d.http, DeepSeek, d.baseURL+"/chat/completions", d.apiKey, chatRequest{
		Model:       ResolveModel(DeepSeek, firstNonEmpty(req.Model, d.model)),
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
}

package llmclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type bearerKey struct{}

// WithBearer attaches the caller's access token so proxy calls can pass the
// membership gate on the caller's behalf.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

func BearerFrom(ctx context.Context) string {
	if v, ok := ctx.Value(bearerKey{}).(string); ok {
		return v
	}
	return ""
}

type ProxyConfig struct {
	// BaseURL is the gateway origin, e.g. https://app.example.com.
	BaseURL    string
	Provider   Name
	Model      string
	HTTPClient *http.Client
}

// ProxyProvider posts to the gateway's /api/<provider> route, which holds the
// real provider key. The request body is identical to a direct call.
type ProxyProvider struct {
	http     *http.Client
	url      string
	provider Name
	model    string
}

func NewProxyProvider(cfg ProxyConfig) (*ProxyProvider, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("proxy: base url is required")
	}
	if _, ok := ParseName(string(cfg.Provider)); !ok {
		return nil, errors.New("proxy: unknown provider " + string(cfg.Provider))
	}
	return &ProxyProvider{
		http:     defaultHTTPClient(cfg.HTTPClient),
		url:      base + "/api/" + string(cfg.Provider),
		provider: cfg.Provider,
		model:    cfg.Model,
	}, nil
}

func (p *ProxyProvider) Name() Name   { return p.provider }
func (p *ProxyProvider) Close() error { return nil }

func (p *ProxyProvider) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := postChat(ctx, p.http, p.provider, p.url, BearerFrom(ctx), chatRequest{
		Model:       ResolveModel(p.provider, firstNonEmpty(req.Model, p.model)),
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	var ue *UpstreamError
	if errors.As(err, &ue) && (ue.Status == http.StatusUnauthorized || ue.Status == http.StatusForbidden) {
		if reason := gateReason([]byte(ue.Body)); reason != "" {
			return Response{}, &AuthorizationError{Status: ue.Status, Reason: reason}
		}
	}
	return resp, err
}

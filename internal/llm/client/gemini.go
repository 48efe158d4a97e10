package llmclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API endpoint, e.g. for a regional proxy.
	BaseURL string
}

// GeminiProvider is a thin wrapper around the official genai client.
// System messages become the system instruction; the rest become turns.
type GeminiProvider struct {
	cli   *genai.Client
	model string
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, &ConfigurationError{Provider: Gemini, Key: "GEMINI_API_KEY"}
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimSpace(cfg.BaseURL)},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{cli: cli, model: cfg.Model}, nil
}

func (g *GeminiProvider) Name() Name   { return Gemini }
func (g *GeminiProvider) Close() error { return nil }

func (g *GeminiProvider) Complete(ctx context.Context, req Request) (Response, error) {
	model := ResolveModel(Gemini, firstNonEmpty(req.Model, g.model))
	var system []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(req.Temperature)}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := g.cli.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code > 0 {
			return Response{}, &UpstreamError{Provider: Gemini, Status: apiErr.Code, Body: apiErr.Message, ErrorType: apiErr.Status}
		}
		return Response{}, fmt.Errorf("gemini: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return Response{}, ErrEmptyCompletion
	}
	return Response{Content: resp.Text(), Model: model, Provider: Gemini}, nil
}

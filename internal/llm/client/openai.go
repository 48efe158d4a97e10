package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIProvider calls OpenAI directly through the go-openai SDK. It is the
// local/dev path; deployed builds reach OpenAI through the gateway proxy.
type OpenAIProvider struct {
	cli    *openai.Client
	apiKey string
	model  string
}

var invalidModelErr = regexp.MustCompile(`(?i)invalid model|model_not_found|does not exist`)

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	key := strings.TrimSpace(cfg.APIKey)
	oc := openai.DefaultConfig(key)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		oc.BaseURL = strings.TrimRight(base, "/")
	}
	oc.HTTPClient = defaultHTTPClient(cfg.HTTPClient)
	return &OpenAIProvider{cli: openai.NewClientWithConfig(oc), apiKey: key, model: cfg.Model}
}

func (o *OpenAIProvider) Name() Name   { return OpenAI }
func (o *OpenAIProvider) Close() error { return nil }

func (o *OpenAIProvider) Complete(ctx context.Context, req Request) (Response, error) {
	if o.apiKey == "" {
		return Response{}, &ConfigurationError{Provider: OpenAI, Key: "OPENAI_API_KEY"}
	}
	model := ResolveModel(OpenAI, firstNonEmpty(req.Model, o.model))
	resp, err := o.create(ctx, model, req)
	if err != nil && model != DefaultOpenAIModel && invalidModelErr.MatchString(err.Error()) {
		model = DefaultOpenAIModel
		resp, err = o.create(ctx, model, req)
	}
	if err != nil {
		return Response{}, upstreamFromSDK(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, ErrEmptyCompletion
	}
	return Response{
		Content:  resp.Choices[0].Message.Content,
		Model:    firstNonEmpty(resp.Model, model),
		Provider: OpenAI,
	}, nil
}

func (o *OpenAIProvider) create(ctx context.Context, model string, req Request) (openai.ChatCompletionResponse, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return o.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      false,
	})
}

func upstreamFromSDK(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &UpstreamError{Provider: OpenAI, Status: apiErr.HTTPStatusCode, Body: apiErr.Message, ErrorType: apiErr.Type}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		body := string(reqErr.Body)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &UpstreamError{Provider: OpenAI, Status: reqErr.HTTPStatusCode, Body: body, ErrorType: errorType(reqErr.Body)}
	}
	return fmt.Errorf("openai: %w", err)
}

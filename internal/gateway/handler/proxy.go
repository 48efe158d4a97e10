package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	llmclient "topicgrid/internal/llm/client"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	defaultProxyMaxTokens   = 800
	defaultProxyTemperature = 0.7
	maxUpstreamBody         = 8 << 20
)

var knownDeepSeekModels = []string{"deepseek-chat", "deepseek-reasoner"}

// ProxyTarget is one provider the proxy forwards to with the server's key.
type ProxyTarget struct {
	Provider llmclient.Name
	// BaseURL is the provider's OpenAI-compatible API root.
	BaseURL string
	APIKey  string
	// KeyEnv names the variable the key comes from, for error messages.
	KeyEnv string
	Model  string
}

// Proxy relays chat completion and OpenAI Responses bodies to the provider,
// holding the API key server side. Upstream status and body are returned
// verbatim.
type Proxy struct {
	http    *http.Client
	targets map[llmclient.Name]ProxyTarget
	logger  *zap.Logger
}

func NewProxy(timeout time.Duration, logger *zap.Logger, targets ...ProxyTarget) *Proxy {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Proxy{
		http:    &http.Client{Timeout: timeout},
		targets: make(map[llmclient.Name]ProxyTarget, len(targets)),
		logger:  logger,
	}
	for _, t := range targets {
		t.BaseURL = strings.TrimRight(t.BaseURL, "/")
		p.targets[t.Provider] = t
	}
	return p
}

type proxyRequest struct {
	Model       string          `json:"model"`
	Messages    json.RawMessage `json:"messages"`
	MaxTokens   *int            `json:"max_tokens"`
	Temperature *float64        `json:"temperature"`
	Stream      bool            `json:"stream"`
}

type upstreamRequest struct {
	Model       string          `json:"model"`
	Messages    json.RawMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Stream      bool            `json:"stream"`
}

// Handle serves POST /api/<provider>.
func (p *Proxy) Handle(provider llmclient.Name) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		target, ok := p.targets[provider]
		if !ok || strings.TrimSpace(target.APIKey) == "" {
			key := target.KeyEnv
			if key == "" {
				key = strings.ToUpper(string(provider)) + "_API_KEY"
			}
			writeErrorMsg(w, http.StatusInternalServerError, key+" not configured")
			return
		}

		var in proxyRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_json", Detail: err.Error()})
			return
		}
		out := upstreamRequest{
			Model:       p.model(target, in.Model),
			Messages:    in.Messages,
			MaxTokens:   defaultProxyMaxTokens,
			Temperature: defaultProxyTemperature,
			Stream:      in.Stream,
		}
		if len(out.Messages) == 0 || string(out.Messages) == "null" {
			out.Messages = json.RawMessage("[]")
		}
		if in.MaxTokens != nil {
			out.MaxTokens = *in.MaxTokens
		}
		if in.Temperature != nil {
			out.Temperature = *in.Temperature
		}

		p.relay(w, r, target, "/chat/completions", out)
	}
}

type responsesRequest struct {
	Prompt   json.RawMessage `json:"prompt"`
	PromptID json.RawMessage `json:"promptId"`
	Input    json.RawMessage `json:"input"`
	Messages json.RawMessage `json:"messages"`
	Model    string          `json:"model"`
}

type responsesUpstream struct {
	Model  string          `json:"model,omitempty"`
	Prompt json.RawMessage `json:"prompt,omitempty"`
	Input  json.RawMessage `json:"input,omitempty"`
}

// Responses serves POST /api/responses against the OpenAI Responses API.
// A stored prompt (prompt or promptId) pins its own model, so model is only
// sent without one. messages is forwarded as input when input is absent.
func (p *Proxy) Responses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		target, ok := p.targets[llmclient.OpenAI]
		if !ok || strings.TrimSpace(target.APIKey) == "" {
			key := target.KeyEnv
			if key == "" {
				key = "OPENAI_API_KEY"
			}
			writeErrorMsg(w, http.StatusInternalServerError, key+" not configured")
			return
		}

		var in responsesRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_json", Detail: err.Error()})
			return
		}
		var out responsesUpstream
		switch {
		case present(in.Prompt):
			out.Prompt = in.Prompt
		case present(in.PromptID):
			out.Prompt = promptRef(in.PromptID)
		}
		switch {
		case present(in.Input):
			out.Input = in.Input
		case present(in.Messages):
			out.Input = in.Messages
		}
		if out.Prompt == nil {
			out.Model = p.model(target, in.Model)
		}
		p.relay(w, r, target, "/responses", out)
	}
}

func present(raw json.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	return v != "" && v != "null" && v != `""` && v != "false"
}

// promptRef turns a promptId (string or number) into {"id":"..."}.
func promptRef(raw json.RawMessage) json.RawMessage {
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		id = strings.TrimSpace(string(raw))
	}
	ref, _ := json.Marshal(map[string]string{"id": id})
	return ref
}

func (p *Proxy) relay(w http.ResponseWriter, r *http.Request, target ProxyTarget, path string, body any) {
	status, contentType, raw, err := p.forward(r, target, path, body)
	if err != nil {
		p.logger.Warn("proxy transport failure",
			zap.String("provider", string(target.Provider)), zap.String("path", path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Proxy error", Detail: err.Error()})
		return
	}
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func (p *Proxy) model(t ProxyTarget, requested string) string {
	switch t.Provider {
	case llmclient.OpenAI:
		return llmclient.ResolveModel(llmclient.OpenAI, firstNonEmpty(requested, t.Model))
	default:
		m := llmclient.ResolveModel(t.Provider, firstNonEmpty(requested, t.Model))
		if t.Provider == llmclient.DeepSeek && !slices.Contains(knownDeepSeekModels, m) {
			p.logger.Warn("deepseek model may be invalid", zap.String("model", m), zap.Strings("known", knownDeepSeekModels))
		}
		return m
	}
}

func (p *Proxy) forward(r *http.Request, t ProxyTarget, path string, body any) (int, string, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, "", nil, err
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, t.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.APIKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return 0, "", nil, fmt.Errorf("read upstream body: %w", err)
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), raw, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ProxyTo serves POST /api/<provider>; without a proxy every call reports the
// provider's key as missing.
func (h *Handler) ProxyTo(provider llmclient.Name) http.HandlerFunc {
	p := h.proxy
	if p == nil {
		p = NewProxy(0, h.logger)
	}
	return p.Handle(provider)
}

// ProxyResponses serves POST /api/responses with the server's OpenAI key.
func (h *Handler) ProxyResponses() http.HandlerFunc {
	p := h.proxy
	if p == nil {
		p = NewProxy(0, h.logger)
	}
	return p.Responses()
}

package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAI-compatible chat completion wire format shared by DeepSeek and the
// gateway proxy routes.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorBody struct {
	Error json.RawMessage `json:"error"`
}

const maxErrorBody = 2048

func defaultHTTPClient(hc *http.Client) *http.Client {
	if hc != nil {
		return hc
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// postChat sends one non-streaming completion and returns choices[0].
// Non-2xx answers become *UpstreamError carrying the (truncated) body.
func postChat(ctx context.Context, hc *http.Client, provider Name, url, bearer string, body chatRequest) (Response, error) {
	body.Stream = false
	b, err := json.Marshal(body)
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s: %w", provider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Response{}, &UpstreamError{
			Provider:  provider,
			Status:    resp.StatusCode,
			Body:      string(raw),
			ErrorType: errorType(raw),
		}
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("%s: decode completion: %w", provider, err)
	}
	if len(out.Choices) == 0 {
		return Response{}, ErrEmptyCompletion
	}
	model := out.Model
	if model == "" {
		model = body.Model
	}
	return Response{Content: out.Choices[0].Message.Content, Model: model, Provider: provider}, nil
}

// errorType extracts error.type from {"error":{"type":"..."}} bodies.
func errorType(raw []byte) string {
	var eb errorBody
	if json.Unmarshal(raw, &eb) != nil || len(eb.Error) == 0 {
		return ""
	}
	var obj struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(eb.Error, &obj) != nil {
		return ""
	}
	return obj.Type
}

// gateReason extracts the reason from a gate rejection body {"error":"unauthorized"}.
// Provider errors carry an object under "error" and yield "".
func gateReason(raw []byte) string {
	var eb errorBody
	if json.Unmarshal(raw, &eb) != nil || len(eb.Error) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(eb.Error, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

package llmclient

import (
	"context"
	"strings"
)

// Name identifies an LLM provider. It doubles as the persisted preference
// value and as the proxy route suffix (/api/<name>).
type Name string

const (
	OpenAI   Name = "openai"
	DeepSeek Name = "deepseek"
	Gemini   Name = "gemini"
)

// ParseName normalizes a provider name, reporting false for unknown values.
func ParseName(s string) (Name, bool) {
	switch n := Name(strings.ToLower(strings.TrimSpace(s))); n {
	case OpenAI, DeepSeek, Gemini:
		return n, true
	}
	return "", false
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is one non-streaming chat completion.
type Request struct {
	// Model overrides the provider's configured model for this call.
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
	// Task labels the call for logs and metrics ("keyword:who", "classify", ...).
	Task string
}

type Response struct {
	// Content is choices[0].message.content, untouched.
	Content  string
	Model    string
	Provider Name
}

// Provider sends chat completions to one LLM backend.
type Provider interface {
	Name() Name
	Complete(ctx context.Context, req Request) (Response, error)
	Close() error
}

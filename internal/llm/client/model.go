package llmclient

import (
	"regexp"
	"strings"
)

const (
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultDeepSeekModel = "deepseek-chat"
	DefaultGeminiModel   = "gemini-2.5-flash"
)

// invalidOpenAIModel matches model ids that are known not to serve chat
// completions for this account.
var invalidOpenAIModel = regexp.MustCompile(`(?i)gpt-5|invalid|kp`)

// ResolveModel returns the model to send for provider p, substituting the
// provider default when configured is blank (or, for OpenAI, known-invalid).
func ResolveModel(p Name, configured string) string {
	m := strings.TrimSpace(configured)
	switch p {
	case DeepSeek:
		if m == "" {
			return DefaultDeepSeekModel
		}
	case Gemini:
		if m == "" {
			return DefaultGeminiModel
		}
	default:
		if m == "" || invalidOpenAIModel.MatchString(m) {
			return DefaultOpenAIModel
		}
	}
	return m
}

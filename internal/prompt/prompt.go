// Package prompt renders the system/user message pair for every completion
// task. It does no I/O.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/lang"
)

// Task identifies what a completion is for. Keyword tasks carry their
// dimension: "keyword:who", "keyword:painpoint".
type Task string

const (
	TaskTopicSynthesis Task = "topicSynthesis"
	TaskClassify       Task = "classify"
	TaskContentPlan    Task = "contentPlan"

	keywordPrefix = "keyword:"
)

// KeywordsPerDimension is the fixed column height of every board.
const KeywordsPerDimension = 8

func KeywordTask(dimension string) Task {
	return Task(keywordPrefix + dimension)
}

// Dimension returns the dimension of a keyword task.
func (t Task) Dimension() (string, bool) {
	s := string(t)
	if !strings.HasPrefix(s, keywordPrefix) || len(s) == len(keywordPrefix) {
		return "", false
	}
	return s[len(keywordPrefix):], true
}

// ErrInvalidParams marks parameters a caller should have rejected.
var ErrInvalidParams = errors.New("prompt: invalid params")

type Params struct {
	Topic string
	// Locked holds the keyword values already fixed in the dimension.
	Locked []string
	// Selected maps dimension id to the keywords picked for topic synthesis.
	Selected map[string][]string
	Flow     Flow
	// Count is the number of topics to synthesize.
	Count int
	// Topics is the classify input.
	Topics []string
	// Script forces the prompt language; empty means detect from the input.
	Script lang.Script
}

// Prompt is a rendered message pair plus the sampling settings the task uses.
type Prompt struct {
	Task        Task
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Request turns p into a completion request.
func (p Prompt) Request() llmclient.Request {
	return llmclient.Request{
		Messages: []llmclient.Message{
			{Role: llmclient.RoleSystem, Content: p.System},
			{Role: llmclient.RoleUser, Content: p.User},
		},
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		Task:        string(p.Task),
	}
}

// Build renders the prompt for task.
func Build(task Task, params Params) (Prompt, error) {
	if dim, ok := task.Dimension(); ok {
		return buildKeyword(task, dim, params)
	}
	switch task {
	case TaskTopicSynthesis:
		return buildTopics(params)
	case TaskClassify:
		return buildClassify(params)
	case TaskContentPlan:
		return buildContentPlan(params)
	}
	return Prompt{}, fmt.Errorf("%w: unknown task %q", ErrInvalidParams, task)
}

func scriptOf(p Params, fallback ...string) lang.Script {
	if p.Script != "" {
		return p.Script
	}
	return lang.First(fallback...)
}

// dedent drops the common indentation of a raw string literal.
func dedent(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimLeft(l, " \t")
	}
	return strings.Join(lines, "\n")
}

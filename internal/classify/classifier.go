package classify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/parse"
	"topicgrid/internal/prompt"
)

// Completer is the completion capability the classifier escalates to.
type Completer interface {
	Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req llmclient.Request) (llmclient.Response, error)

func (f CompleterFunc) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	return f(ctx, req)
}

type Classifier struct {
	rules  []rule
	logger *zap.Logger
}

func New(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{rules: defaultRules, logger: logger}
}

// Local labels each topic by rule score alone. ambiguous reports whether any
// topic matched no rule and fell back to Curiosity.
func (c *Classifier) Local(topics []string) (labels []Category, ambiguous bool) {
	labels = make([]Category, len(topics))
	for i, t := range topics {
		cat, s := score(c.rules, strings.TrimSpace(t))
		labels[i] = cat
		if s == 0 {
			ambiguous = true
		}
	}
	return labels, ambiguous
}

// Classify returns one category per topic, in order. It never fails: when
// any topic is ambiguous and llm is non-nil, one batched completion is tried
// and its answer is used only if it parses into a full-length array of
// known labels.
func (c *Classifier) Classify(ctx context.Context, topics []string, llm Completer) []Category {
	labels, ambiguous := c.Local(topics)
	if !ambiguous || llm == nil || len(topics) == 0 {
		return labels
	}

	p, err := prompt.Build(prompt.TaskClassify, prompt.Params{Topics: topics})
	if err != nil {
		return labels
	}
	resp, err := llm.Complete(ctx, p.Request())
	if err != nil {
		c.logger.Debug("classify escalation failed, keeping rule labels", zap.Error(err))
		return labels
	}
	remote, ok := decode(resp.Content, len(topics))
	if !ok {
		c.logger.Debug("classify escalation unusable, keeping rule labels", zap.Int("topics", len(topics)))
		return labels
	}
	return remote
}

func decode(raw string, n int) ([]Category, bool) {
	var items []string
	if err := parse.JSON(raw, &items); err != nil || len(items) != n {
		return nil, false
	}
	out := make([]Category, n)
	for i, s := range items {
		cat, ok := Parse(s)
		if !ok {
			return nil, false
		}
		out[i] = cat
	}
	return out, true
}

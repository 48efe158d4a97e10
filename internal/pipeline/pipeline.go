// Package pipeline runs the generation flows: keywords per dimension, topic
// synthesis from a keyword selection, classification and content plans.
package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"topicgrid/internal/classify"
	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/settings"
)

// TopicsPerSet is the number of topics one "set" asks for: one per
// narrative category. Both flows use it.
const TopicsPerSet = 6

var (
	// ErrStale is returned when a newer round on the same dimension
	// superseded this one; its result was discarded.
	ErrStale = errors.New("pipeline: superseded by a newer generation")
	// ErrInvalidSets rejects a topic request for fewer than one set.
	ErrInvalidSets = errors.New("pipeline: sets must be at least 1")
	// ErrNoSelection rejects topic synthesis with nothing selected.
	ErrNoSelection = errors.New("pipeline: no keywords selected")
	ErrEmptyTopic  = errors.New("pipeline: topic is empty")
)

// Completer is satisfied by *llm.Completer.
type Completer interface {
	Complete(ctx context.Context, s settings.Settings, req llmclient.Request) (llmclient.Response, error)
}

type Generator struct {
	completer  Completer
	classifier *classify.Classifier
	logger     *zap.Logger
}

func New(completer Completer, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		completer:  completer,
		classifier: classify.New(logger.Named("classify")),
		logger:     logger,
	}
}

// bind fixes the settings so single-provider callers can use the completer.
func (g *Generator) bind(s settings.Settings) classify.CompleterFunc {
	return func(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
		return g.completer.Complete(ctx, s, req)
	}
}

// Classify labels topics; see classify.Classifier. It never fails.
func (g *Generator) Classify(ctx context.Context, s settings.Settings, topics []string) []classify.Category {
	return g.classifier.Classify(ctx, topics, g.bind(s))
}

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"topicgrid/internal/grid"
	"topicgrid/internal/parse"
	"topicgrid/internal/prompt"
	"topicgrid/internal/settings"
)

type TopicRequest struct {
	Flow prompt.Flow
	// Topic is the core topic; required for the nine-grid flow.
	Topic string
	// Selected maps dimension id to keyword values.
	Selected map[string][]string
	Sets     int
}

// Count is the number of topics the request asks for.
func (r TopicRequest) Count() int { return r.Sets * TopicsPerSet }

// GenerateTopics synthesizes Count() topics. Extra lines from the model are
// cut; a short answer is returned as is, possibly empty.
func (g *Generator) GenerateTopics(ctx context.Context, s settings.Settings, req TopicRequest) ([]string, error) {
	if req.Sets < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSets, req.Sets)
	}
	if req.Flow == "" {
		req.Flow = prompt.FlowDWHY
	}
	if req.Flow == prompt.FlowNineGrid && strings.TrimSpace(req.Topic) == "" {
		return nil, ErrEmptyTopic
	}
	if !hasSelection(req.Selected) {
		return nil, ErrNoSelection
	}

	count := req.Count()
	p, err := prompt.Build(prompt.TaskTopicSynthesis, prompt.Params{
		Flow:     req.Flow,
		Topic:    req.Topic,
		Selected: req.Selected,
		Count:    count,
	})
	if err != nil {
		return nil, err
	}
	resp, err := g.completer.Complete(ctx, s, p.Request())
	if err != nil {
		return nil, err
	}
	topics := parse.List(resp.Content, parse.TopicOptions)
	if len(topics) > count {
		topics = topics[:count]
	}
	return topics, nil
}

// GenerateNineGridTopics synthesizes topics from a nine-grid board and
// stores them on it.
func (g *Generator) GenerateNineGridTopics(ctx context.Context, s settings.Settings, b *grid.Board, sets int) ([]string, error) {
	if b.Flow() != prompt.FlowNineGrid {
		return nil, fmt.Errorf("%w: board flow is %s", prompt.ErrInvalidParams, b.Flow())
	}
	return g.BoardTopics(ctx, s, b, sets)
}

// BoardTopics synthesizes from b's current selection and stores the result.
func (g *Generator) BoardTopics(ctx context.Context, s settings.Settings, b *grid.Board, sets int) ([]string, error) {
	topics, err := g.GenerateTopics(ctx, s, TopicRequest{
		Flow:     b.Flow(),
		Topic:    b.Topic(),
		Selected: b.Selection(),
		Sets:     sets,
	})
	if err != nil {
		return nil, err
	}
	b.SetTopics(topics)
	return topics, nil
}

func hasSelection(m map[string][]string) bool {
	for _, v := range m {
		if len(v) > 0 {
			return true
		}
	}
	return false
}

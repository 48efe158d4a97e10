package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"topicgrid/internal/grid"
	"topicgrid/internal/parse"
	"topicgrid/internal/prompt"
	"topicgrid/internal/settings"
)

// GenerateKeywords refills dim for topic. On failure the dimension keeps its
// keywords and records the error; the error is also returned.
func (g *Generator) GenerateKeywords(ctx context.Context, s settings.Settings, dim *grid.Dimension, topic string) ([]grid.Keyword, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return dim.Keywords(), ErrEmptyTopic
	}
	gen, locked := dim.Begin()
	if len(locked) >= prompt.KeywordsPerDimension {
		dim.Commit(gen, nil)
		return dim.Keywords(), nil
	}

	values, err := g.keywordValues(ctx, s, dim.ID(), topic, locked)
	if err != nil {
		dim.Fail(gen, err)
		return dim.Keywords(), err
	}
	if !dim.Commit(gen, values) {
		return dim.Keywords(), ErrStale
	}
	return dim.Keywords(), nil
}

// Keywords is the stateless form: locked values come first, new values fill
// the rest up to eight.
func (g *Generator) Keywords(ctx context.Context, s settings.Settings, dimension, topic string, locked []string) ([]grid.Keyword, error) {
	if _, _, ok := prompt.LookupDimension(dimension); !ok {
		return nil, fmt.Errorf("%w: unknown dimension %q", prompt.ErrInvalidParams, dimension)
	}
	dim := grid.NewDimension(dimension)
	for _, k := range dim.Merge(locked) {
		_, _ = dim.ToggleLock(k.ID)
	}
	return g.GenerateKeywords(ctx, s, dim, topic)
}

func (g *Generator) keywordValues(ctx context.Context, s settings.Settings, dimension, topic string, locked []string) ([]string, error) {
	p, err := prompt.Build(prompt.KeywordTask(dimension), prompt.Params{Topic: topic, Locked: locked})
	if err != nil {
		return nil, err
	}
	resp, err := g.completer.Complete(ctx, s, p.Request())
	if err != nil {
		return nil, err
	}
	values := parse.List(resp.Content, parse.KeywordOptions)
	if _, flow, _ := prompt.LookupDimension(dimension); flow == prompt.FlowNineGrid {
		values = FilterRelevant(values, topic)
	}
	// Left uncapped: Commit drops repeats of locked values before it stops at eight.
	return values, nil
}

// DimensionResult is the outcome of one dimension in a board-wide run.
type DimensionResult struct {
	Dimension string         `json:"dimension"`
	Keywords  []grid.Keyword `json:"keywords"`
	Error     string         `json:"error,omitempty"`
	Skipped   bool           `json:"skipped,omitempty"`
	Err       error          `json:"-"`
}

// GenerateBoard refills every unlocked dimension of b concurrently. A failed
// dimension never cancels its siblings. onResult, if set, is called as each
// dimension finishes, from that dimension's goroutine. Results come back in
// board order.
func (g *Generator) GenerateBoard(ctx context.Context, s settings.Settings, b *grid.Board, topic string, onResult func(DimensionResult)) []DimensionResult {
	b.SetTopic(strings.TrimSpace(topic))
	dims := b.Dimensions()
	results := make([]DimensionResult, len(dims))

	var eg errgroup.Group
	for i, d := range dims {
		i, d := i, d
		if d.Locked() {
			results[i] = DimensionResult{Dimension: d.ID(), Keywords: d.Keywords(), Skipped: true}
			if onResult != nil {
				onResult(results[i])
			}
			continue
		}
		eg.Go(func() error {
			kws, err := g.GenerateKeywords(ctx, s, d, topic)
			r := DimensionResult{Dimension: d.ID(), Keywords: kws, Err: err}
			if err != nil {
				r.Error = err.Error()
				g.logger.Warn("dimension generation failed",
					zap.String("flow", string(b.Flow())),
					zap.String("dimension", d.ID()),
					zap.Error(err))
			}
			results[i] = r
			if onResult != nil {
				onResult(r)
			}
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// GenerateDWHY fires Domain, Who and Why at once.
func (g *Generator) GenerateDWHY(ctx context.Context, s settings.Settings, b *grid.Board, topic string) ([]DimensionResult, error) {
	if b.Flow() != prompt.FlowDWHY {
		return nil, fmt.Errorf("%w: board flow is %s", prompt.ErrInvalidParams, b.Flow())
	}
	return g.GenerateBoard(ctx, s, b, topic, nil), nil
}

// GenerateNineGridKeywords refills the eight trigger dimensions, skipping locked ones.
func (g *Generator) GenerateNineGridKeywords(ctx context.Context, s settings.Settings, b *grid.Board, topic string) ([]DimensionResult, error) {
	if b.Flow() != prompt.FlowNineGrid {
		return nil, fmt.Errorf("%w: board flow is %s", prompt.ErrInvalidParams, b.Flow())
	}
	return g.GenerateBoard(ctx, s, b, topic, nil), nil
}

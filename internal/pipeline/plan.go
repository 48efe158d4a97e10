package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"topicgrid/internal/lang"
	"topicgrid/internal/parse"
	"topicgrid/internal/prompt"
	"topicgrid/internal/settings"
)

// ContentPlan is a short-video script skeleton for one topic.
type ContentPlan struct {
	Hook        string   `json:"hook"`
	Positioning string   `json:"positioning"`
	Painpoint   string   `json:"painpoint"`
	Solution    string   `json:"solution"`
	CTA         string   `json:"cta"`
	Outline     []string `json:"outline,omitempty"`
}

// UnmarshalJSON accepts solution as a string or a list and outline as a list
// or a single string; models return both shapes.
func (p *ContentPlan) UnmarshalJSON(b []byte) error {
	var wire struct {
		Hook        string          `json:"hook"`
		Positioning string          `json:"positioning"`
		Painpoint   string          `json:"painpoint"`
		Solution    json.RawMessage `json:"solution"`
		CTA         string          `json:"cta"`
		Outline     json.RawMessage `json:"outline"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	solution, err := stringOrList(wire.Solution)
	if err != nil {
		return fmt.Errorf("solution: %w", err)
	}
	outline, err := stringOrList(wire.Outline)
	if err != nil {
		return fmt.Errorf("outline: %w", err)
	}
	sep := "; "
	if lang.IsCJK(strings.Join(solution, "")) {
		sep = "；"
	}
	*p = ContentPlan{
		Hook:        wire.Hook,
		Positioning: wire.Positioning,
		Painpoint:   wire.Painpoint,
		Solution:    strings.Join(solution, sep),
		CTA:         wire.CTA,
		Outline:     outline,
	}
	return nil
}

func stringOrList(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ContentPlan expands topic into a plan. A completion that does not decode
// after the corrective pass returns an error matching parse.ErrParse.
func (g *Generator) ContentPlan(ctx context.Context, s settings.Settings, topic string) (ContentPlan, error) {
	if strings.TrimSpace(topic) == "" {
		return ContentPlan{}, ErrEmptyTopic
	}
	p, err := prompt.Build(prompt.TaskContentPlan, prompt.Params{Topic: topic})
	if err != nil {
		return ContentPlan{}, err
	}
	resp, err := g.completer.Complete(ctx, s, p.Request())
	if err != nil {
		return ContentPlan{}, err
	}
	var plan ContentPlan
	if err := parse.JSON(resp.Content, &plan); err != nil {
		return ContentPlan{}, err
	}
	return plan, nil
}

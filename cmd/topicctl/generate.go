package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"topicgrid/internal/classify"
	"topicgrid/internal/grid"
	"topicgrid/internal/lang"
	"topicgrid/internal/pipeline"
	"topicgrid/internal/prompt"
)

var (
	kwDimension string
	kwLocked    []string

	gridFlow   string
	gridLocked []string

	topicsFlow     string
	topicsSelect   []string
	topicsSets     int
	topicsClassify bool
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords <topic>",
	Short: "Generate eight keywords for one dimension",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
		kws, err := e.gen.Keywords(ctx, e.settings, kwDimension, args[0], kwLocked)
		if err != nil {
			return err
		}
		if jsonOutput {
			return e.printJSON(kws)
		}
		for _, k := range kws {
			mark := " "
			if k.IsLocked {
				mark = "*"
			}
			fmt.Fprintf(e.out, "%s %s\n", mark, k.Value)
		}
		return nil
	}),
}

var gridCmd = &cobra.Command{
	Use:   "grid <topic>",
	Short: "Fill every dimension of a board concurrently",
	Long: `grid fills all dimensions of the chosen flow at once. A failed dimension
is reported on its own line and never stops the others.`,
	Args: cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
		flow, ok := prompt.ParseFlow(gridFlow)
		if !ok {
			return fmt.Errorf("unknown flow %q", gridFlow)
		}
		b := grid.NewBoard(flow)
		for _, id := range gridLocked {
			d, ok := b.Dimension(id)
			if !ok {
				return fmt.Errorf("unknown dimension %q", id)
			}
			d.SetLocked(true)
		}
		results := e.gen.GenerateBoard(ctx, e.settings, b, args[0], nil)
		if jsonOutput {
			return e.printJSON(b.Snapshot())
		}
		for _, r := range results {
			switch {
			case r.Skipped:
				fmt.Fprintf(e.out, "%-12s (locked)\n", r.Dimension)
			case r.Err != nil:
				fmt.Fprintf(e.out, "%-12s error: %v\n", r.Dimension, r.Err)
			default:
				fmt.Fprintf(e.out, "%-12s %s\n", r.Dimension, strings.Join(values(r.Keywords), ", "))
			}
		}
		return nil
	}),
}

var topicsCmd = &cobra.Command{
	Use:   "topics <topic>",
	Short: "Synthesize topics from selected keywords",
	Example: `  topicctl topics "home coffee" -s domain=espresso,grinders -s who=students --sets 2
  topicctl topics "home coffee" --flow ninegrid -s painpoint=cost -s mistake="buying pods"`,
	Args: cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
		selected, err := parseSelection(topicsSelect)
		if err != nil {
			return err
		}
		flow, ok := prompt.ParseFlow(topicsFlow)
		if !ok {
			return fmt.Errorf("unknown flow %q", topicsFlow)
		}
		topics, err := e.gen.GenerateTopics(ctx, e.settings, pipeline.TopicRequest{
			Flow:     flow,
			Topic:    args[0],
			Selected: selected,
			Sets:     topicsSets,
		})
		if err != nil {
			return err
		}
		var cats []classify.Category
		if topicsClassify {
			cats = e.gen.Classify(ctx, e.settings, topics)
		}
		return printTopics(e, topics, cats)
	}),
}

var classifyCmd = &cobra.Command{
	Use:   "classify <topic>...",
	Short: "Label topics with a narrative category",
	Args:  cobra.MinimumNArgs(1),
	RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
		return printTopics(e, args, e.gen.Classify(ctx, e.settings, args))
	}),
}

var planCmd = &cobra.Command{
	Use:   "plan <topic>",
	Short: "Draft a short-video content plan for one topic",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
		plan, err := e.gen.ContentPlan(ctx, e.settings, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return e.printJSON(plan)
		}
		fmt.Fprintf(e.out, "Hook:        %s\n", plan.Hook)
		fmt.Fprintf(e.out, "Positioning: %s\n", plan.Positioning)
		fmt.Fprintf(e.out, "Painpoint:   %s\n", plan.Painpoint)
		fmt.Fprintf(e.out, "Solution:    %s\n", plan.Solution)
		fmt.Fprintf(e.out, "CTA:         %s\n", plan.CTA)
		for i, line := range plan.Outline {
			fmt.Fprintf(e.out, "  %d. %s\n", i+1, line)
		}
		return nil
	}),
}

func init() {
	keywordsCmd.Flags().StringVarP(&kwDimension, "dimension", "d", "domain", "dimension id (domain, who, why, or a nine-grid trigger)")
	keywordsCmd.Flags().StringSliceVarP(&kwLocked, "locked", "l", nil, "keywords to keep; they count toward the eight")

	gridCmd.Flags().StringVarP(&gridFlow, "flow", "f", string(prompt.FlowDWHY), "board flow (dwhy or ninegrid)")
	gridCmd.Flags().StringSliceVar(&gridLocked, "skip", nil, "dimensions to leave untouched")

	topicsCmd.Flags().StringVarP(&topicsFlow, "flow", "f", string(prompt.FlowDWHY), "board flow (dwhy or ninegrid)")
	topicsCmd.Flags().StringArrayVarP(&topicsSelect, "select", "s", nil, "dimension=kw1,kw2 (repeatable)")
	topicsCmd.Flags().IntVarP(&topicsSets, "sets", "n", 1, "number of six-topic sets (1-10)")
	topicsCmd.Flags().BoolVarP(&topicsClassify, "classify", "c", false, "label each topic with its category")

	rootCmd.AddCommand(keywordsCmd, gridCmd, topicsCmd, classifyCmd, planCmd)
}

// parseSelection turns ["domain=a,b", "who=c"] into a selection map.
func parseSelection(entries []string) (map[string][]string, error) {
	out := make(map[string][]string, len(entries))
	for _, entry := range entries {
		dim, list, ok := strings.Cut(entry, "=")
		dim = strings.TrimSpace(dim)
		if !ok || dim == "" {
			return nil, fmt.Errorf("bad --select %q: want dimension=kw1,kw2", entry)
		}
		for _, v := range strings.Split(list, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out[dim] = append(out[dim], v)
			}
		}
	}
	return out, nil
}

func values(kws []grid.Keyword) []string {
	out := make([]string, len(kws))
	for i, k := range kws {
		out[i] = k.Value
	}
	return out
}

type labeledTopic struct {
	Topic    string            `json:"topic"`
	Category classify.Category `json:"category,omitempty"`
}

func printTopics(e *env, topics []string, cats []classify.Category) error {
	if jsonOutput {
		out := make([]labeledTopic, len(topics))
		for i, t := range topics {
			out[i] = labeledTopic{Topic: t}
			if i < len(cats) {
				out[i].Category = cats[i]
			}
		}
		return e.printJSON(out)
	}
	for i, t := range topics {
		if i < len(cats) {
			fmt.Fprintf(e.out, "%2d. [%s] %s\n", i+1, cats[i].Label(lang.IsCJK(t)), t)
			continue
		}
		fmt.Fprintf(e.out, "%2d. %s\n", i+1, t)
	}
	return nil
}

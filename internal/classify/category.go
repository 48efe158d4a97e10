// Package classify labels generated topics with one of six narrative
// categories.
package classify

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Category string

const (
	RealStory  Category = "real_story"
	Debate     Category = "debate"
	Curiosity  Category = "curiosity"
	Benefit    Category = "benefit"
	Experience Category = "experience"
	FOMO       Category = "fomo"
)

// All lists the categories in presentation order.
var All = []Category{RealStory, Debate, Curiosity, Benefit, Experience, FOMO}

var (
	labelsZH = map[Category]string{
		RealStory:  "真人真事",
		Debate:     "争议讨论",
		Curiosity:  "好奇心理",
		Benefit:    "利益驱动",
		Experience: "经验价值",
		FOMO:       "FOMO心态",
	}
	labelsEN = map[Category]string{
		RealStory:  "Real Story",
		Debate:     "Debate",
		Curiosity:  "Curiosity",
		Benefit:    "Benefit",
		Experience: "Experience",
		FOMO:       "FOMO",
	}
	byLabel = func() map[string]Category {
		m := make(map[string]Category, 3*len(All))
		for _, c := range All {
			m[normalizeLabel(string(c))] = c
			m[normalizeLabel(labelsZH[c])] = c
			m[normalizeLabel(labelsEN[c])] = c
		}
		return m
	}()
)

func (c Category) Valid() bool {
	_, ok := labelsEN[c]
	return ok
}

// Label is the display name in Chinese (zh) or English (anything else).
func (c Category) Label(zh bool) string {
	if zh {
		return labelsZH[c]
	}
	return labelsEN[c]
}

// Parse accepts the id, Chinese label or English label, ignoring case,
// spaces, underscores and brackets.
func Parse(s string) (Category, bool) {
	c, ok := byLabel[normalizeLabel(s)]
	return c, ok
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '[', ']', '【', '】':
			return -1
		}
		return r
	}, s)
}

// UnmarshalJSON accepts any label Parse understands.
func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, ok := Parse(s)
	if !ok {
		return fmt.Errorf("classify: unknown category %q", s)
	}
	*c = parsed
	return nil
}

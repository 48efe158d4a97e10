package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmclient "topicgrid/internal/llm/client"
)

func TestLocalRules(t *testing.T) {
	cases := []struct {
		topic string
		want  Category
	}{
		{"最后一天！错过再等一年的护胃奶粉优惠", FOMO},
		{"护胃奶粉到底值不值得买?", Debate},
		{"我喝了30天护胃奶粉，胃痛少了一半", RealStory},
		{"揭秘：奶粉里竟然藏着这些添加剂", Curiosity},
		{"5招教你挑对护胃奶粉", Experience},
		{"一罐省下一顿饭钱，性价比翻倍", Benefit},
		{"Why is everyone quitting coffee?", Debate},
		{"How to pick milk powder: a 3 step guide", Experience},
	}
	c := New(nil)
	for _, tc := range cases {
		got, ambiguous := c.Local([]string{tc.topic})
		assert.False(t, ambiguous, tc.topic)
		assert.Equal(t, tc.want, got[0], tc.topic)
	}
}

func TestTieGoesToEarlierCategory(t *testing.T) {
	// One FOMO hit (马上) and one Benefit hit (省钱).
	got, _ := New(nil).Local([]string{"马上省钱"})
	assert.Equal(t, FOMO, got[0])
}

func TestQuestionMarkBoostsDebate(t *testing.T) {
	// 我 scores RealStory once; 为什么 plus ? scores Debate twice.
	got, _ := New(nil).Local([]string{"我为什么胃痛?"})
	assert.Equal(t, Debate, got[0])
}

func TestClassifyTotality(t *testing.T) {
	inputs := []string{"", "🔥🔥🔥", strings.Repeat("长", 10000), "\x00\xff", "   ", "普通标题"}
	c := New(nil)

	assert.Equal(t, []Category{}, c.Classify(context.Background(), nil, nil))
	assert.Empty(t, c.Classify(context.Background(), []string{}, nil))

	got := c.Classify(context.Background(), inputs, nil)
	require.Len(t, got, len(inputs))
	for _, cat := range got {
		assert.True(t, cat.Valid(), cat)
	}
}

func TestClassifyNoEscalationWhenRulesCover(t *testing.T) {
	llm := llmclient.NewScriptedProvider(llmclient.OpenAI, `["Benefit"]`)
	got := New(nil).Classify(context.Background(), []string{"5招教你挑奶粉"}, llm)
	assert.Equal(t, []Category{Experience}, got)
	assert.Empty(t, llm.Requests())
}

func TestClassifyEscalatesForAmbiguousTopic(t *testing.T) {
	llm := llmclient.NewScriptedProvider(llmclient.OpenAI, "```json\n[\"经验价值\", \"Real Story\"]\n```")
	topics := []string{"护胃奶粉冲泡水温", "5招教你挑奶粉"}

	got := New(nil).Classify(context.Background(), topics, llm)

	assert.Equal(t, []Category{Experience, RealStory}, got)
	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "classify", reqs[0].Task)
	assert.InDelta(t, 0.2, reqs[0].Temperature, 1e-6)
}

func TestClassifyKeepsLocalOnBadEscalation(t *testing.T) {
	topics := []string{"护胃奶粉冲泡水温", "5招教你挑奶粉"}
	want := []Category{Curiosity, Experience}
	replies := []llmclient.Provider{
		llmclient.NewScriptedProvider(llmclient.OpenAI, `["Benefit"]`),
		llmclient.NewScriptedProvider(llmclient.OpenAI, `not json at all`),
		llmclient.NewScriptedProvider(llmclient.OpenAI, `["Benefit","Gossip"]`),
		llmclient.NewFakeProvider(llmclient.OpenAI, func(llmclient.Request) (string, error) {
			return "", errors.New("boom")
		}),
	}
	for _, p := range replies {
		got := New(nil).Classify(context.Background(), topics, p)
		assert.Equal(t, want, got)
	}
}

func TestParseLabels(t *testing.T) {
	for in, want := range map[string]Category{
		"FOMO心态":     FOMO,
		"[Real Story]": RealStory,
		"real_story":   RealStory,
		" debate ":     Debate,
		"利益驱动":       Benefit,
	} {
		got, ok := Parse(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := Parse("gossip")
	assert.False(t, ok)
	assert.Equal(t, "经验价值", Experience.Label(true))
	assert.Equal(t, "Experience", Experience.Label(false))
}

package parse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plan struct {
	Hook        string   `json:"hook"`
	Positioning string   `json:"positioning"`
	Painpoint   string   `json:"painpoint"`
	Solution    string   `json:"solution"`
	CTA         string   `json:"cta"`
	Outline     []string `json:"outline"`
}

func TestJSONFencedContentPlan(t *testing.T) {
	raw := "```json\n" + `{
  "hook": "熬夜后空腹喝咖啡？你的胃在哭",
  "positioning": "给经常加班的上班族",
  "painpoint": "每天熬夜，胃胀又反酸。吃什么都不消化。",
  "solution": "餐后半小时喝；温水冲泡；连续7天",
  "cta": "评论区留言「护胃」领取清单",
  "outline": ["开场特写", "反酸场景", "冲泡步骤", "7天对比", "字幕总结"]
}` + "\n```"
	var m map[string]any
	require.NoError(t, JSON(raw, &m))
	assert.Len(t, m, 6)
	for _, k := range []string{"hook", "positioning", "painpoint", "solution", "cta", "outline"} {
		assert.Contains(t, m, k)
	}

	var p plan
	require.NoError(t, JSON(raw, &p))
	assert.Equal(t, "熬夜后空腹喝咖啡？你的胃在哭", p.Hook)
	assert.Equal(t, "餐后半小时喝；温水冲泡；连续7天", p.Solution)
	assert.Len(t, p.Outline, 5)
}

func TestJSONCorrectivePass(t *testing.T) {
	raw := "Here is the card:\n{\"hook\": \"A\", \"cta\": \"B\", \"outline\": [\"x\", \"y\",],}\nHope it helps"
	var p plan
	require.NoError(t, JSON(raw, &p))
	assert.Equal(t, "A", p.Hook)
	assert.Equal(t, "B", p.CTA)
	assert.Equal(t, []string{"x", "y"}, p.Outline)
}

func TestJSONArray(t *testing.T) {
	var labels []string
	require.NoError(t, JSON("```json\n[\"FOMO\",\"Debate\"]\n```", &labels))
	assert.Equal(t, []string{"FOMO", "Debate"}, labels)
}

func TestJSONFailure(t *testing.T) {
	var p plan
	err := JSON("", &p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "", pe.Raw)
}

package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topicgrid/internal/prompt"
)

func TestNewBoardLayouts(t *testing.T) {
	dwhy := NewBoard(prompt.FlowDWHY)
	require.NotNil(t, dwhy)
	assert.Len(t, dwhy.Dimensions(), 3)

	nine := NewBoard(prompt.FlowNineGrid)
	require.NotNil(t, nine)
	assert.Len(t, nine.Dimensions(), 8)

	assert.Nil(t, NewBoard("other"))
}

func TestBoardSelectionDWHY(t *testing.T) {
	b := NewBoard(prompt.FlowDWHY)
	who, _ := b.Dimension("who")
	kws := who.Merge([]string{"上班族", "孕妈"})
	_, _ = who.ToggleSelect(kws[1].ID)
	domain, _ := b.Dimension("domain")
	domain.Merge([]string{"奶粉"})

	assert.Equal(t, map[string][]string{"who": {"孕妈"}}, b.Selection())
}

func TestBoardSelectionNineGridFallsBackToAllKeywords(t *testing.T) {
	b := NewBoard(prompt.FlowNineGrid)
	aud, _ := b.Dimension("audience")
	aud.Merge([]string{"上班族", "孕妈"})
	pain, _ := b.Dimension("painpoint")
	kws := pain.Merge([]string{"胃痛", "消化慢"})
	_, _ = pain.ToggleSelect(kws[0].ID)

	sel := b.Selection()
	assert.Equal(t, []string{"上班族", "孕妈"}, sel["audience"])
	assert.Equal(t, []string{"胃痛"}, sel["painpoint"])
	assert.NotContains(t, sel, "story")
}

func TestBoardFindKeywordAndReset(t *testing.T) {
	b := NewBoard(prompt.FlowDWHY)
	why, _ := b.Dimension("why")
	kws := why.Merge([]string{"胃痛"})
	why.SetLocked(true)
	b.SetTopic("护胃奶粉")
	b.SetTopics([]string{"t1"})

	d, ok := b.FindKeyword(kws[0].ID)
	require.True(t, ok)
	assert.Equal(t, "why", d.ID())

	snap := b.Snapshot()
	assert.Equal(t, "护胃奶粉", snap.Topic)
	assert.Equal(t, "痛点需求", snap.Dimensions[2].Name)
	assert.True(t, snap.Dimensions[2].Locked)

	b.Reset()
	snap = b.Snapshot()
	assert.Empty(t, snap.Topic)
	assert.Equal(t, []string{}, snap.Topics)
	assert.Empty(t, snap.Dimensions[2].Keywords)
	assert.False(t, snap.Dimensions[2].Locked)
	_, ok = b.FindKeyword(kws[0].ID)
	assert.False(t, ok)
}

package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalNoEscapeKeepsMarkup(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"t": "A -> <B> & 胃痛"})
	require.NoError(t, err)
	assert.Equal(t, `{"t":"A -> <B> & 胃痛"}`, string(out))
}

func TestUnmarshalFlexQuotedPayload(t *testing.T) {
	var v struct {
		Hook string `json:"hook"`
	}
	require.NoError(t, UnmarshalFlex([]byte(`"{\"hook\":\"hi\"}"`), &v))
	assert.Equal(t, "hi", v.Hook)

	assert.Error(t, UnmarshalFlex([]byte(`not json`), &v))
}

func TestExtractBlock(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractBlock(`Here you go: {"a":1} thanks`))
	assert.Equal(t, `["x","y"]`, ExtractBlock("result:\n[\"x\",\"y\"]\n"))
	assert.Equal(t, "plain", ExtractBlock("plain"))
}

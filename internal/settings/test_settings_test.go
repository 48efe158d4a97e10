package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmclient "topicgrid/internal/llm/client"
)

func TestLoadDefaultsToOpenAI(t *testing.T) {
	ctx := context.Background()
	s, err := Load(ctx, NewMemoryStore(), "")
	require.NoError(t, err)
	assert.Equal(t, llmclient.OpenAI, s.Provider)

	s, err = Load(ctx, nil, "")
	require.NoError(t, err)
	assert.Equal(t, llmclient.OpenAI, s.Provider)
}

func TestLoadIgnoresUnknownValue(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, st.Set(ctx, PreferenceKey, "claude"))

	s, err := Load(ctx, st, "")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestSaveAndLoadScoped(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, Save(ctx, st, "user-1", Settings{Provider: llmclient.DeepSeek}))

	s, err := Load(ctx, st, "user-1")
	require.NoError(t, err)
	assert.Equal(t, llmclient.DeepSeek, s.Provider)

	s, err = Load(ctx, st, "user-2")
	require.NoError(t, err)
	assert.Equal(t, llmclient.OpenAI, s.Provider)

	v, ok, _ := st.Get(ctx, "llmProvider:user-1")
	assert.True(t, ok)
	assert.Equal(t, "deepseek", v)
}

func TestSaveRejectsUnknownProvider(t *testing.T) {
	err := Save(context.Background(), NewMemoryStore(), "", Settings{Provider: "mistral"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("down")
}
func (failingStore) Set(context.Context, string, string) error { return errors.New("down") }

func TestLoadSurfacesStoreFailure(t *testing.T) {
	s, err := Load(context.Background(), failingStore{}, "")
	assert.Error(t, err)
	assert.Equal(t, Default(), s)
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	require.NoError(t, Save(ctx, NewFileStore(path), "", Settings{Provider: llmclient.DeepSeek}))

	s, err := Load(ctx, NewFileStore(path), "")
	require.NoError(t, err)
	assert.Equal(t, llmclient.DeepSeek, s.Provider)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"llmProvider": "deepseek"`)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, _, err := NewFileStore(path).Get(context.Background(), PreferenceKey)
	assert.Error(t, err)
}

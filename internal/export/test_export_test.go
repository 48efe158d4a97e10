package export

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topicgrid/internal/prompt"
)

func TestRenderNineGridTXT(t *testing.T) {
	out, err := Render(TXT, Document{Flow: prompt.FlowNineGrid, Topic: "护胃奶粉", Topics: []string{"甲", "乙"}})
	require.NoError(t, err)
	want := "九宫格选题 - 护胃奶粉\n" + strings.Repeat("=", 50) + "\n\n1. 甲\n2. 乙"
	assert.Equal(t, want, string(out))
}

func TestRenderDWHYTXT(t *testing.T) {
	out, err := Render(TXT, Document{Flow: prompt.FlowDWHY, Topics: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb", string(out))
}

func TestRenderCSVQuotesCommas(t *testing.T) {
	out, err := Render(CSV, Document{Topics: []string{"plain", "with, comma"}})
	require.NoError(t, err)
	assert.Equal(t, "选题\nplain\n\"with, comma\"", string(out))
}

func TestRenderJSON(t *testing.T) {
	out, err := Render(JSON, Document{Topic: "t", Topics: []string{"<a> & b"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<a> & b")

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "t", got["topic"])

	out, err = Render(JSON, Document{Topic: "t"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"topics": []`)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, TXT, f)
	f, err = ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, CSV, f)
	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = Render("pdf", Document{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFileName(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "爆款短视频选题_2025-03-04.txt", FileName(TXT, Document{}, now))
	assert.Equal(t, "九宫格选题_a_b.json", FileName(JSON, Document{Flow: prompt.FlowNineGrid, Topic: "a/b"}, now))
}

func TestExporterRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	e := NewExporter(store)
	e.newID = func() string { return "exp-1" }
	ctx := context.Background()

	rec, body, err := e.Save(ctx, CSV, Document{Topics: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, "exp-1", rec.ID)
	assert.Equal(t, len(body), rec.Size)
	assert.Empty(t, rec.URL)

	name, got, err := e.Load(ctx, "exp-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Name, name)
	assert.Equal(t, body, got)

	_, _, err = e.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreValidation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	assert.Error(t, s.Put(ctx, "", "a", nil, ""))
	assert.Error(t, s.Put(ctx, "id", " ", nil, ""))
	_, err := s.Get(ctx, "id", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewS3StoreValidation(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a"})
	assert.Error(t, err)
	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "exports"})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, s.urlExpiry)
}

type countingStore struct {
	*MemoryStore
	gets, lists int
}

func (c *countingStore) Get(ctx context.Context, id, name string) ([]byte, error) {
	c.gets++
	return c.MemoryStore.Get(ctx, id, name)
}

func (c *countingStore) List(ctx context.Context, id string) ([]string, error) {
	c.lists++
	return c.MemoryStore.List(ctx, id)
}

func TestCachedStoreServesRepeatDownloads(t *testing.T) {
	origin := &countingStore{MemoryStore: NewMemoryStore()}
	s := NewCachedStore(origin, CacheConfig{})
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "e1", "a.txt", []byte("hello"), "text/plain"))
	for i := 0; i < 3; i++ {
		body, err := s.Get(ctx, "e1", "a.txt")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(body))
		names, err := s.List(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.txt"}, names)
	}
	assert.Equal(t, 0, origin.gets, "written blob is served from cache")
	assert.Equal(t, 1, origin.lists)

	m := s.Metrics()
	assert.Equal(t, uint64(3), m.BlobHits)
	assert.Equal(t, uint64(2), m.ListHits)
	assert.Equal(t, uint64(1), m.OriginWrites)

	require.NoError(t, s.Put(ctx, "e1", "b.txt", []byte("x"), "text/plain"))
	names, err := s.List(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, names, 2, "put invalidates the listing")
}

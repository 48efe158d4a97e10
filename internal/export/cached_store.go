package export

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CacheConfig struct {
	BlobTTL        time.Duration
	BlobMaxEntries int

	ListTTL        time.Duration
	ListMaxEntries int

	URLTTL        time.Duration
	URLMaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BlobTTL:        5 * time.Minute,
		BlobMaxEntries: 256,
		ListTTL:        30 * time.Second,
		ListMaxEntries: 512,
		// Presigned links expire after an hour; keep well inside that.
		URLTTL:        5 * time.Minute,
		URLMaxEntries: 512,
	}
}

type MetricsSnapshot struct {
	BlobHits     uint64
	BlobMisses   uint64
	ListHits     uint64
	ListMisses   uint64
	URLHits      uint64
	URLMisses    uint64
	OriginReads  uint64
	OriginWrites uint64
}

type cacheMetrics struct {
	blobHits, blobMisses atomic.Uint64
	listHits, listMisses atomic.Uint64
	urlHits, urlMisses   atomic.Uint64
	originReads          atomic.Uint64
	originWrites         atomic.Uint64
}

// CachedStore is a read-through cache in front of a remote Store. Exports
// are written once and downloaded shortly after, usually more than once.
type CachedStore struct {
	origin Store

	blobs   *expirable.LRU[string, []byte]
	lists   *expirable.LRU[string, []string]
	urls    *expirable.LRU[string, string]
	metrics cacheMetrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.BlobTTL <= 0 {
		cfg.BlobTTL = def.BlobTTL
	}
	if cfg.BlobMaxEntries <= 0 {
		cfg.BlobMaxEntries = def.BlobMaxEntries
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = def.ListMaxEntries
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = def.URLTTL
	}
	if cfg.URLMaxEntries <= 0 {
		cfg.URLMaxEntries = def.URLMaxEntries
	}
	return &CachedStore{
		origin: origin,
		blobs:  expirable.NewLRU[string, []byte](cfg.BlobMaxEntries, nil, cfg.BlobTTL),
		lists:  expirable.NewLRU[string, []string](cfg.ListMaxEntries, nil, cfg.ListTTL),
		urls:   expirable.NewLRU[string, string](cfg.URLMaxEntries, nil, cfg.URLTTL),
	}
}

func cacheKey(id, name string) string {
	return strings.TrimSpace(id) + "/" + strings.TrimSpace(name)
}

func (s *CachedStore) Put(ctx context.Context, id, name string, content []byte, contentType string) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, id, name, content, contentType); err != nil {
		return err
	}
	key := cacheKey(id, name)
	s.blobs.Add(key, append([]byte(nil), content...))
	s.lists.Remove(strings.TrimSpace(id))
	s.urls.Remove(key)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, id, name string) ([]byte, error) {
	key := cacheKey(id, name)
	if raw, ok := s.blobs.Get(key); ok {
		s.metrics.blobHits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.metrics.blobMisses.Add(1)
	s.metrics.originReads.Add(1)

	raw, err := s.origin.Get(ctx, id, name)
	if err != nil {
		return nil, err
	}
	s.blobs.Add(key, append([]byte(nil), raw...))
	return raw, nil
}

func (s *CachedStore) GetURL(ctx context.Context, id, name string) (string, error) {
	key := cacheKey(id, name)
	if u, ok := s.urls.Get(key); ok {
		s.metrics.urlHits.Add(1)
		return u, nil
	}
	s.metrics.urlMisses.Add(1)
	s.metrics.originReads.Add(1)

	u, err := s.origin.GetURL(ctx, id, name)
	if err != nil {
		return "", err
	}
	if u != "" {
		s.urls.Add(key, u)
	}
	return u, nil
}

func (s *CachedStore) List(ctx context.Context, id string) ([]string, error) {
	id = strings.TrimSpace(id)
	if names, ok := s.lists.Get(id); ok {
		s.metrics.listHits.Add(1)
		return append([]string(nil), names...), nil
	}
	s.metrics.listMisses.Add(1)
	s.metrics.originReads.Add(1)

	names, err := s.origin.List(ctx, id)
	if err != nil {
		return nil, err
	}
	s.lists.Add(id, append([]string(nil), names...))
	return names, nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		BlobHits:     s.metrics.blobHits.Load(),
		BlobMisses:   s.metrics.blobMisses.Load(),
		ListHits:     s.metrics.listHits.Load(),
		ListMisses:   s.metrics.listMisses.Load(),
		URLHits:      s.metrics.urlHits.Load(),
		URLMisses:    s.metrics.urlMisses.Load(),
		OriginReads:  s.metrics.originReads.Load(),
		OriginWrites: s.metrics.originWrites.Load(),
	}
}

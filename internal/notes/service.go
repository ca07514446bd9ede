package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/lazynotes/internal/cache"
	"github.com/dgallion1/lazynotes/internal/markup"
	"github.com/dgallion1/lazynotes/internal/stats"
	"github.com/dgallion1/lazynotes/internal/toc"
	"golang.org/x/sync/singleflight"
)

// Note is a rendered note ready to be served.
type Note struct {
	Path string        `json:"path"`
	HTML string        `json:"html"`
	TOC  []toc.Heading `json:"toc"`
	ETag string        `json:"-"`
}

// Service renders notes from a Store, caching the output by content hash.
type Service struct {
	store    *Store
	renderer *markup.Renderer
	cache    *cache.Cache
	cacheTTL time.Duration
	group    singleflight.Group
	stats    *stats.Window
	log      *slog.Logger
}

// NewService returns a Service. c may be nil to disable caching.
func NewService(store *Store, renderer *markup.Renderer, c *cache.Cache, cacheTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		renderer: renderer,
		cache:    c,
		cacheTTL: cacheTTL,
		stats:    stats.NewWindow(time.Hour),
		log:      log,
	}
}

func (s *Service) Store() *Store { return s.store }

// RenderStats reports render latencies over the last hour. Cache hits are
// not counted.
func (s *Service) RenderStats() stats.Snapshot { return s.stats.Snapshot() }

// Get reads and renders the note at p for user.
func (s *Service) Get(ctx context.Context, user, p string) (*Note, error) {
	src, err := s.store.Read(user, p)
	if err != nil {
		return nil, err
	}
	hash := ContentHashHex(src)
	key := s.renderKey(hash)

	doc, err := s.document(ctx, key, src)
	if err != nil {
		return nil, err
	}
	s.track(ctx, user, p, key)
	return &Note{
		Path: p,
		HTML: doc.HTML,
		TOC:  doc.TOC,
		ETag: `"` + hash[:16] + `"`,
	}, nil
}

// renderKey is the cache key of the render of content hash. It changes with
// the renderer's id prefix and output version.
func (s *Service) renderKey(hash string) string {
	return "note:html:" + s.renderer.Fingerprint() + ":" + hash
}

func (s *Service) document(ctx context.Context, key string, src []byte) (markup.Document, error) {
	if doc, ok := s.cached(ctx, key); ok {
		return doc, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		start := time.Now()
		doc, err := s.renderer.Document(src)
		if err != nil {
			return markup.Document{}, err
		}
		s.stats.Record(time.Since(start))
		s.remember(ctx, key, doc)
		return doc, nil
	})
	if err != nil {
		return markup.Document{}, fmt.Errorf("render note: %w", err)
	}
	return v.(markup.Document), nil
}

// cached looks up a rendered document. Cache failures are logged and
// treated as misses.
func (s *Service) cached(ctx context.Context, key string) (markup.Document, bool) {
	if s.cache == nil {
		return markup.Document{}, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("render cache get failed", "key", key, "error", err)
		return markup.Document{}, false
	}
	if data == nil {
		return markup.Document{}, false
	}
	var doc markup.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("render cache entry corrupt", "key", key, "error", err)
		return markup.Document{}, false
	}
	return doc, true
}

func (s *Service) remember(ctx context.Context, key string, doc markup.Document) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		s.log.Warn("encode render cache entry", "key", key, "error", err)
		return
	}
	if err := s.cache.Put(ctx, key, data, s.cacheTTL); err != nil {
		s.log.Warn("render cache put failed", "key", key, "error", err)
	}
}

// track records key as the current render of user's note p and evicts the
// render it replaces. Another note with the old content just renders again.
func (s *Service) track(ctx context.Context, user, p, key string) {
	if s.cache == nil {
		return
	}
	revKey := "note:rev:" + user + "/" + p
	prev, err := s.cache.Get(ctx, revKey)
	if err != nil {
		s.log.Warn("render cache get failed", "key", revKey, "error", err)
		return
	}
	if string(prev) == key {
		return
	}
	if prev != nil {
		if err := s.cache.Delete(ctx, string(prev)); err != nil {
			s.log.Warn("render cache evict failed", "key", string(prev), "error", err)
		}
	}
	if err := s.cache.Put(ctx, revKey, []byte(key), s.cacheTTL); err != nil {
		s.log.Warn("render cache put failed", "key", revKey, "error", err)
	}
}

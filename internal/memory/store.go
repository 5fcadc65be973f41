// Package memory implements the assistant's persistent long-term memory:
// timestamped items with importance and access tracking, word-overlap
// relevance search and JSON persistence.
package memory

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/wisplm/wisp/internal/logger"
)

// Categories the store recognizes out of the box. Add accepts any category;
// these are just the well-known ones.
var DefaultCategories = []string{"general", "personal", "facts", "preferences", "conversations"}

// Item is one remembered piece of text.
type Item struct {
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Importance  float64   `json:"importance"`
	AccessCount int       `json:"access_count"`
	Category    string    `json:"category"`
}

// Stats summarizes the store.
type Stats struct {
	TotalItems    int            `json:"total_items"`
	TotalAccesses int            `json:"total_accesses"`
	Categories    map[string]int `json:"categories"`
}

// Store holds memories in insertion order with a content-hash index for
// deduplication. All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	items    []Item
	index    map[string]int // content hash -> item position
	maxItems int
	path     string
	log      logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMaxItems caps the store; the least valuable items are evicted beyond
// the cap. Zero means the default of 1000.
func WithMaxItems(n int) Option {
	return func(s *Store) { s.maxItems = n }
}

// WithLogger sets the store's logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Store) { s.log = log }
}

// Open loads (or creates) a store persisted at path. An empty path keeps the
// store purely in memory.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		index:    make(map[string]int),
		maxItems: 1000,
		path:     path,
		log:      logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if path == "" {
		return s, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read memory file: %w", err)
	}
	if err := json.Unmarshal(data, &s.items); err != nil {
		return nil, fmt.Errorf("parse memory file %s: %w", path, err)
	}
	for i, it := range s.items {
		s.index[contentHash(it.Content)] = i
	}
	s.log.Debug("memory loaded", "items", len(s.items), "path", path)
	return s, nil
}

// Add remembers content. Re-adding identical content bumps the existing
// item's importance and access count instead of duplicating it. The item's
// position is returned.
func (s *Store) Add(content, category string, importance float64) (int, error) {
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("memory: empty content")
	}
	if category == "" {
		category = "general"
	}
	if importance <= 0 {
		importance = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := contentHash(content)
	if pos, ok := s.index[h]; ok {
		it := &s.items[pos]
		it.AccessCount++
		if it.Importance < 2.0 {
			it.Importance = min(2.0, it.Importance+0.1)
		}
		return pos, s.saveLocked()
	}

	pos := len(s.items)
	s.items = append(s.items, Item{
		Content:    content,
		Timestamp:  time.Now(),
		Importance: importance,
		Category:   category,
	})
	s.index[h] = pos

	if len(s.items) > s.maxItems {
		s.cleanupLocked()
	}
	return pos, s.saveLocked()
}

// Search returns the topK most relevant items for query, optionally
// restricted to a category. Relevance is word overlap weighted by
// importance, recency and access count.
func (s *Store) Search(query string, topK int, category string) []Item {
	queryWords := wordSet(query)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	type scored struct {
		score float64
		item  Item
	}
	var results []scored
	for _, it := range s.items {
		if category != "" && it.Category != category {
			continue
		}
		overlap := 0
		for w := range wordSet(it.Content) {
			if _, ok := queryWords[w]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		recency := 1 / (1 + now.Sub(it.Timestamp).Hours()/24)
		score := float64(overlap) * it.Importance * (1 + recency) * (1 + float64(it.AccessCount)*0.1)
		results = append(results, scored{score: score, item: it})
	}

	sort.SliceStable(results, func(a, b int) bool { return results[a].score > results[b].score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	items := make([]Item, len(results))
	for i, r := range results {
		items[i] = r.item
	}
	return items
}

// Recent returns the n newest items' contents, newest first.
func (s *Store) Recent(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := append([]Item(nil), s.items...)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Timestamp.After(sorted[b].Timestamp) })
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]string, len(sorted))
	for i, it := range sorted {
		out[i] = it.Content
	}
	return out
}

// Stats reports store counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Categories: make(map[string]int)}
	st.TotalItems = len(s.items)
	for _, it := range s.items {
		st.TotalAccesses += it.AccessCount
		st.Categories[it.Category]++
	}
	return st
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// cleanupLocked evicts the least valuable quarter of the store when the cap
// is exceeded. Value decays with age and grows with importance and use.
func (s *Store) cleanupLocked() {
	now := time.Now()
	value := func(it Item) float64 {
		age := now.Sub(it.Timestamp).Hours() / 24
		return it.Importance * (1 + float64(it.AccessCount)*0.1) / (1 + age/30)
	}
	sort.SliceStable(s.items, func(a, b int) bool { return value(s.items[a]) > value(s.items[b]) })
	keep := s.maxItems * 3 / 4
	if keep < 1 {
		keep = 1
	}
	if len(s.items) > keep {
		s.items = s.items[:keep]
	}
	s.index = make(map[string]int, len(s.items))
	for i, it := range s.items {
		s.index[contentHash(it.Content)] = i
	}
	s.log.Debug("memory cleanup", "kept", len(s.items))
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal memories: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write memory file: %w", err)
	}
	return nil
}

func contentHash(content string) string {
	sum := md5.Sum([]byte(strings.ToLower(content)))
	return hex.EncodeToString(sum[:])[:8]
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[strings.Trim(w, ".,!?;:\"'")] = struct{}{}
	}
	return set
}

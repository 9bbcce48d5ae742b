package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/swarmforge/swarmforge/core"
	"github.com/swarmforge/swarmforge/logging"
)

// Entry is a single stored memory record. Short-term entries always carry
// ExpiresAt; long-term entries never expire but carry a category for search.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Stats summarizes the contents of both tiers.
type Stats struct {
	ShortTermEntries int            `json:"short_term_entries"`
	LongTermEntries  int            `json:"long_term_entries"`
	Categories       map[string]int `json:"categories"`
}

// Options configures a Manager instance.
type Options struct {
	// Clock supplies the current time; override in tests to simulate TTL
	// expiry deterministically.
	Clock func() time.Time

	// Logger receives debug records for store operations.
	Logger logging.Logger
}

// Manager is the dual-tier memory store. It is constructed once and passed
// by reference to every component that needs it; there is no ambient global
// instance. All methods are safe for concurrent use: writes are serialized
// under one mutex (last-writer-wins per key) while reads share an RLock.
//
// Short-term TTL is evaluated lazily at read time rather than by a
// background sweep; expired entries are pruned opportunistically on the next
// write. Long-term entries are never evicted; only explicit overwrite or
// process teardown removes them.
type Manager struct {
	mu     sync.RWMutex
	clock  func() time.Time
	logger logging.Logger

	shortTerm map[string]Entry

	// longTerm preserves insertion order per category so Search results are
	// deterministic; index maps key to its slot and overwrites update the
	// slot in place.
	longTerm map[string][]Entry
	index    map[string]map[string]int
}

// NewManager creates an empty memory manager.
func NewManager(optFns ...func(o *Options)) *Manager {
	opts := Options{
		Clock:  time.Now,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		clock:     opts.Clock,
		logger:    opts.Logger,
		shortTerm: make(map[string]Entry),
		longTerm:  make(map[string][]Entry),
		index:     make(map[string]map[string]int),
	}
}

// StoreShortTerm records a short-term entry that becomes unreadable after
// ttl elapses. A non-positive ttl is a configuration error.
func (m *Manager) StoreShortTerm(key, value string, ttl time.Duration) error {
	if key == "" {
		return core.NewError(core.KindConfig, "short-term key must not be empty")
	}
	if ttl <= 0 {
		return core.NewError(core.KindConfig, "short-term ttl must be positive, got %s", ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	m.pruneExpiredLocked(now)
	m.shortTerm[key] = Entry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	m.logger.Debug("memory.short_term.store", "key", key, "ttl", ttl)
	return nil
}

// RetrieveShortTerm returns the value stored under key if it has not
// expired. Expired entries behave as if absent.
func (m *Manager) RetrieveShortTerm(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.shortTerm[key]
	if !ok || !m.clock().Before(e.ExpiresAt) {
		return "", false
	}
	return e.Value, true
}

// ClearShortTerm empties the short-term tier unconditionally.
func (m *Manager) ClearShortTerm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shortTerm = make(map[string]Entry)
}

// pruneExpiredLocked drops expired short-term entries. Caller holds mu.
func (m *Manager) pruneExpiredLocked(now time.Time) {
	for key, e := range m.shortTerm {
		if !now.Before(e.ExpiresAt) {
			delete(m.shortTerm, key)
		}
	}
}

// StoreLongTerm appends or overwrites an entry by key within a category.
// Overwrites keep the entry's original position in search order.
func (m *Manager) StoreLongTerm(key, value, category string) error {
	if key == "" {
		return core.NewError(core.KindConfig, "long-term key must not be empty")
	}
	if category == "" {
		category = "general"
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := Entry{
		Key:       key,
		Value:     value,
		Category:  category,
		CreatedAt: m.clock(),
	}
	idx, ok := m.index[category]
	if !ok {
		idx = make(map[string]int)
		m.index[category] = idx
	}
	if slot, exists := idx[key]; exists {
		m.longTerm[category][slot] = entry
	} else {
		idx[key] = len(m.longTerm[category])
		m.longTerm[category] = append(m.longTerm[category], entry)
	}
	m.logger.Debug("memory.long_term.store", "key", key, "category", category)
	return nil
}

// RetrieveLongTerm performs an exact lookup by key within a category.
func (m *Manager) RetrieveLongTerm(key, category string) (string, bool) {
	if category == "" {
		category = "general"
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.index[category]
	if !ok {
		return "", false
	}
	slot, ok := idx[key]
	if !ok {
		return "", false
	}
	return m.longTerm[category][slot].Value, true
}

// Search returns the entries in a category whose key or value contains the
// query substring, in insertion order. An empty query matches everything in
// the category.
func (m *Manager) Search(query, category string) []Entry {
	if category == "" {
		category = "general"
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []Entry
	for _, e := range m.longTerm[category] {
		if query == "" || strings.Contains(e.Key, query) || strings.Contains(e.Value, query) {
			results = append(results, e)
		}
	}
	return results
}

// Categories returns the long-term category names with at least one entry.
func (m *Manager) Categories() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.longTerm))
	for category, entries := range m.longTerm {
		if len(entries) > 0 {
			names = append(names, category)
		}
	}
	return names
}

// Stats reports entry counts per tier and per category. Expired short-term
// entries still pending a prune are not counted.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{Categories: make(map[string]int, len(m.longTerm))}
	now := m.clock()
	for _, e := range m.shortTerm {
		if now.Before(e.ExpiresAt) {
			stats.ShortTermEntries++
		}
	}
	for category, entries := range m.longTerm {
		stats.Categories[category] = len(entries)
		stats.LongTermEntries += len(entries)
	}
	return stats
}

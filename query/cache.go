package query

import (
	"slices"
	"sync"
	"time"

	"github.com/supakorn-kn/propadmin/collection"
)

type entry struct {
	page      collection.Page
	fetchedAt time.Time
	seq       uint64
	touches   []string
}

// Cache holds the last page fetched for every key. An entry is only replaced
// by a fetch that started later than the one that produced it, and never by a
// fetch that started before the last invalidation of a collection it reads.
type Cache struct {
	mu          sync.RWMutex
	entries     map[Key]entry
	invalidated map[string]uint64
}

func NewCache() *Cache {
	return &Cache{entries: map[Key]entry{}, invalidated: map[string]uint64{}}
}

func (c *Cache) Get(key Key) (collection.Page, time.Time, bool) {

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return e.page, e.fetchedAt, ok
}

// Put stores a page fetched by the fetch numbered seq. It reports false when
// the stored entry came from a later fetch or the fetch predates an
// invalidation.
func (c *Cache) Put(key Key, ref collection.Reference, page collection.Page, seq uint64, fetchedAt time.Time) bool {

	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.entries[key]; ok && current.seq > seq {
		return false
	}

	touches := touchedCollections(ref)
	for _, name := range touches {
		if seq <= c.invalidated[name] {
			return false
		}
	}

	c.entries[key] = entry{page: page, fetchedAt: fetchedAt, seq: seq, touches: touches}
	return true
}

// Invalidate drops every entry that reads from the named collection and
// refuses pages from fetches numbered up to seq. It returns how many entries
// were dropped.
func (c *Cache) Invalidate(collectionName string, seq uint64) int {

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq > c.invalidated[collectionName] {
		c.invalidated[collectionName] = seq
	}

	var dropped int
	for key, e := range c.entries {
		if slices.Contains(e.touches, collectionName) {
			delete(c.entries, key)
			dropped++
		}
	}

	return dropped
}

func (c *Cache) Len() int {

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func touchedCollections(ref collection.Reference) []string {

	touches := []string{ref.Name}
	for _, rel := range ref.Projection.Relations {
		touches = append(touches, rel.Collection)
	}

	return touches
}

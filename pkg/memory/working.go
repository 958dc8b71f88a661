package memory

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// WorkingMemory is the small, capacity-bounded store of currently
// salient items. The fixed bound with least-recently-used eviction is
// what distinguishes it from episodic memory: it forgets, by design,
// and its size never exceeds capacity.
type WorkingMemory struct {
	capacity int
	cache    *lru.Cache[string, Item]
}

// NewWorkingMemory creates a working memory with the given slot count.
func NewWorkingMemory(capacity int) (*WorkingMemory, error) {
	cache, err := lru.New[string, Item](capacity)
	if err != nil {
		return nil, err
	}
	return &WorkingMemory{capacity: capacity, cache: cache}, nil
}

// Push stores an item, refreshing its recency. Push always succeeds;
// when the store is full the least-recently-used item is evicted.
func (wm *WorkingMemory) Push(item Item) {
	wm.cache.Add(item.Key, item)
}

// Contents returns the current items ordered from least- to
// most-recently used.
func (wm *WorkingMemory) Contents() []Item {
	keys := wm.cache.Keys()
	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		if item, ok := wm.cache.Peek(k); ok {
			items = append(items, item)
		}
	}
	return items
}

// Get looks up an item without refreshing its recency.
func (wm *WorkingMemory) Get(key string) (Item, bool) {
	return wm.cache.Peek(key)
}

func (wm *WorkingMemory) Len() int      { return wm.cache.Len() }
func (wm *WorkingMemory) Capacity() int { return wm.capacity }

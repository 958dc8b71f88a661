package memory

import (
	"fmt"
	"testing"
)

func TestWorkingMemory_CapacityBound(t *testing.T) {
	wm, err := NewWorkingMemory(5)
	if err != nil {
		t.Fatalf("NewWorkingMemory: %v", err)
	}

	for i := 0; i < 6; i++ {
		wm.Push(Item{Key: fmt.Sprintf("item-%d", i), Kind: ItemThought, Tick: i})
	}

	if wm.Len() != 5 {
		t.Fatalf("expected length 5 after capacity+1 pushes, got %d", wm.Len())
	}
	if _, ok := wm.Get("item-0"); ok {
		t.Fatalf("least-recently-used item should have been evicted")
	}
	if _, ok := wm.Get("item-5"); !ok {
		t.Fatalf("most recent item must survive")
	}
}

func TestWorkingMemory_PushRefreshesRecency(t *testing.T) {
	wm, err := NewWorkingMemory(3)
	if err != nil {
		t.Fatalf("NewWorkingMemory: %v", err)
	}

	wm.Push(Item{Key: "a", Tick: 1})
	wm.Push(Item{Key: "b", Tick: 2})
	wm.Push(Item{Key: "c", Tick: 3})
	wm.Push(Item{Key: "a", Tick: 4}) // refresh a
	wm.Push(Item{Key: "d", Tick: 5}) // should evict b, not a

	if _, ok := wm.Get("b"); ok {
		t.Fatalf("expected b to be evicted as least recently used")
	}
	if item, ok := wm.Get("a"); !ok || item.Tick != 4 {
		t.Fatalf("expected refreshed a at tick 4, got %+v ok=%v", item, ok)
	}
}

func TestWorkingMemory_ContentsOrder(t *testing.T) {
	wm, err := NewWorkingMemory(3)
	if err != nil {
		t.Fatalf("NewWorkingMemory: %v", err)
	}

	wm.Push(Item{Key: "a"})
	wm.Push(Item{Key: "b"})
	wm.Push(Item{Key: "c"})
	wm.Push(Item{Key: "a"})

	contents := wm.Contents()
	if len(contents) != 3 {
		t.Fatalf("expected 3 items, got %d", len(contents))
	}
	// LRU to MRU: b, c, a
	if contents[0].Key != "b" || contents[2].Key != "a" {
		t.Fatalf("unexpected recency order: %v, %v, %v", contents[0].Key, contents[1].Key, contents[2].Key)
	}
}

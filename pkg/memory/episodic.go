package memory

// EpisodicMemory is the append-only chronological log of past ticks.
// Records are never mutated once written; replaying the log reproduces
// the exact sequence of past ticks. When the record count exceeds the
// configured ceiling the oldest records are discarded first.
type EpisodicMemory struct {
	ceiling int
	records []EpisodicRecord
	evicted int
}

// NewEpisodicMemory creates an episodic log with a FIFO retention
// ceiling.
func NewEpisodicMemory(ceiling int) *EpisodicMemory {
	return &EpisodicMemory{ceiling: ceiling}
}

// Record appends one entry. If the ceiling is exceeded the oldest
// record is evicted, never the most recent.
func (em *EpisodicMemory) Record(rec EpisodicRecord) {
	em.records = append(em.records, rec)
	if len(em.records) > em.ceiling {
		overflow := len(em.records) - em.ceiling
		em.records = append([]EpisodicRecord(nil), em.records[overflow:]...)
		em.evicted += overflow
	}
}

// Len returns the number of retained records.
func (em *EpisodicMemory) Len() int { return len(em.records) }

// Evicted returns how many records have been discarded under the
// retention policy.
func (em *EpisodicMemory) Evicted() int { return em.evicted }

// Last returns the most recent record.
func (em *EpisodicMemory) Last() (EpisodicRecord, bool) {
	if len(em.records) == 0 {
		return EpisodicRecord{}, false
	}
	return em.records[len(em.records)-1], true
}

// Query returns a restartable cursor over records matching the
// predicate, ordered by ascending tick. A nil predicate matches
// everything. The cursor sees the log as it was when Query was called.
func (em *EpisodicMemory) Query(predicate func(EpisodicRecord) bool) *Cursor {
	snapshot := append([]EpisodicRecord(nil), em.records...)
	return &Cursor{records: snapshot, predicate: predicate}
}

// Cursor is a lazy, restartable iteration over episodic records.
type Cursor struct {
	records   []EpisodicRecord
	predicate func(EpisodicRecord) bool
	pos       int
}

// Next returns the next matching record, or ok=false when exhausted.
func (c *Cursor) Next() (EpisodicRecord, bool) {
	for c.pos < len(c.records) {
		rec := c.records[c.pos]
		c.pos++
		if c.predicate == nil || c.predicate(rec) {
			return rec, true
		}
	}
	return EpisodicRecord{}, false
}

// Reset restarts the cursor from the beginning of its snapshot.
func (c *Cursor) Reset() { c.pos = 0 }

// Collect drains the cursor into a slice.
func (c *Cursor) Collect() []EpisodicRecord {
	var out []EpisodicRecord
	for {
		rec, ok := c.Next()
		if !ok {
			return out
		}
		out = append(out, rec)
	}
}

package studio

import (
	"sync"

	"brushup/internal/record"
)

// History is the in-memory ordered view of the store, most recent first. The
// store stays authoritative for durability; History is authoritative for what
// is currently rendered. All methods are safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	records []*record.Record
}

// NewHistory returns an empty view.
func NewHistory() *History {
	return &History{}
}

// Load replaces the view contents, typically from db.GetAll at startup.
func (h *History) Load(records []*record.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = make([]*record.Record, len(records))
	for i, r := range records {
		h.records[i] = r.Clone()
	}
}

// Prepend inserts a record at the front.
func (h *History) Prepend(r *record.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append([]*record.Record{r.Clone()}, h.records...)
}

// Update applies fn to the record with the given id. Returns false if the id
// is no longer present (deleted while in flight); a settled record is never
// resurrected into the view.
func (h *History) Update(id string, fn func(*record.Record)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.ID == id {
			fn(r)
			return true
		}
	}
	return false
}

// Get returns a copy of the record with the given id.
func (h *History) Get(id string) (*record.Record, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, r := range h.records {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return nil, false
}

// Remove deletes the record with the given id. Removing an absent id is a
// no-op.
func (h *History) Remove(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, r := range h.records {
		if r.ID == id {
			h.records = append(h.records[:i], h.records[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every record.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}

// Snapshot returns copies of all records in display order.
func (h *History) Snapshot() []*record.Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*record.Record, len(h.records))
	for i, r := range h.records {
		out[i] = r.Clone()
	}
	return out
}

// HasPending reports whether any record is still awaiting settlement.
func (h *History) HasPending() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, r := range h.records {
		if r.State == record.StatePending {
			return true
		}
	}
	return false
}

// Len returns the number of records in the view.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

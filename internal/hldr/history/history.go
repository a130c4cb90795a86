// Package history maintains the per-thread sequence of completed views and
// the bounded window of recent views exposed to other threads.
//
// Each ViewHistory is owned by exactly one thread: that thread is the sole
// inserter. Other threads only acquire window snapshots for the duration of
// a chain check. A reader/writer lock guards the backing sequence and the
// window bounds; the content of the frozen views themselves needs no
// synchronization.
package history

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kolkov/hldrdetector/internal/hldr/view"
)

// DefaultWindowCapacity is the number of recent views eligible for
// cross-thread comparison when no explicit capacity is configured.
const DefaultWindowCapacity = 5

// ViewHistory is an insertion-ordered sequence of Frozen views (newest
// first) with a bounded recent window.
//
// The backing sequence grows as views are inserted. The original
// implementation never reclaimed anything; here retention beyond the window
// is explicit: retain == 0 keeps everything (the faithful behavior), while
// retain > 0 bounds the backing sequence to capacity+retain entries,
// trimming from the old end but never evicting a pinned view.
type ViewHistory struct {
	mu        sync.RWMutex
	views     []*view.View // newest at index 0
	capacity  int
	windowLen int
	retain    int
}

// New returns an empty history with the given window capacity and retention
// limit. A capacity below 1 falls back to DefaultWindowCapacity; a negative
// retention limit is treated as 0 (retain everything).
func New(capacity, retain int) *ViewHistory {
	if capacity < 1 {
		capacity = DefaultWindowCapacity
	}
	if retain < 0 {
		retain = 0
	}
	return &ViewHistory{capacity: capacity, retain: retain}
}

// Insert registers a newly frozen view as the most recent entry and slides
// the window forward. Insert is the sole writer of the history; only the
// owning thread calls it.
func (h *ViewHistory) Insert(v *view.View) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.views = append(h.views, nil)
	copy(h.views[1:], h.views)
	h.views[0] = v

	h.windowLen = len(h.views)
	if h.windowLen > h.capacity {
		h.windowLen = h.capacity
	}

	if h.retain > 0 {
		h.trimLocked()
	}
}

// trimLocked drops entries beyond capacity+retain from the old end, backing
// off as soon as it meets a pinned view. Callers hold the write lock.
func (h *ViewHistory) trimLocked() {
	limit := h.capacity + h.retain
	for len(h.views) > limit {
		oldest := h.views[len(h.views)-1]
		if oldest.Readers() > 0 {
			return
		}
		h.views[len(h.views)-1] = nil
		h.views = h.views[:len(h.views)-1]
	}
}

// Acquire snapshots the current window and pins its oldest view against
// structural change while the snapshot is in use. The returned window must
// be released exactly once; prefer With for scoped use.
func (h *ViewHistory) Acquire() Window {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.windowLen == 0 {
		return Window{}
	}

	views := make([]*view.View, h.windowLen)
	copy(views, h.views[:h.windowLen])

	pinned := views[len(views)-1]
	pinned.Pin()

	return Window{views: views, pinned: pinned}
}

// With acquires the window, runs fn, and guarantees the release on every
// exit path, including a panic inside fn.
func (h *ViewHistory) With(fn func(Window)) {
	w := h.Acquire()
	defer w.Release()
	fn(w)
}

// Len returns the length of the backing sequence.
func (h *ViewHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.views)
}

// Dump writes a debug rendering of the history, marking the window bounds
// the way the reference implementation printed them.
func (h *ViewHistory) Dump(w io.Writer) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var b strings.Builder
	b.WriteString("View History Begin\n")
	for i, v := range h.views {
		marker := "   "
		if i == 0 || i == h.windowLen-1 {
			marker = "-> "
		}
		fmt.Fprintf(&b, "%sView[t=%s, readers=%d, reads=%s, writes=%s]\n",
			marker, v.Timestamp(), v.Readers(), v.Reads(), v.Writes())
	}
	b.WriteString("View History End\n")
	_, _ = io.WriteString(w, b.String())
}

// Window is an immutable snapshot of a history's recent suffix, ordered
// newest first. The zero value is the empty window.
type Window struct {
	views  []*view.View
	pinned *view.View
}

// Empty reports whether the window holds no views. The chain check must
// never run on an empty window; callers check this first.
func (w Window) Empty() bool { return len(w.views) == 0 }

// Len returns the number of views in the window.
func (w Window) Len() int { return len(w.views) }

// At returns the i-th view, 0 being the newest.
func (w Window) At(i int) *view.View { return w.views[i] }

// Views returns the snapshot slice, newest first. Callers must not mutate
// it.
func (w Window) Views() []*view.View { return w.views }

// Release unpins the window's oldest view. Releasing an empty window is a
// no-op; releasing the same window twice is a bug.
func (w Window) Release() {
	if w.pinned != nil {
		w.pinned.Unpin()
	}
}

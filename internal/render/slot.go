package render

import (
	"strconv"
	"sync"

	"github.com/smazurov/camgrid/internal/metrics"
)

// Slot holds one stream's most recent decoded frame. Producers overwrite
// the pending buffer in place; the compositor drains it on its next pass.
// At most one unconsumed frame exists per slot; intermediate frames are
// dropped, never queued.
type Slot struct {
	index int
	label string // prebuilt metric label, avoids Itoa on the frame path

	mu       sync.Mutex
	pending  []byte
	pendingW int
	pendingH int
	dirty    bool
	received uint64
	dropped  uint64

	// Last dimensions uploaded to the device. Compositor goroutine only.
	displayedW int
	displayedH int
}

func newSlot(index int) *Slot {
	return &Slot{index: index, label: strconv.Itoa(index)}
}

// write stores a frame, overwriting any unconsumed one.
func (s *Slot) write(buf []byte, width, height int) {
	n := width * height * 3

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty {
		s.dropped++
		metrics.RecordFrameOverwritten(s.label)
	}
	if cap(s.pending) < n {
		s.pending = make([]byte, n)
	}
	s.pending = s.pending[:n]
	copy(s.pending, buf[:n])
	s.pendingW = width
	s.pendingH = height
	s.dirty = true
	s.received++
	metrics.RecordFrameReceived(s.label)
}

// take drains the pending frame into dst (grown as needed) and clears the
// dirty flag. Returns ok=false when nothing new arrived since last take.
// The returned buffer aliases dst, never the slot's own storage, so the
// caller can hand it to the device after releasing the lock.
func (s *Slot) take(dst []byte) (buf []byte, width, height int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return dst, 0, 0, false
	}
	if cap(dst) < len(s.pending) {
		dst = make([]byte, len(s.pending))
	}
	dst = dst[:len(s.pending)]
	copy(dst, s.pending)
	s.dirty = false
	return dst, s.pendingW, s.pendingH, true
}

// Stats is a point-in-time snapshot of one slot's counters.
type Stats struct {
	Index    int    `json:"index"`
	Received uint64 `json:"received"`
	Dropped  uint64 `json:"dropped"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Pending  bool   `json:"pending"`
}

// stats snapshots the slot under its lock.
func (s *Slot) stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Index:    s.index,
		Received: s.received,
		Dropped:  s.dropped,
		Width:    s.pendingW,
		Height:   s.pendingH,
		Pending:  s.dirty,
	}
}

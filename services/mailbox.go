package services

import (
	"assetmap/models"
	"sync"
)

// Mailbox hands wire records from the decoder goroutine to the main lane.
// It holds at most one pending record per object; a newer record replaces
// the pending one in place and keeps its original queue position.
type Mailbox struct {
	mu      sync.Mutex
	pending map[models.TrackedObjectID]models.WireRecord
	order   []models.TrackedObjectID
	ready   chan struct{}
	closed  bool

	metrics *PipelineMetrics
}

func NewMailbox(metrics *PipelineMetrics) *Mailbox {
	return &Mailbox{
		pending: make(map[models.TrackedObjectID]models.WireRecord),
		ready:   make(chan struct{}, 1),
		metrics: metrics,
	}
}

// Put transfers ownership of rec to the mailbox. It reports false once the
// mailbox is closed.
func (m *Mailbox) Put(id models.TrackedObjectID, rec models.WireRecord) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	if _, ok := m.pending[id]; ok {
		m.metrics.coalesced()
	} else {
		m.order = append(m.order, id)
	}
	m.pending[id] = rec
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready fires after Put when records are waiting.
func (m *Mailbox) Ready() <-chan struct{} {
	return m.ready
}

// Drain takes every pending record in first-arrival order.
func (m *Mailbox) Drain() []models.WireRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.order) == 0 {
		return nil
	}
	out := make([]models.WireRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.pending[id])
		delete(m.pending, id)
	}
	m.order = m.order[:0]
	return out
}

// Len - 대기 중인 레코드 수
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Close rejects further records and discards pending ones.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	clear(m.pending)
	m.order = nil
}

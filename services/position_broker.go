package services

import (
	"assetmap/models"
	"cmp"
	"slices"
	"sync"
)

// PositionBroker keeps the latest telemetry per object on the simulator side
// and fans every update out to stream clients. Slow clients miss updates.
type PositionBroker struct {
	mu     sync.RWMutex
	latest map[models.TrackedObjectID]models.Telemetry

	clientsMu sync.RWMutex
	clients   map[chan models.Telemetry]struct{}
}

func NewPositionBroker() *PositionBroker {
	return &PositionBroker{
		latest:  make(map[models.TrackedObjectID]models.Telemetry),
		clients: make(map[chan models.Telemetry]struct{}),
	}
}

// Update stores t and forwards it to every client.
func (b *PositionBroker) Update(t models.Telemetry) {
	b.mu.Lock()
	b.latest[t.ObjectID] = t
	b.mu.Unlock()

	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- t:
		default:
		}
	}
}

// AddClient registers a stream client with the given buffer.
func (b *PositionBroker) AddClient(buffer int) chan models.Telemetry {
	ch := make(chan models.Telemetry, buffer)
	b.clientsMu.Lock()
	b.clients[ch] = struct{}{}
	b.clientsMu.Unlock()
	return ch
}

func (b *PositionBroker) RemoveClient(ch chan models.Telemetry) {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
}

// Close ends every client stream.
func (b *PositionBroker) Close() {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	for ch := range b.clients {
		close(ch)
	}
	clear(b.clients)
}

// ClientCount - 연결된 스트림 클라이언트 수
func (b *PositionBroker) ClientCount() int {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	return len(b.clients)
}

func (b *PositionBroker) Get(id models.TrackedObjectID) (models.Telemetry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.latest[id]
	return t, ok
}

// Snapshot returns the latest telemetry of every object, sorted by id.
func (b *PositionBroker) Snapshot() []models.Telemetry {
	b.mu.RLock()
	out := make([]models.Telemetry, 0, len(b.latest))
	for _, t := range b.latest {
		out = append(out, t)
	}
	b.mu.RUnlock()

	slices.SortFunc(out, func(a, c models.Telemetry) int {
		return cmp.Compare(a.ObjectID, c.ObjectID)
	})
	return out
}

func (b *PositionBroker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.latest)
}

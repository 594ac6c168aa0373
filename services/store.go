package services

import (
	"assetmap/models"
	"cmp"
	"iter"
	"maps"
	"slices"
)

// PositionStore is the authoritative table of the latest position per object.
//
// A single update counter announces that something changed; consumers pull
// a full snapshot instead of observing individual fields. Objects that need
// one asset's stream subscribe to its per-id channel.
//
// The store is not safe for concurrent use. It belongs to the main lane.
type PositionStore struct {
	records  map[models.TrackedObjectID]models.PositionRecord
	counter  uint64
	subs     map[models.TrackedObjectID]map[*Subscription]struct{}
	watchers []func(counter uint64)
	closed   bool
}

func NewPositionStore() *PositionStore {
	return &PositionStore{
		records: make(map[models.TrackedObjectID]models.PositionRecord),
		subs:    make(map[models.TrackedObjectID]map[*Subscription]struct{}),
	}
}

// Ingest decodes a wire record and upserts it. On success the counter goes up
// by one, subscribers of that id get the record and watchers are notified.
// A malformed record changes nothing.
func (s *PositionStore) Ingest(w models.WireRecord) (models.PositionRecord, error) {
	rec, err := models.DecodeWireRecord(w)
	if err != nil {
		return models.PositionRecord{}, err
	}

	s.records[rec.ObjectID] = rec
	s.counter++

	for sub := range s.subs[rec.ObjectID] {
		sub.publish(rec)
	}
	for _, fn := range s.watchers {
		fn(s.counter)
	}
	return rec, nil
}

// Get - O(1) 조회
func (s *PositionStore) Get(id models.TrackedObjectID) (models.PositionRecord, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// All iterates the current records in unspecified order.
func (s *PositionStore) All() iter.Seq[models.PositionRecord] {
	return maps.Values(s.records)
}

// Snapshot copies the current records, sorted by id.
func (s *PositionStore) Snapshot() []models.PositionRecord {
	out := slices.Collect(maps.Values(s.records))
	slices.SortFunc(out, func(a, b models.PositionRecord) int {
		return cmp.Compare(a.ObjectID, b.ObjectID)
	})
	return out
}

func (s *PositionStore) Len() int {
	return len(s.records)
}

// Counter - 단조 증가 업데이트 카운터
func (s *PositionStore) Counter() uint64 {
	return s.counter
}

// Watch registers fn to run once per counter increment, after the record is
// stored.
func (s *PositionStore) Watch(fn func(counter uint64)) {
	s.watchers = append(s.watchers, fn)
}

// Subscribe opens a per-id channel. It carries only the newest record not yet
// received; seed the initial value with Get.
func (s *PositionStore) Subscribe(id models.TrackedObjectID) *Subscription {
	sub := &Subscription{
		ID:    id,
		ch:    make(chan models.PositionRecord, 1),
		store: s,
	}
	if s.closed {
		sub.done = true
		close(sub.ch)
		return sub
	}
	set, ok := s.subs[id]
	if !ok {
		set = make(map[*Subscription]struct{})
		s.subs[id] = set
	}
	set[sub] = struct{}{}
	return sub
}

// SubscriberCount - id별 구독자 수
func (s *PositionStore) SubscriberCount(id models.TrackedObjectID) int {
	return len(s.subs[id])
}

// Close ends every subscription. Later subscriptions start closed.
func (s *PositionStore) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, set := range s.subs {
		for sub := range set {
			sub.done = true
			close(sub.ch)
		}
	}
	clear(s.subs)
}

// Subscription is a per-id notification channel. Close it on the main lane.
type Subscription struct {
	ID    models.TrackedObjectID
	ch    chan models.PositionRecord
	store *PositionStore
	done  bool
}

// C is closed when the subscription or the store is closed.
func (sub *Subscription) C() <-chan models.PositionRecord {
	return sub.ch
}

func (sub *Subscription) Close() {
	if sub.done {
		return
	}
	sub.done = true
	if set, ok := sub.store.subs[sub.ID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(sub.store.subs, sub.ID)
		}
	}
	close(sub.ch)
}

// publish replaces an unread record with the newer one. Only the main lane
// sends, so draining then sending cannot race with another sender.
func (sub *Subscription) publish(rec models.PositionRecord) {
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- rec:
	default:
	}
}

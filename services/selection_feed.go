package services

import (
	"assetmap/models"
	"log/slog"
	"sync"
	"time"
)

// Broadcaster delivers a message to every connected viewer client.
type Broadcaster interface {
	BroadcastMessage(msg models.WebSocketMessage)
}

// SelectionFeed follows the selected asset: on every selection change it
// swaps its per-id subscription and pushes the asset's details, then streams
// each newer record for that asset. It never triggers a repaint.
type SelectionFeed struct {
	store  *PositionStore
	lookup DescriptorLookup
	out    Broadcaster
	logger *slog.Logger

	sub *Subscription

	// gen은 선택이 바뀔 때마다 증가. 이전 세대의 forward는 전송하지 않음
	mu  sync.Mutex
	gen uint64
}

// NewSelectionFeed registers the feed on selection. Main lane only.
func NewSelectionFeed(store *PositionStore, selection *SelectionState, lookup DescriptorLookup, out Broadcaster, logger *slog.Logger) *SelectionFeed {
	if logger == nil {
		logger = slog.Default()
	}
	f := &SelectionFeed{store: store, lookup: lookup, out: out, logger: logger}
	selection.OnChange(f.onChange)
	return f
}

// Details returns the control-panel payload for id from the current store.
func (f *SelectionFeed) Details(id models.TrackedObjectID) models.SelectionData {
	return selectionDetails(f.store, f.lookup, id)
}

func selectionDetails(store *PositionStore, lookup DescriptorLookup, id models.TrackedObjectID) models.SelectionData {
	var desc *models.AssetDescriptor
	if lookup != nil {
		if d, ok := lookup.Lookup(id); ok {
			desc = &d
		}
	}
	var rec *models.PositionRecord
	if r, ok := store.Get(id); ok {
		rec = &r
	}
	return models.SelectedAssetDetails(id, desc, rec)
}

func (f *SelectionFeed) onChange(id models.TrackedObjectID, ok bool) {
	if f.sub != nil {
		f.sub.Close()
		f.sub = nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++

	if !ok {
		f.out.BroadcastMessage(newMessage(models.MessageTypeSelectionCleared, nil))
		return
	}

	details := f.Details(id)
	f.out.BroadcastMessage(newMessage(models.MessageTypeSelection, details))
	if details.Telemetry == nil {
		f.out.BroadcastMessage(newMessage(models.MessageTypeNoData, objectIDPayload(id)))
	}

	f.sub = f.store.Subscribe(id)
	go f.forward(f.sub.ID, f.gen, f.sub.C())
	f.logger.Debug("선택 자산 구독 시작", "object_id", id)
}

// forward runs until the subscription channel is closed. Records that arrive
// after the selection moved on are discarded.
func (f *SelectionFeed) forward(id models.TrackedObjectID, gen uint64, ch <-chan models.PositionRecord) {
	for rec := range ch {
		f.mu.Lock()
		if f.gen == gen {
			f.out.BroadcastMessage(newMessage(models.MessageTypeTelemetry, models.TelemetryUpdate{
				ObjectID:      id,
				TelemetryView: models.NewTelemetryView(rec),
			}))
		}
		f.mu.Unlock()
	}
	f.logger.Debug("선택 자산 구독 종료", "object_id", id)
}

func objectIDPayload(id models.TrackedObjectID) map[string]any {
	return map[string]any{"object_id": id}
}

func newMessage(typ string, data any) models.WebSocketMessage {
	return models.WebSocketMessage{Type: typ, Data: data, Timestamp: time.Now().UnixMilli()}
}

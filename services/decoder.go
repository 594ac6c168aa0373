package services

import (
	"assetmap/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// ErrMalformedEvent - 파싱할 수 없거나 필수 필드가 빠진 텔레메트리 이벤트
var ErrMalformedEvent = errors.New("malformed telemetry event")

// EventSink receives raw event payloads from a Source. Ownership of payload
// passes to the sink. Drop reports an event the source had to discard while
// the connection stays open.
type EventSink interface {
	Connected()
	Event(payload []byte)
	Drop(err error)
}

// Source is a push connection delivering one telemetry event per payload.
// Stream blocks until the connection ends or ctx is cancelled.
type Source interface {
	Name() string
	Stream(ctx context.Context, sink EventSink) error
}

// telemetryEvent keeps only the fields the viewer uses. Everything else in
// the payload is discarded by the JSON decoder.
type telemetryEvent struct {
	ObjectID  *int64   `json:"object_id"`
	Timestamp *string  `json:"timestamp"`
	IsValid   *bool    `json:"is_valid"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	A         *float64 `json:"a"`
	Battery   *struct {
		Percentage *float64 `json:"percentage"`
	} `json:"battery"`
}

// DecodeEvent parses one telemetry payload into a freshly allocated wire
// record.
func DecodeEvent(payload []byte) (models.TrackedObjectID, models.WireRecord, error) {
	var ev telemetryEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch {
	case ev.ObjectID == nil:
		return 0, nil, fmt.Errorf("%w: missing object_id", ErrMalformedEvent)
	case ev.X == nil || ev.Y == nil:
		return 0, nil, fmt.Errorf("%w: missing coordinates", ErrMalformedEvent)
	case ev.A == nil:
		return 0, nil, fmt.Errorf("%w: missing heading", ErrMalformedEvent)
	case ev.IsValid == nil:
		return 0, nil, fmt.Errorf("%w: missing is_valid", ErrMalformedEvent)
	case ev.Battery == nil || ev.Battery.Percentage == nil:
		return 0, nil, fmt.Errorf("%w: missing battery percentage", ErrMalformedEvent)
	case ev.Timestamp == nil:
		return 0, nil, fmt.Errorf("%w: missing timestamp", ErrMalformedEvent)
	}

	if *ev.ObjectID < 0 || *ev.ObjectID > models.MaxObjectID {
		return 0, nil, fmt.Errorf("%w: object_id %d out of range", ErrMalformedEvent, *ev.ObjectID)
	}

	ts, err := time.Parse(time.RFC3339Nano, *ev.Timestamp)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: timestamp: %v", ErrMalformedEvent, err)
	}

	w := models.NewWireRecord()
	w.SetSlot(models.SlotObjectID, float64(*ev.ObjectID))
	w.SetSlot(models.SlotX, *ev.X)
	w.SetSlot(models.SlotY, *ev.Y)
	w.SetSlot(models.SlotHeading, *ev.A)
	if *ev.IsValid {
		w.SetSlot(models.SlotValid, 1)
	}
	w.SetSlot(models.SlotBattery, *ev.Battery.Percentage)
	w.SetSlot(models.SlotTimestamp, float64(ts.UnixMilli()))

	if _, err := models.DecodeWireRecord(w); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return models.TrackedObjectID(*ev.ObjectID), w, nil
}

// StreamDecoder owns the push connection. It turns each event into a wire
// record and hands it to the mailbox. It keeps no per-object state.
type StreamDecoder struct {
	source    Source
	mailbox   *Mailbox
	reconnect ReconnectConfig
	logger    *slog.Logger
	metrics   *PipelineMetrics
}

func NewStreamDecoder(source Source, mailbox *Mailbox, reconnect ReconnectConfig, logger *slog.Logger, metrics *PipelineMetrics) *StreamDecoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamDecoder{
		source:    source,
		mailbox:   mailbox,
		reconnect: reconnect,
		logger:    logger.With("source", source.Name()),
		metrics:   metrics,
	}
}

// Run streams until ctx is cancelled, reconnecting with exponential backoff.
func (d *StreamDecoder) Run(ctx context.Context) error {
	d.logger.Info("스트림 디코더 시작")
	err := RunWithReconnect(ctx, d.logger, d.reconnect, d.metrics, d.session)
	d.logger.Info("스트림 디코더 종료", "reason", err)
	return err
}

func (d *StreamDecoder) session(ctx context.Context) (bool, error) {
	s := &decodeSession{decoder: d}
	err := d.source.Stream(ctx, s)
	return s.connected.Load(), err
}

// handle - 이벤트 1건 처리. 잘못된 이벤트는 로그 후 버림 (연결 유지)
func (d *StreamDecoder) handle(payload []byte) {
	d.metrics.received()

	id, rec, err := DecodeEvent(payload)
	if err != nil {
		d.metrics.dropped(DropReasonParse)
		d.logger.Warn("텔레메트리 이벤트 버림", "error", err, "bytes", len(payload))
		return
	}

	// rec는 이후 이 고루틴에서 참조하지 않음
	if !d.mailbox.Put(id, rec) {
		d.logger.Debug("메일박스 닫힘, 레코드 버림", "object_id", id)
	}
}

type decodeSession struct {
	decoder   *StreamDecoder
	connected atomic.Bool
}

func (s *decodeSession) Connected() {
	s.connected.Store(true)
	s.decoder.logger.Info("스트림 연결됨")
}

func (s *decodeSession) Event(payload []byte) {
	s.decoder.handle(payload)
}

func (s *decodeSession) Drop(err error) {
	s.decoder.metrics.received()
	s.decoder.metrics.dropped(DropReasonParse)
	s.decoder.logger.Warn("텔레메트리 이벤트 버림", "error", err)
}

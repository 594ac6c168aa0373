package models

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// TrackedObjectID - 세션 동안 고유하고 안정적인 자산 ID
type TrackedObjectID int64

// ========================================
// 위치 레코드
// ========================================

// PositionRecord - 객체별 최신 위치 스냅샷 (불변 값, 재수신 시 통째로 교체)
type PositionRecord struct {
	ObjectID          TrackedObjectID `json:"object_id"`
	X                 float64         `json:"x"`       // 논리 평면 좌표 (미터)
	Y                 float64         `json:"y"`       // 논리 평면 좌표 (미터)
	Heading           float64         `json:"heading"` // 라디안
	Valid             bool            `json:"valid"`
	BatteryPercentage float64         `json:"battery_percentage"` // 0~100
	ObservedAt        time.Time       `json:"observed_at"`
}

// ========================================
// 바이너리 전송 레코드
// ========================================

// 슬롯 순서: [objectId, x, y, heading, validFlag, batteryPercentage, timestampEpochMs]
const (
	SlotObjectID = iota
	SlotX
	SlotY
	SlotHeading
	SlotValid
	SlotBattery
	SlotTimestamp

	WireSlots      = 7
	WireRecordSize = WireSlots * 8 // 56 bytes, little-endian float64
)

// MaxObjectID is the largest id a float64 slot holds exactly (2^53).
const MaxObjectID = 1 << 53

// ErrMalformedRecord - 길이나 값이 맞지 않는 전송 레코드
var ErrMalformedRecord = errors.New("malformed wire record")

// WireRecord is the fixed 56-byte transfer format between the decoder and the
// position store. A record is handed over exactly once; the sender must not
// touch the buffer after the handoff.
type WireRecord []byte

// NewWireRecord allocates a zeroed record.
func NewWireRecord() WireRecord {
	return make(WireRecord, WireRecordSize)
}

// Slot - i번째 float64 슬롯 읽기
func (w WireRecord) Slot(i int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(w[i*8:]))
}

// SetSlot - i번째 float64 슬롯 쓰기
func (w WireRecord) SetSlot(i int, v float64) {
	binary.LittleEndian.PutUint64(w[i*8:], math.Float64bits(v))
}

// EncodeWireRecord packs a record into a freshly allocated wire buffer.
// The timestamp is quantised to whole milliseconds.
func EncodeWireRecord(rec PositionRecord) WireRecord {
	w := NewWireRecord()
	w.SetSlot(SlotObjectID, float64(rec.ObjectID))
	w.SetSlot(SlotX, rec.X)
	w.SetSlot(SlotY, rec.Y)
	w.SetSlot(SlotHeading, rec.Heading)
	if rec.Valid {
		w.SetSlot(SlotValid, 1)
	}
	w.SetSlot(SlotBattery, rec.BatteryPercentage)
	w.SetSlot(SlotTimestamp, float64(rec.ObservedAt.UnixMilli()))
	return w
}

// DecodeWireRecord unpacks and validates a wire buffer.
func DecodeWireRecord(w WireRecord) (PositionRecord, error) {
	if len(w) != WireRecordSize {
		return PositionRecord{}, fmt.Errorf("%w: length %d, want %d", ErrMalformedRecord, len(w), WireRecordSize)
	}

	for i := 0; i < WireSlots; i++ {
		v := w.Slot(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return PositionRecord{}, fmt.Errorf("%w: slot %d is not finite", ErrMalformedRecord, i)
		}
	}

	id := w.Slot(SlotObjectID)
	if id != math.Trunc(id) || id < 0 || id > MaxObjectID {
		return PositionRecord{}, fmt.Errorf("%w: object id %v", ErrMalformedRecord, id)
	}

	valid := w.Slot(SlotValid)
	if valid != 0 && valid != 1 {
		return PositionRecord{}, fmt.Errorf("%w: valid flag %v", ErrMalformedRecord, valid)
	}

	battery := w.Slot(SlotBattery)
	if battery < 0 || battery > 100 {
		return PositionRecord{}, fmt.Errorf("%w: battery %v out of range", ErrMalformedRecord, battery)
	}

	return PositionRecord{
		ObjectID:          TrackedObjectID(id),
		X:                 w.Slot(SlotX),
		Y:                 w.Slot(SlotY),
		Heading:           w.Slot(SlotHeading),
		Valid:             valid == 1,
		BatteryPercentage: battery,
		ObservedAt:        time.UnixMilli(int64(w.Slot(SlotTimestamp))),
	}, nil
}

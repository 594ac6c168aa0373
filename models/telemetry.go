package models

import (
	"fmt"
	"math"
	"time"
)

// ========================================
// 수신 텔레메트리 이벤트 (서버 푸시, 객체당 1건)
// ========================================

// Telemetry - 위치 스트림 한 건의 전체 필드
type Telemetry struct {
	ObjectID  TrackedObjectID `json:"object_id"`
	TagID     string          `json:"tag_id"`
	Timestamp time.Time       `json:"timestamp"`
	IsValid   bool            `json:"is_valid"`
	SourceID  int64           `json:"source_id"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Z         float64         `json:"z"`
	A         float64         `json:"a"` // heading (라디안)
	B         float64         `json:"b"`
	C         float64         `json:"c"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Altitude  float64         `json:"altitude"`
	Flags     []int32         `json:"flags"`
	TenantID  int64           `json:"tenant_id"`
	Battery   BatteryState    `json:"battery"`
}

// BatteryState - 배터리 상태
type BatteryState struct {
	Percentage           int       `json:"percentage"`
	PercentageLastUpdate time.Time `json:"percentage_last_update"`
}

// PositionRecord - 뷰어가 쓰는 필드만 추림
func (t Telemetry) PositionRecord() PositionRecord {
	return PositionRecord{
		ObjectID:          t.ObjectID,
		X:                 t.X,
		Y:                 t.Y,
		Heading:           t.A,
		Valid:             t.IsValid,
		BatteryPercentage: float64(t.Battery.Percentage),
		ObservedAt:        t.Timestamp,
	}
}

// ========================================
// 선택된 자산 표시용
// ========================================

// TelemetryView - 컨트롤 패널 표시 형식
type TelemetryView struct {
	X        string  `json:"x"`       // 소수점 2자리
	Y        string  `json:"y"`       // 소수점 2자리
	Angle    string  `json:"angle"`   // 도 단위 정수
	IsValid  bool    `json:"is_valid"`
	LastSeen string  `json:"last_seen"`
	Battery  float64 `json:"battery"`
}

// NewTelemetryView formats a record for display.
func NewTelemetryView(rec PositionRecord) TelemetryView {
	return TelemetryView{
		X:        fmt.Sprintf("%.2f", rec.X),
		Y:        fmt.Sprintf("%.2f", rec.Y),
		Angle:    fmt.Sprintf("%.0f", HeadingDegrees(rec.Heading)),
		IsValid:  rec.Valid,
		LastSeen: rec.ObservedAt.UTC().Format(time.RFC3339Nano),
		Battery:  rec.BatteryPercentage,
	}
}

// HeadingDegrees converts a heading in radians to degrees.
func HeadingDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

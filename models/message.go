package models

// ========================================
// 메시지 타입 상수
// ========================================
const (
	// Server → Web
	MessageTypeSelection        = "selection"         // 선택 변경 (디스크립터 + 초기 텔레메트리)
	MessageTypeSelectionCleared = "selection_cleared" // 선택 해제됨
	MessageTypeTelemetry        = "telemetry"         // 선택된 자산의 실시간 텔레메트리
	MessageTypeNoData           = "no_data"           // 선택된 자산의 위치 없음
	MessageTypeSystemInfo       = "system_info"       // 시스템 정보

	// Web → Server
	MessageTypeDeselect = "deselect" // 선택 해제
)

// ========================================
// 공통 WebSocket 메시지 형식
// ========================================
type WebSocketMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp (ms)
}

// SelectionData - 선택된 자산 정보
type SelectionData struct {
	ObjectID   TrackedObjectID `json:"object_id"`
	Name       string          `json:"name"`
	Type       AssetCategory   `json:"type"`
	Labels     []string        `json:"labels"`
	Properties []PropertyRow   `json:"properties"`
	Telemetry  *TelemetryView  `json:"telemetry"` // nil = no_data
}

// SelectedAssetDetails builds the control-panel payload. The descriptor and
// the position may each be missing.
func SelectedAssetDetails(id TrackedObjectID, desc *AssetDescriptor, rec *PositionRecord) SelectionData {
	data := SelectionData{
		ObjectID: id,
		Type:     DefaultCategory,
	}
	if desc != nil {
		data.Name = desc.DisplayName
		data.Type = desc.Category
		data.Labels = desc.Labels
		data.Properties = PropertyRows(desc.Properties)
	}
	if rec != nil {
		view := NewTelemetryView(*rec)
		data.Telemetry = &view
	}
	return data
}

// TelemetryUpdate - 선택된 자산의 새 위치
type TelemetryUpdate struct {
	ObjectID TrackedObjectID `json:"object_id"`
	TelemetryView
}

// SystemInfo - 연결 직후 전송
type SystemInfo struct {
	ConnectedClients int    `json:"connected_clients"`
	UpdateCounter    uint64 `json:"update_counter"`
	TrackedObjects   int    `json:"tracked_objects"`
}

package models

// Logical plane side length in meters.
const PlaneSide = 100.0

// MapDimensions describes the logical plane served by the telemetry source.
type MapDimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SystemStats is the aggregate statistics payload of the telemetry source.
type SystemStats struct {
	ConnectedClients int           `json:"connected_clients"`
	MapDimensions    MapDimensions `json:"map_dimensions"`
	TotalObjects     int           `json:"total_objects"`
	TotalPositions   int           `json:"total_positions"`
	UpdateIntervalMs int64         `json:"update_interval_ms"`
}

// Viewport describes the render surface in CSS and backing-store pixels.
type Viewport struct {
	CSSWidth         float64 `json:"css_width"`
	CSSHeight        float64 `json:"css_height"`
	DevicePixelRatio float64 `json:"device_pixel_ratio"`
	BackingWidth     int     `json:"backing_width"`
	BackingHeight    int     `json:"backing_height"`
}

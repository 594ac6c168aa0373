package models

import (
	"encoding/json"
	"testing"
)

func TestCategoryFromLabels(t *testing.T) {
	cases := []struct {
		labels []string
		want   AssetCategory
	}{
		{[]string{"container"}, CategoryContainer},
		{[]string{"order"}, CategoryOrder},
		{[]string{"tool"}, CategoryTool},
		{[]string{"tool", "container"}, CategoryContainer},
		{[]string{"tool", "order"}, CategoryOrder},
		{nil, CategoryTool},
		{[]string{"forklift"}, CategoryTool},
	}
	for _, tc := range cases {
		if got := CategoryFromLabels(tc.labels); got != tc.want {
			t.Fatalf("labels %v: expected %s, got %s", tc.labels, tc.want, got)
		}
	}
}

func TestAssetDescriptorUnmarshalStringProperties(t *testing.T) {
	raw := `{"id":7,"name":"container-007","labels":["container"],
		"properties":{"status":"idle","zone":"Zone-B","capacity":"250","fill_level":"40","material_type":"components","temperature":"21.5"}}`

	var d AssetDescriptor
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if d.ID != 7 || d.DisplayName != "container-007" || d.Category != CategoryContainer {
		t.Fatalf("unexpected descriptor: %+v", d)
	}

	props, ok := d.Properties.(ContainerProperties)
	if !ok {
		t.Fatalf("expected ContainerProperties, got %T", d.Properties)
	}
	if props.Capacity != 250 || props.FillLevel != 40 || props.Temperature != 21.5 || props.Zone != "Zone-B" {
		t.Fatalf("unexpected properties: %+v", props)
	}
}

func TestAssetDescriptorUnmarshalNumericProperties(t *testing.T) {
	raw := `{"id":3,"name":"order-003","labels":["order"],"properties":{"order_id":"ORD-123456","item_count":12,"priority":"high"}}`

	var d AssetDescriptor
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	props, ok := d.Properties.(OrderProperties)
	if !ok {
		t.Fatalf("expected OrderProperties, got %T", d.Properties)
	}
	if props.ItemCount != 12 || props.OrderID != "ORD-123456" {
		t.Fatalf("unexpected properties: %+v", props)
	}
}

func TestAssetDescriptorUnknownLabelDefaultsToTool(t *testing.T) {
	var d AssetDescriptor
	if err := json.Unmarshal([]byte(`{"id":1,"name":"x","labels":[],"properties":{"operator":"Lisa"}}`), &d); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if d.Category != CategoryTool {
		t.Fatalf("expected tool, got %s", d.Category)
	}
	if p, ok := d.Properties.(ToolProperties); !ok || p.Operator != "Lisa" {
		t.Fatalf("unexpected properties: %#v", d.Properties)
	}
}

func TestAssetDescriptorMarshalRoundTrip(t *testing.T) {
	in := AssetDescriptor{
		ID:          11,
		DisplayName: "tool-011",
		Category:    CategoryTool,
		Properties:  ToolProperties{CommonProperties: CommonProperties{Status: "idle"}, ToolType: "agv", MaxLoad: 900},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out AssetDescriptor
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.Category != CategoryTool || out.Properties.(ToolProperties).MaxLoad != 900 {
		t.Fatalf("unexpected descriptor after round trip: %+v", out)
	}
}

func TestPropertyRows(t *testing.T) {
	rows := PropertyRows(ContainerProperties{FillLevel: 55, Temperature: 19.25})
	found := map[string]string{}
	for _, r := range rows {
		found[r.Key] = r.Value
	}
	if found["fill_level"] != "55%" {
		t.Fatalf("unexpected fill level row: %q", found["fill_level"])
	}
	if found["temperature"] != "19.2°C" && found["temperature"] != "19.3°C" {
		t.Fatalf("unexpected temperature row: %q", found["temperature"])
	}
	if rows := PropertyRows(nil); len(rows) != 0 {
		t.Fatalf("expected no rows for nil properties, got %d", len(rows))
	}
}

func TestSelectedAssetDetailsWithoutPosition(t *testing.T) {
	data := SelectedAssetDetails(5, nil, nil)
	if data.Telemetry != nil {
		t.Fatalf("expected no telemetry")
	}
	if data.Type != DefaultCategory {
		t.Fatalf("expected default category, got %s", data.Type)
	}
}

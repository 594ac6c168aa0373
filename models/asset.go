package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// AssetCategory - 자산 분류
type AssetCategory string

const (
	CategoryContainer AssetCategory = "container"
	CategoryOrder     AssetCategory = "order"
	CategoryTool      AssetCategory = "tool"
)

// DefaultCategory is used when an object has no descriptor or no known label.
const DefaultCategory = CategoryTool

// CategoryFromLabels picks the category by priority: container, order, tool.
func CategoryFromLabels(labels []string) AssetCategory {
	switch {
	case slices.Contains(labels, string(CategoryContainer)):
		return CategoryContainer
	case slices.Contains(labels, string(CategoryOrder)):
		return CategoryOrder
	default:
		return DefaultCategory
	}
}

// ========================================
// 분류별 속성 (tagged union)
// ========================================

// CategoryProperties is implemented only by the three property variants below.
type CategoryProperties interface {
	Category() AssetCategory
	categoryProperties()
}

// CommonProperties - 모든 분류 공통
type CommonProperties struct {
	Status string `json:"status"`
	Zone   string `json:"zone"`
}

type ContainerProperties struct {
	CommonProperties
	Capacity     int     `json:"capacity"`
	FillLevel    int     `json:"fill_level"` // %
	MaterialType string  `json:"material_type"`
	Temperature  float64 `json:"temperature"` // °C
}

type OrderProperties struct {
	CommonProperties
	OrderID   string `json:"order_id"`
	Priority  string `json:"priority"`
	Customer  string `json:"customer"`
	ItemCount int    `json:"item_count"`
	DueDate   string `json:"due_date"`
}

type ToolProperties struct {
	CommonProperties
	ToolType       string `json:"tool_type"`
	MaxLoad        int    `json:"max_load"` // kg
	Operator       string `json:"operator"`
	MaintenanceDue int    `json:"maintenance_due"` // 일
	UsageHours     int    `json:"usage_hours"`
}

func (ContainerProperties) Category() AssetCategory { return CategoryContainer }
func (OrderProperties) Category() AssetCategory     { return CategoryOrder }
func (ToolProperties) Category() AssetCategory      { return CategoryTool }

func (ContainerProperties) categoryProperties() {}
func (OrderProperties) categoryProperties()     {}
func (ToolProperties) categoryProperties()      {}

// PropertyRow - 표시용 키/값
type PropertyRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PropertyRows flattens category properties for display and exports.
func PropertyRows(p CategoryProperties) []PropertyRow {
	var rows []PropertyRow
	add := func(k, v string) { rows = append(rows, PropertyRow{Key: k, Value: v}) }

	switch v := p.(type) {
	case ContainerProperties:
		add("status", v.Status)
		add("zone", v.Zone)
		add("capacity", strconv.Itoa(v.Capacity))
		add("fill_level", strconv.Itoa(v.FillLevel)+"%")
		add("material_type", v.MaterialType)
		add("temperature", strconv.FormatFloat(v.Temperature, 'f', 1, 64)+"°C")
	case OrderProperties:
		add("status", v.Status)
		add("zone", v.Zone)
		add("order_id", v.OrderID)
		add("priority", v.Priority)
		add("customer", v.Customer)
		add("item_count", strconv.Itoa(v.ItemCount))
		add("due_date", v.DueDate)
	case ToolProperties:
		add("status", v.Status)
		add("zone", v.Zone)
		add("tool_type", v.ToolType)
		add("max_load", strconv.Itoa(v.MaxLoad)+" kg")
		add("operator", v.Operator)
		add("maintenance_due", strconv.Itoa(v.MaintenanceDue)+" days")
		add("usage_hours", strconv.Itoa(v.UsageHours))
	}
	return rows
}

// ========================================
// 자산 디스크립터
// ========================================

// AssetDescriptor - 정적 메타데이터
type AssetDescriptor struct {
	ID          TrackedObjectID
	DisplayName string
	Category    AssetCategory
	Labels      []string
	Properties  CategoryProperties
}

type rawAssetDescriptor struct {
	ID         TrackedObjectID `json:"id"`
	Name       string          `json:"name"`
	Labels     []string        `json:"labels"`
	Properties map[string]any  `json:"properties"`
}

// UnmarshalJSON accepts the catalog shape {id, name, labels, properties}.
// Property values may arrive as strings or numbers.
func (d *AssetDescriptor) UnmarshalJSON(data []byte) error {
	var raw rawAssetDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	props := propertyBag(raw.Properties)
	common := CommonProperties{Status: props.text("status"), Zone: props.text("zone")}

	d.ID = raw.ID
	d.DisplayName = raw.Name
	d.Labels = raw.Labels
	d.Category = CategoryFromLabels(raw.Labels)

	switch d.Category {
	case CategoryContainer:
		d.Properties = ContainerProperties{
			CommonProperties: common,
			Capacity:         props.integer("capacity"),
			FillLevel:        props.integer("fill_level"),
			MaterialType:     props.text("material_type"),
			Temperature:      props.number("temperature"),
		}
	case CategoryOrder:
		d.Properties = OrderProperties{
			CommonProperties: common,
			OrderID:          props.text("order_id"),
			Priority:         props.text("priority"),
			Customer:         props.text("customer"),
			ItemCount:        props.integer("item_count"),
			DueDate:          props.text("due_date"),
		}
	default:
		d.Properties = ToolProperties{
			CommonProperties: common,
			ToolType:         props.text("tool_type"),
			MaxLoad:          props.integer("max_load"),
			Operator:         props.text("operator"),
			MaintenanceDue:   props.integer("maintenance_due"),
			UsageHours:       props.integer("usage_hours"),
		}
	}
	return nil
}

// MarshalJSON writes the same shape with a single category label.
func (d AssetDescriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         TrackedObjectID    `json:"id"`
		Name       string             `json:"name"`
		Labels     []string           `json:"labels"`
		Properties CategoryProperties `json:"properties"`
	}{
		ID:         d.ID,
		Name:       d.DisplayName,
		Labels:     []string{string(d.Category)},
		Properties: d.Properties,
	})
}

type propertyBag map[string]any

func (p propertyBag) text(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p propertyBag) number(key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func (p propertyBag) integer(key string) int {
	return int(p.number(key))
}

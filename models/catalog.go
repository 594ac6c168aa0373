package models

import (
	"strconv"
	"time"
)

// CatalogAsset - 시뮬레이터 자산 카탈로그 (DB 저장)
type CatalogAsset struct {
	ID           int64             `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	Name         string            `gorm:"size:64;index" json:"name"`
	Category     string            `gorm:"size:16;index" json:"category"`
	GenerationID string            `gorm:"size:36;index" json:"generation_id"` // 카탈로그 생성 배치 (uuid)
	Properties   map[string]string `gorm:"serializer:json" json:"properties"`
}

// CatalogObject - /api/objects 응답 형식
type CatalogObject struct {
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	Labels     []string          `json:"labels"`
	Properties map[string]string `json:"properties"`
}

// Object converts the stored row into the wire shape.
func (a CatalogAsset) Object() CatalogObject {
	props := a.Properties
	if props == nil {
		props = map[string]string{}
	}
	return CatalogObject{
		ID:         a.ID,
		Name:       a.Name,
		Labels:     []string{a.Category},
		Properties: props,
	}
}

// TagID - 텔레메트리의 tag_id 값
func (a CatalogAsset) TagID() string {
	if a.Name == "" {
		return "UNKNOWN-" + strconv.FormatInt(a.ID, 10)
	}
	return a.Name
}

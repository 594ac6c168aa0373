package services

import (
	"assetmap/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound - 요청한 객체/위치가 없음
var ErrNotFound = errors.New("not found")

const catalogBatchSize = 100

// CatalogStore persists the simulator's asset catalog.
type CatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// SeedIfEmpty inserts assets when the catalog table is empty. It reports
// whether anything was written.
func (s *CatalogStore) SeedIfEmpty(ctx context.Context, assets []models.CatalogAsset) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.CatalogAsset{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("카탈로그 조회 실패: %w", err)
	}
	if count > 0 || len(assets) == 0 {
		return false, nil
	}

	// 일괄 저장
	if err := s.db.WithContext(ctx).CreateInBatches(assets, catalogBatchSize).Error; err != nil {
		return false, fmt.Errorf("카탈로그 저장 실패: %w", err)
	}
	return true, nil
}

// List returns the whole catalog ordered by id.
func (s *CatalogStore) List(ctx context.Context) ([]models.CatalogAsset, error) {
	var assets []models.CatalogAsset
	err := s.db.WithContext(ctx).Order("id ASC").Find(&assets).Error
	return assets, err
}

func (s *CatalogStore) Get(ctx context.Context, id int64) (models.CatalogAsset, error) {
	var asset models.CatalogAsset
	err := s.db.WithContext(ctx).First(&asset, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CatalogAsset{}, fmt.Errorf("object %d: %w", id, ErrNotFound)
	}
	return asset, err
}

// Count - 카탈로그 크기
func (s *CatalogStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.CatalogAsset{}).Count(&count).Error
	return count, err
}

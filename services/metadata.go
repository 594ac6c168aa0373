package services

import (
	"assetmap/models"
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// DescriptorLoader fetches the static descriptor list.
type DescriptorLoader interface {
	FetchDescriptors(ctx context.Context) ([]models.AssetDescriptor, error)
}

// DescriptorLookup - 렌더러/선택 패널이 쓰는 조회 인터페이스
type DescriptorLookup interface {
	Lookup(id models.TrackedObjectID) (models.AssetDescriptor, bool)
}

// MetadataCache is a derived id → descriptor map. It is rebuilt from the
// fetched list and never written by the ingestion path.
type MetadataCache struct {
	loader  DescriptorLoader
	logger  *slog.Logger
	metrics *PipelineMetrics

	mu      sync.RWMutex
	source  []models.AssetDescriptor
	byID    map[models.TrackedObjectID]models.AssetDescriptor
	version uint64
}

func NewMetadataCache(loader DescriptorLoader, logger *slog.Logger, metrics *PipelineMetrics) *MetadataCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataCache{
		loader:  loader,
		logger:  logger,
		metrics: metrics,
		byID:    make(map[models.TrackedObjectID]models.AssetDescriptor),
	}
}

// Rebuild replaces the mapping when list differs from the current backing
// list. It reports whether anything changed.
func (c *MetadataCache) Rebuild(list []models.AssetDescriptor) bool {
	c.mu.RLock()
	same := reflect.DeepEqual(c.source, list)
	c.mu.RUnlock()
	if same {
		return false
	}

	// 잠금 밖에서 새 맵을 만든 뒤 교체
	byID := make(map[models.TrackedObjectID]models.AssetDescriptor, len(list))
	for _, d := range list {
		byID[d.ID] = d
	}
	source := make([]models.AssetDescriptor, len(list))
	copy(source, list)

	c.mu.Lock()
	c.source = source
	c.byID = byID
	c.version++
	c.mu.Unlock()
	return true
}

func (c *MetadataCache) Lookup(id models.TrackedObjectID) (models.AssetDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byID[id]
	return d, ok
}

// Len - 캐시된 디스크립터 수
func (c *MetadataCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Version goes up on every effective rebuild.
func (c *MetadataCache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Refresh fetches the list and rebuilds the mapping if it changed.
func (c *MetadataCache) Refresh(ctx context.Context) error {
	list, err := c.loader.FetchDescriptors(ctx)
	c.metrics.metadataRefreshed(err)
	if err != nil {
		return fmt.Errorf("메타데이터 조회 실패: %w", err)
	}
	if c.Rebuild(list) {
		c.logger.Info("메타데이터 캐시 갱신", "descriptors", len(list))
	}
	return nil
}

// StartAutoRefresh refreshes on every tick until ctx is cancelled.
func (c *MetadataCache) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Error("메타데이터 자동 갱신 실패", "error", err)
			}
		}
	}
}

package services

import (
	"assetmap/models"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeLoader struct {
	list []models.AssetDescriptor
	err  error
}

func (f *fakeLoader) FetchDescriptors(ctx context.Context) ([]models.AssetDescriptor, error) {
	return f.list, f.err
}

func descriptor(id models.TrackedObjectID, name string, category models.AssetCategory) models.AssetDescriptor {
	return models.AssetDescriptor{ID: id, DisplayName: name, Category: category}
}

func TestMetadataRebuildOnlyOnChange(t *testing.T) {
	c := NewMetadataCache(nil, nil, nil)
	list := []models.AssetDescriptor{
		descriptor(1, "container-001", models.CategoryContainer),
		descriptor(2, "order-001", models.CategoryOrder),
	}

	if !c.Rebuild(list) {
		t.Fatal("expected first rebuild to change the cache")
	}
	if c.Rebuild([]models.AssetDescriptor{list[0], list[1]}) {
		t.Fatal("expected identical list to be a no-op")
	}
	if c.Version() != 1 {
		t.Fatalf("expected version 1, got %d", c.Version())
	}

	d, ok := c.Lookup(2)
	if !ok || d.DisplayName != "order-001" {
		t.Fatalf("unexpected lookup: %+v %v", d, ok)
	}

	// 호출자가 원본 슬라이스를 바꿔도 캐시는 그대로
	list[1].DisplayName = "changed"
	if d, _ := c.Lookup(2); d.DisplayName != "order-001" {
		t.Fatalf("cache aliased caller slice: %+v", d)
	}

	if !c.Rebuild(list[:1]) {
		t.Fatal("expected shrunk list to rebuild")
	}
	if _, ok := c.Lookup(2); ok {
		t.Fatal("expected id 2 gone after rebuild")
	}
}

func TestMetadataRefresh(t *testing.T) {
	metrics := NewPipelineMetrics(prometheus.NewRegistry())
	loader := &fakeLoader{list: []models.AssetDescriptor{descriptor(5, "tool-001", models.CategoryTool)}}
	c := NewMetadataCache(loader, nil, metrics)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 descriptor, got %d", c.Len())
	}

	loader.err = errors.New("unreachable")
	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if c.Len() != 1 {
		t.Fatal("failed refresh must keep the previous mapping")
	}

	if got := testutil.ToFloat64(metrics.MetadataRefresh.WithLabelValues(ResultSuccess)); got != 1 {
		t.Fatalf("expected 1 success, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.MetadataRefresh.WithLabelValues(ResultError)); got != 1 {
		t.Fatalf("expected 1 error, got %f", got)
	}
}

package services

import (
	"assetmap/models"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CatalogGenerator builds a random asset catalog: 40% containers, 30% tools
// and 30% orders, each with its category's properties.
type CatalogGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCatalogGenerator - seed 0이면 현재 시각 사용
func NewCatalogGenerator(seed int64) *CatalogGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &CatalogGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Generate creates n assets with ids 1..n that share one generation id.
func (g *CatalogGenerator) Generate(n int, now time.Time) []models.CatalogAsset {
	g.mu.Lock()
	defer g.mu.Unlock()

	generationID := uuid.New().String()
	assets := make([]models.CatalogAsset, n)

	for i := range n {
		id := int64(i + 1)
		category := g.pickCategory()

		props := map[string]string{
			"status": pick(g.rng, "idle", "in_transit", "processing", "completed"),
			"zone":   fmt.Sprintf("Zone-%c", 'A'+g.rng.Intn(5)),
		}
		switch category {
		case models.CategoryContainer:
			props["capacity"] = strconv.Itoa(100 + g.rng.Intn(400))
			props["fill_level"] = strconv.Itoa(g.rng.Intn(101))
			props["material_type"] = pick(g.rng, "raw_material", "components", "finished_goods", "packaging")
			props["temperature"] = fmt.Sprintf("%.1f", 18.0+g.rng.Float64()*8.0)
		case models.CategoryTool:
			props["tool_type"] = pick(g.rng, "forklift", "pallet_jack", "tugger", "agv")
			props["max_load"] = strconv.Itoa(500 + g.rng.Intn(1500))
			props["operator"] = pick(g.rng, "John", "Maria", "Ahmed", "Lisa", "automatic")
			props["maintenance_due"] = strconv.Itoa(g.rng.Intn(90))
			props["usage_hours"] = strconv.Itoa(g.rng.Intn(10000))
		case models.CategoryOrder:
			props["order_id"] = fmt.Sprintf("ORD-%06d", 100000+g.rng.Intn(900000))
			props["priority"] = pick(g.rng, "low", "medium", "high", "urgent")
			props["customer"] = pick(g.rng, "ACME Corp", "Tech Industries", "Global Supplies", "Manufacturing Inc")
			props["item_count"] = strconv.Itoa(1 + g.rng.Intn(50))
			props["due_date"] = now.Add(time.Duration(g.rng.Intn(30)) * 24 * time.Hour).Format("2006-01-02")
		}

		assets[i] = models.CatalogAsset{
			ID:           id,
			CreatedAt:    now,
			Name:         fmt.Sprintf("%s-%03d", category, id),
			Category:     string(category),
			GenerationID: generationID,
			Properties:   props,
		}
	}
	return assets
}

func (g *CatalogGenerator) pickCategory() models.AssetCategory {
	r := g.rng.Float64()
	switch {
	case r < 0.4:
		return models.CategoryContainer
	case r < 0.7:
		return models.CategoryTool
	default:
		return models.CategoryOrder
	}
}

func pick(rng *rand.Rand, options ...string) string {
	return options[rng.Intn(len(options))]
}

package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormStockMetricsProvider implements StockMetricsProvider using GORM.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// LowStockCountByKind counts active materials under their minimum, per kind.
func (p *GormStockMetricsProvider) LowStockCountByKind(ctx context.Context) (map[string]int64, error) {
	var results []struct {
		Kind  string
		Count int64
	}
	err := p.db.WithContext(ctx).
		Table("materials").
		Select("kind, COUNT(*) AS count").
		Where("is_active = ? AND minimum_stock > 0 AND quantity < minimum_stock", true).
		Group("kind").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[string]int64, len(results))
	for _, r := range results {
		m[r.Kind] = r.Count
	}
	return m, nil
}

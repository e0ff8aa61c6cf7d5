package repositories

import (
	"time"

	"ledger-app/models"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// AnalyticsRepository computes read-only projections over the ledger and the
// movement history. It holds no invariant responsibilities: queries are
// plain reads with the aggregation done in Go, so it never blocks writers
// and can point at a read replica.
type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

type PricePoint struct {
	Month   string  `json:"month"`
	Batches int     `json:"batches"`
	AvgMrp  float64 `json:"avg_mrp"`
	AvgCost float64 `json:"avg_cost"`
}

type AgingBucket struct {
	Label    string `json:"label"`
	MaxDays  int    `json:"max_days"`
	Batches  int    `json:"batches"`
	Quantity int    `json:"quantity"`
}

type VelocityRow struct {
	ProductID uint    `json:"product_id"`
	ItemCode  string  `json:"item_code"`
	ItemName  string  `json:"item_name"`
	UnitsSold int     `json:"units_sold"`
	PerDay    float64 `json:"per_day"`
}

type SupplierStat struct {
	Supplier string  `json:"supplier"`
	Lots     int     `json:"lots"`
	Units    int     `json:"units"`
	AvgCost  float64 `json:"avg_cost"`
}

// PriceTrend returns per-month average batch prices for a product over the
// trailing window.
func (r *AnalyticsRepository) PriceTrend(productID uint, months int) ([]PricePoint, error) {
	if months <= 0 {
		months = 12
	}
	cutoff := time.Now().AddDate(0, -months, 0)

	var batches []models.Batch
	if err := r.db.Where("product_id = ? AND created_at >= ?", productID, cutoff).
		Order("id").Find(&batches).Error; err != nil {
		return nil, err
	}

	byMonth := make(map[string]*PricePoint)
	for _, b := range batches {
		month := b.CreatedAt.Format("2006-01")
		point, ok := byMonth[month]
		if !ok {
			point = &PricePoint{Month: month}
			byMonth[month] = point
		}
		point.Batches++
		point.AvgMrp += b.Mrp
		point.AvgCost += b.Cost
	}

	points := make([]PricePoint, 0, len(byMonth))
	for _, p := range byMonth {
		p.AvgMrp /= float64(p.Batches)
		p.AvgCost /= float64(p.Batches)
		points = append(points, *p)
	}
	slices.SortFunc(points, func(a, b PricePoint) int {
		if a.Month < b.Month {
			return -1
		}
		if a.Month > b.Month {
			return 1
		}
		return 0
	})
	return points, nil
}

// StockAging buckets active batch stock by shelf age in days.
func (r *AnalyticsRepository) StockAging() ([]AgingBucket, error) {
	buckets := []AgingBucket{
		{Label: "0-30", MaxDays: 30},
		{Label: "31-60", MaxDays: 60},
		{Label: "61-90", MaxDays: 90},
		{Label: "90+", MaxDays: 1 << 30},
	}

	var batches []models.Batch
	if err := r.db.Where("is_active = ? AND quantity > 0", true).Find(&batches).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	for _, b := range batches {
		age := int(now.Sub(b.CreatedAt).Hours() / 24)
		for i := range buckets {
			if age <= buckets[i].MaxDays {
				buckets[i].Batches++
				buckets[i].Quantity += b.Quantity
				break
			}
		}
	}
	return buckets, nil
}

// SalesVelocity ranks products by units sold per day over the trailing
// window.
func (r *AnalyticsRepository) SalesVelocity(days, limit int) ([]VelocityRow, error) {
	if days <= 0 {
		days = 30
	}
	if limit <= 0 {
		limit = 20
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	var movements []models.StockMovement
	if err := r.db.Where("trans = ? AND created_at >= ?", models.TransSale, cutoff).
		Find(&movements).Error; err != nil {
		return nil, err
	}

	sold := make(map[uint]int)
	for _, m := range movements {
		if m.Qty < 0 {
			sold[m.ProductID] += -m.Qty
		}
	}
	if len(sold) == 0 {
		return []VelocityRow{}, nil
	}

	ids := make([]uint, 0, len(sold))
	for id := range sold {
		ids = append(ids, id)
	}
	var products []models.Product
	if err := r.db.Unscoped().Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	names := make(map[uint]models.Product, len(products))
	for _, p := range products {
		names[p.ID] = p
	}

	rows := make([]VelocityRow, 0, len(sold))
	for id, units := range sold {
		rows = append(rows, VelocityRow{
			ProductID: id,
			ItemCode:  names[id].ItemCode,
			ItemName:  names[id].ItemName,
			UnitsSold: units,
			PerDay:    float64(units) / float64(days),
		})
	}
	slices.SortFunc(rows, func(a, b VelocityRow) int {
		return b.UnitsSold - a.UnitsSold
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// SupplierPerformance summarizes received lots per supplier over the
// trailing window.
func (r *AnalyticsRepository) SupplierPerformance(days int) ([]SupplierStat, error) {
	if days <= 0 {
		days = 90
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	var batches []models.Batch
	if err := r.db.Where("created_at >= ? AND supplier <> ''", cutoff).Find(&batches).Error; err != nil {
		return nil, err
	}

	bySupplier := make(map[string]*SupplierStat)
	for _, b := range batches {
		stat, ok := bySupplier[b.Supplier]
		if !ok {
			stat = &SupplierStat{Supplier: b.Supplier}
			bySupplier[b.Supplier] = stat
		}
		stat.Lots++
		stat.Units += b.Quantity
		stat.AvgCost += b.Cost
	}

	stats := make([]SupplierStat, 0, len(bySupplier))
	for _, s := range bySupplier {
		s.AvgCost /= float64(s.Lots)
		stats = append(stats, *s)
	}
	slices.SortFunc(stats, func(a, b SupplierStat) int {
		return b.Units - a.Units
	})
	return stats, nil
}

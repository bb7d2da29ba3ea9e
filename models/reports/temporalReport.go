package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"gorm.io/gorm"
)

// TemporalPoint is the number of variant records of one warehouse on one day.
type TemporalPoint struct {
	CountDate     string
	WarehouseId   string
	WarehouseName string
	Variant       int
}

type TemporalSeries struct {
	Name   string `json:"nombre"`
	Values []int  `json:"datos"`
}

type TemporalResponse struct {
	Dates  []string                   `json:"fechas"`
	Series map[string]*TemporalSeries `json:"series"`
}

// BuildTemporalSeries turns sparse points into one series per warehouse.
// The date axis is the union of observed dates; days a warehouse has no
// points are filled with zero.
func BuildTemporalSeries(points []TemporalPoint) *TemporalResponse {
	dateSet := make(map[string]struct{})
	for _, p := range points {
		dateSet[p.CountDate] = struct{}{}
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	position := make(map[string]int, len(dates))
	for i, d := range dates {
		position[d] = i
	}

	series := make(map[string]*TemporalSeries)
	for _, p := range points {
		s, ok := series[p.WarehouseId]
		if !ok {
			name := p.WarehouseName
			if name == "" {
				name = p.WarehouseId
			}
			s = &TemporalSeries{Name: name, Values: make([]int, len(dates))}
			series[p.WarehouseId] = s
		}
		s.Values[position[p.CountDate]] += p.Variant
	}

	return &TemporalResponse{Dates: dates, Series: series}
}

func temporalSQL() string {
	return fmt.Sprintf(`
SELECT
    cr.count_date AS count_date,
    cr.warehouse_id AS warehouse_id,
    COALESCE(w.name, cr.warehouse_id) AS warehouse_name,
    COUNT(*) AS variant
FROM
    %[2]s AS cr
    LEFT JOIN %[3]s AS w ON w.id = cr.warehouse_id
WHERE
    cr.count_date BETWEEN ? AND ?
    AND %[1]s IS NOT NULL
    AND %[1]s <> cr.reference_quantity
GROUP BY
    cr.count_date, cr.warehouse_id, w.name
ORDER BY
    cr.count_date, cr.warehouse_id
`, countedExpr, config.TableName("count_records"), config.TableName("warehouses"))
}

// GetTemporalSeries counts variant records per warehouse per day in [from, to].
func GetTemporalSeries(ctx context.Context, from string, to string) (*TemporalResponse, error) {
	if err := utils.ValidateDateRange("fecha_desde", from, "fecha_hasta", to); err != nil {
		return nil, err
	}

	key := cacheKey("temporal", from, to)
	var cached TemporalResponse
	if cacheGet(key, &cached) {
		return &cached, nil
	}

	started := time.Now()
	var points []TemporalPoint
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Raw(temporalSQL(), from, to).Scan(&points).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("temporal series", err)
	}
	logSlowReport(ctx, "temporal", started, map[string]any{"from": from, "to": to})

	result := BuildTemporalSeries(points)
	cacheSet(key, result)
	return result, nil
}

// GetRecentTemporalSeries covers the last n days ending today.
func GetRecentTemporalSeries(ctx context.Context, days int) (*TemporalResponse, error) {
	if days <= 0 {
		return nil, utils.NewValidationError("dias", "must be a positive number of days")
	}
	from, to := utils.DaysBack(time.Now(), days)
	return GetTemporalSeries(ctx, from, to)
}
